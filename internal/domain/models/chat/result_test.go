package chat

import "testing"

func TestQueryResultSingleValue(t *testing.T) {
	r := &QueryResult{Columns: []string{"count"}, Rows: [][]any{{int64(42)}}}

	v, ok := r.SingleValue()
	if !ok {
		t.Fatal("SingleValue() not ok for 1x1 result")
	}
	if v != int64(42) {
		t.Errorf("SingleValue() = %v, want 42", v)
	}

	multi := &QueryResult{Columns: []string{"a", "b"}, Rows: [][]any{{1, 2}}}
	if _, ok := multi.SingleValue(); ok {
		t.Error("SingleValue() ok for 1x2 result")
	}

	empty := &QueryResult{Columns: []string{"a"}}
	if _, ok := empty.SingleValue(); ok {
		t.Error("SingleValue() ok for empty result")
	}
	if !empty.Empty() {
		t.Error("Empty() = false for zero-row result")
	}
}

func TestQueryResultRender(t *testing.T) {
	r := &QueryResult{
		Columns: []string{"patient_id", "age"},
		Rows: [][]any{
			{"P001", int64(54)},
			{"P002", int64(61)},
		},
	}

	want := "patient_id, age\nP001, 54\nP002, 61\n"
	if got := r.Render(); got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}
