package chat

import (
	"fmt"
	"strings"
)

// QueryResult holds the rows produced by executing a generated query.
// Column order and row order are significant.
type QueryResult struct {
	Columns []string
	Rows    [][]any
}

// Empty reports whether the query matched no rows. This is a normal
// outcome, not an error.
func (r *QueryResult) Empty() bool {
	return len(r.Rows) == 0
}

// SingleValue returns the sole cell of a one-row, one-column result.
// The second return is false for any other shape.
func (r *QueryResult) SingleValue() (any, bool) {
	if len(r.Rows) == 1 && len(r.Columns) == 1 {
		return r.Rows[0][0], true
	}
	return nil, false
}

// Render serializes the result for prompting: a comma-joined header line
// followed by one comma-joined line per row.
func (r *QueryResult) Render() string {
	var b strings.Builder
	b.WriteString(strings.Join(r.Columns, ", "))
	b.WriteString("\n")
	for _, row := range r.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = fmt.Sprintf("%v", v)
		}
		b.WriteString(strings.Join(cells, ", "))
		b.WriteString("\n")
	}
	return b.String()
}

// Candidate is the tagged outcome of query synthesis: either executable
// SQL text or the "no query applies" marker.
type Candidate struct {
	SQL       string
	NotAQuery bool
}
