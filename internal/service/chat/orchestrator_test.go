package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	chatmodel "clinchat/internal/domain/models/chat"
	"clinchat/internal/llm"
	"clinchat/internal/repository/clinicaldb"
)

// fakeDatabase scripts snapshot and execution outcomes and records every
// executed statement.
type fakeDatabase struct {
	schema    string
	schemaErr error
	result    *chatmodel.QueryResult
	execErr   error
	panicOn   bool
	executed  []string
}

func (f *fakeDatabase) Snapshot(ctx context.Context) (string, error) {
	return f.schema, f.schemaErr
}

func (f *fakeDatabase) Execute(ctx context.Context, query string) (*chatmodel.QueryResult, error) {
	f.executed = append(f.executed, query)
	if f.panicOn {
		panic("executor blew up")
	}
	if f.execErr != nil {
		return nil, f.execErr
	}
	return f.result, nil
}

func newTestOrchestrator(t *testing.T, db Database, provider *fakeProvider, conversational bool) *Orchestrator {
	t.Helper()
	logger := testLogger()
	synthesizer := NewSynthesizer(provider, testConventions(t), "SQLite", logger)
	composer := NewComposer(provider, logger)
	return NewOrchestrator(db, synthesizer, composer, provider, conversational, logger)
}

func TestAnswerEndToEndCountQuery(t *testing.T) {
	db := &fakeDatabase{
		schema: "CREATE TABLE Demography (patient_id TEXT, age INTEGER)\nCREATE TABLE AdverseEvents (patient_id TEXT, event TEXT)",
		result: &chatmodel.QueryResult{Columns: []string{"COUNT(*)"}, Rows: [][]any{{int64(6)}}},
	}
	provider := &fakeProvider{responses: []string{"SELECT COUNT(*) FROM Demography"}}
	o := newTestOrchestrator(t, db, provider, false)
	history := chatmodel.NewHistory(5)

	reply := o.Answer(context.Background(), history, "how many patients are there?")

	if reply.Text != "The answer is: 6" {
		t.Errorf("reply = %q, want literal count", reply.Text)
	}
	if reply.SQL != "SELECT COUNT(*) FROM Demography" {
		t.Errorf("reply.SQL = %q", reply.SQL)
	}
	// Fast path: only the synthesis call reaches the provider.
	if provider.calls() != 1 {
		t.Errorf("provider called %d times, want 1", provider.calls())
	}
	if history.Len() != 2 {
		t.Errorf("history has %d entries after one turn, want 2", history.Len())
	}
}

func TestAnswerSentinelFixedReply(t *testing.T) {
	db := &fakeDatabase{schema: "CREATE TABLE Demography (patient_id TEXT)"}
	provider := &fakeProvider{responses: []string{"NOT_A_QUERY"}}
	o := newTestOrchestrator(t, db, provider, false)

	reply := o.Answer(context.Background(), chatmodel.NewHistory(5), "hello, how are you?")

	if reply.Text != replyNotAQuery {
		t.Errorf("reply = %q, want fixed refusal", reply.Text)
	}
	if reply.SQL != "" {
		t.Errorf("reply.SQL = %q, want empty", reply.SQL)
	}
	if len(db.executed) != 0 {
		t.Errorf("executor called %d times for sentinel, want 0", len(db.executed))
	}
}

func TestAnswerSentinelConversationalFallback(t *testing.T) {
	db := &fakeDatabase{schema: "CREATE TABLE Demography (patient_id TEXT)"}
	provider := &fakeProvider{responses: []string{"NOT_A_QUERY", "Hello! How can I help with the clinical data?"}}
	o := newTestOrchestrator(t, db, provider, true)

	reply := o.Answer(context.Background(), chatmodel.NewHistory(5), "hello!")

	if reply.Text != "Hello! How can I help with the clinical data?" {
		t.Errorf("reply = %q, want conversational response", reply.Text)
	}
	if len(db.executed) != 0 {
		t.Errorf("executor called %d times for sentinel, want 0", len(db.executed))
	}
	if provider.calls() != 2 {
		t.Errorf("provider called %d times, want 2 (synthesis + fallback)", provider.calls())
	}
	if !strings.Contains(provider.prompts[1], "The user said: 'hello!'") {
		t.Errorf("fallback prompt = %q", provider.prompts[1])
	}
}

func TestAnswerExecutionFailureEmbedsErrorAndSQL(t *testing.T) {
	faultySQL := "SELECT * FROM Nonexistent"
	db := &fakeDatabase{
		schema:  "CREATE TABLE Demography (patient_id TEXT)",
		execErr: &clinicaldb.ExecutionError{Query: faultySQL, Err: errors.New("no such table: Nonexistent")},
	}
	provider := &fakeProvider{responses: []string{faultySQL}}
	o := newTestOrchestrator(t, db, provider, false)
	history := chatmodel.NewHistory(5)

	reply := o.Answer(context.Background(), history, "list the nonexistents")

	if !strings.Contains(reply.Text, "no such table: Nonexistent") {
		t.Errorf("reply missing database error text: %q", reply.Text)
	}
	if !strings.Contains(reply.Text, faultySQL) {
		t.Errorf("reply missing faulty SQL: %q", reply.Text)
	}
	if history.Len() != 2 {
		t.Errorf("failed turn not recorded in history (len %d)", history.Len())
	}
}

func TestAnswerEmptyResultFixedReply(t *testing.T) {
	db := &fakeDatabase{
		schema: "CREATE TABLE Demography (patient_id TEXT)",
		result: &chatmodel.QueryResult{Columns: []string{"patient_id"}},
	}
	provider := &fakeProvider{responses: []string{"SELECT patient_id FROM Demography WHERE age > 200"}}
	o := newTestOrchestrator(t, db, provider, false)

	reply := o.Answer(context.Background(), chatmodel.NewHistory(5), "patients older than 200?")

	if reply.Text != replyNoResults {
		t.Errorf("reply = %q, want fixed no-results message", reply.Text)
	}
	// No second LLM call for empty results.
	if provider.calls() != 1 {
		t.Errorf("provider called %d times, want 1", provider.calls())
	}
}

func TestAnswerSchemaFailureIsTurnScoped(t *testing.T) {
	db := &fakeDatabase{schemaErr: errors.New("database is locked")}
	provider := &fakeProvider{}
	o := newTestOrchestrator(t, db, provider, false)
	history := chatmodel.NewHistory(5)

	reply := o.Answer(context.Background(), history, "how many patients?")

	if !strings.Contains(reply.Text, "database is locked") {
		t.Errorf("reply = %q, want embedded error", reply.Text)
	}
	if provider.calls() != 0 {
		t.Errorf("provider called %d times after schema failure, want 0", provider.calls())
	}

	// The session keeps going: the next turn works once the failure clears.
	db.schemaErr = nil
	db.schema = "CREATE TABLE Demography (patient_id TEXT)"
	db.result = &chatmodel.QueryResult{Columns: []string{"n"}, Rows: [][]any{{int64(1)}}}
	provider.responses = []string{"SELECT COUNT(*) FROM Demography"}

	reply = o.Answer(context.Background(), history, "how many patients?")
	if reply.Text != "The answer is: 1" {
		t.Errorf("followup reply = %q", reply.Text)
	}
}

func TestAnswerModelNotFoundMessage(t *testing.T) {
	db := &fakeDatabase{schema: "CREATE TABLE Demography (patient_id TEXT)"}
	provider := &fakeProvider{err: fmt.Errorf("%w: claude-nonexistent", llm.ErrModelNotFound)}
	o := newTestOrchestrator(t, db, provider, false)

	reply := o.Answer(context.Background(), chatmodel.NewHistory(5), "how many patients?")

	if !strings.Contains(reply.Text, "Please check the model name") {
		t.Errorf("reply = %q, want model configuration guidance", reply.Text)
	}
	if !strings.Contains(reply.Text, "claude-nonexistent") {
		t.Errorf("reply = %q, want offending model name", reply.Text)
	}
}

func TestAnswerRecoversFromPanic(t *testing.T) {
	db := &fakeDatabase{
		schema:  "CREATE TABLE Demography (patient_id TEXT)",
		panicOn: true,
	}
	provider := &fakeProvider{responses: []string{"SELECT 1"}}
	o := newTestOrchestrator(t, db, provider, false)
	history := chatmodel.NewHistory(5)

	reply := o.Answer(context.Background(), history, "how many?")

	if !strings.Contains(reply.Text, "An unexpected error occurred") {
		t.Errorf("reply = %q, want generic failure message", reply.Text)
	}
	if history.Len() != 2 {
		t.Errorf("panicked turn not recorded in history (len %d)", history.Len())
	}
}

func TestAnswerHistoryWindowHolds(t *testing.T) {
	db := &fakeDatabase{
		schema: "CREATE TABLE Demography (patient_id TEXT)",
		result: &chatmodel.QueryResult{Columns: []string{"n"}, Rows: [][]any{{int64(1)}}},
	}
	provider := &fakeProvider{}
	o := newTestOrchestrator(t, db, provider, false)
	history := chatmodel.NewHistory(2)

	for i := 0; i < 7; i++ {
		provider.responses = append(provider.responses, "SELECT COUNT(*) FROM Demography")
	}

	for i := 0; i < 7; i++ {
		o.Answer(context.Background(), history, fmt.Sprintf("question %d", i))
		if history.Len() > 4 {
			t.Fatalf("history grew to %d entries after turn %d, want <= 4", history.Len(), i)
		}
	}
}
