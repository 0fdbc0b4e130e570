package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"

	chatmodel "clinchat/internal/domain/models/chat"
	"clinchat/internal/llm"
	"clinchat/internal/repository/clinicaldb"
)

// Reply strings surfaced to the user. The wording is part of the product
// surface; tests assert on these exact messages.
const (
	replyNotAQuery       = "I can only answer questions related to the clinical database. Please ask me about patients or adverse events."
	replyNoResults       = "I found no results for your query."
	replyExecutionFailed = "I couldn't run the query. The database returned an error: %v\nFaulty SQL was: %s"
	replyModelNotFound   = "Sorry, it seems the AI model I'm trying to use is not available. Please check the model name. Details: %v"
	replyUnexpected      = "An unexpected error occurred: %v"
)

// Database is the surface the pipeline needs from the clinical store.
// Implemented by *clinicaldb.DB.
type Database interface {
	// Snapshot serializes the current table definitions for prompting.
	Snapshot(ctx context.Context) (string, error)

	// Execute runs a generated query and captures columns and rows.
	Execute(ctx context.Context, query string) (*chatmodel.QueryResult, error)
}

// Reply is the resolved outcome of one turn. SQL carries the generated
// statement when a query ran (or failed), for diagnostic display.
type Reply struct {
	Text string `json:"reply"`
	SQL  string `json:"sql,omitempty"`
}

// Orchestrator wires the pipeline per turn: schema snapshot, query
// synthesis, execution, response composition, and the history window
// update. Every recoverable failure resolves into a reply string; no
// error escapes a turn.
type Orchestrator struct {
	db             Database
	synthesizer    *Synthesizer
	composer       *Composer
	provider       llm.Provider
	conversational bool
	logger         *slog.Logger
}

// NewOrchestrator creates a turn orchestrator. With conversational set,
// not-a-query questions are routed to a plain LLM call (web variant)
// instead of the fixed refusal (interactive variant).
func NewOrchestrator(db Database, synthesizer *Synthesizer, composer *Composer, provider llm.Provider, conversational bool, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		db:             db,
		synthesizer:    synthesizer,
		composer:       composer,
		provider:       provider,
		conversational: conversational,
		logger:         logger,
	}
}

// Answer processes one question end to end and appends the completed
// exchange to the history window. It never returns an error: failures
// become user-facing reply text and the session continues.
func (o *Orchestrator) Answer(ctx context.Context, history *chatmodel.History, question string) Reply {
	text, sqlText := o.resolve(ctx, history, question)
	history.Append(question, text)
	return Reply{Text: text, SQL: sqlText}
}

func (o *Orchestrator) resolve(ctx context.Context, history *chatmodel.History, question string) (text, sqlText string) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("panic during turn",
				"panic", r,
				"stack", string(debug.Stack()),
			)
			text = fmt.Sprintf(replyUnexpected, r)
			sqlText = ""
		}
	}()

	schema, err := o.db.Snapshot(ctx)
	if err != nil {
		o.logger.Error("schema snapshot failed", "error", err)
		return o.failureReply(err), ""
	}

	candidate, err := o.synthesizer.Synthesize(ctx, schema, history, question)
	if err != nil {
		o.logger.Error("query synthesis failed", "error", err)
		return o.failureReply(err), ""
	}

	if candidate.NotAQuery {
		return o.sentinelReply(ctx, question), ""
	}

	result, err := o.db.Execute(ctx, candidate.SQL)
	if err != nil {
		var execErr *clinicaldb.ExecutionError
		if errors.As(err, &execErr) {
			o.logger.Warn("query execution failed", "sql", execErr.Query, "error", execErr.Err)
			return fmt.Sprintf(replyExecutionFailed, execErr.Err, execErr.Query), candidate.SQL
		}
		return o.failureReply(err), candidate.SQL
	}

	if result.Empty() {
		return replyNoResults, candidate.SQL
	}

	answer, err := o.composer.Compose(ctx, question, history, result)
	if err != nil {
		o.logger.Error("response composition failed", "error", err)
		return o.failureReply(err), candidate.SQL
	}

	return answer, candidate.SQL
}

// sentinelReply resolves a not-a-query turn: a single conversational LLM
// call in the web variant, the fixed refusal otherwise.
func (o *Orchestrator) sentinelReply(ctx context.Context, question string) string {
	if !o.conversational {
		return replyNotAQuery
	}

	reply, err := o.provider.GenerateText(ctx, ConversationalPrompt{Message: question}.Render())
	if err != nil {
		o.logger.Error("conversational fallback failed", "error", err)
		return o.failureReply(err)
	}
	return strings.TrimSpace(reply)
}

func (o *Orchestrator) failureReply(err error) string {
	if errors.Is(err, llm.ErrModelNotFound) {
		return fmt.Sprintf(replyModelNotFound, err)
	}
	return fmt.Sprintf(replyUnexpected, err)
}
