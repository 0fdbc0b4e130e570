package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"clinchat/internal/conventions"
	chatmodel "clinchat/internal/domain/models/chat"
	"clinchat/internal/llm"
)

// Synthesizer maps a user question, the current schema snapshot, and the
// conversation window to a SQL candidate via a single LLM call.
type Synthesizer struct {
	provider llm.Provider
	rules    string
	dialect  string
	logger   *slog.Logger
}

// NewSynthesizer creates a query synthesizer bound to one provider, one
// convention set, and one SQL dialect.
func NewSynthesizer(provider llm.Provider, conv *conventions.Registry, dialect string, logger *slog.Logger) *Synthesizer {
	return &Synthesizer{
		provider: provider,
		rules:    conv.RulesBlock(),
		dialect:  dialect,
		logger:   logger,
	}
}

// Synthesize builds the text-to-SQL prompt and invokes the LLM exactly
// once. The response is cleaned of formatting markers and classified as
// either executable SQL or the not-a-query sentinel. Malformed SQL after
// cleanup is passed through unchanged; the executor's failure is the
// error signal.
func (s *Synthesizer) Synthesize(ctx context.Context, schema string, history *chatmodel.History, question string) (chatmodel.Candidate, error) {
	prompt := SynthesizerPrompt{
		Dialect:  s.dialect,
		Schema:   schema,
		Rules:    s.rules,
		History:  history.Render(),
		Question: question,
	}

	raw, err := s.provider.GenerateText(ctx, prompt.Render())
	if err != nil {
		return chatmodel.Candidate{}, fmt.Errorf("generate SQL: %w", err)
	}

	text := CleanSQL(raw)
	if isSentinel(text) {
		s.logger.Debug("question classified as not-a-query", "question", question)
		return chatmodel.Candidate{NotAQuery: true}, nil
	}

	s.logger.Debug("sql generated", "sql", text)
	return chatmodel.Candidate{SQL: text}, nil
}

// CleanSQL strips the incidental formatting models wrap around SQL:
// surrounding whitespace, code fences, and a leading "sql" language tag.
// It is a best-effort cleanup, not a parser, and is idempotent.
func CleanSQL(raw string) string {
	text := strings.TrimSpace(raw)

	// Fenced block: ```sql ... ``` or ``` ... ```
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
		text = strings.TrimSpace(text)
	}

	// Leading language tag left over from a fence.
	if lower := strings.ToLower(text); strings.HasPrefix(lower, "sql\n") || strings.HasPrefix(lower, "sql ") {
		text = strings.TrimSpace(text[3:])
	}

	// Stray inline backticks.
	text = strings.ReplaceAll(text, "`", "")

	return strings.TrimSpace(text)
}

// isSentinel classifies a cleaned response by exact match on its first
// token, not substring containment, so SQL that merely mentions the
// token is not misclassified.
func isSentinel(text string) bool {
	fields := strings.Fields(text)
	return len(fields) > 0 && fields[0] == SentinelToken
}
