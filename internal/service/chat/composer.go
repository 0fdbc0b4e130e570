package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	chatmodel "clinchat/internal/domain/models/chat"
	"clinchat/internal/llm"
)

// Composer turns query results back into conversational text.
type Composer struct {
	provider llm.Provider
	logger   *slog.Logger
}

// NewComposer creates a response composer.
func NewComposer(provider llm.Provider, logger *slog.Logger) *Composer {
	return &Composer{provider: provider, logger: logger}
}

// Compose maps {question, history, result} to a natural-language answer.
// A one-row, one-column result short-circuits to a templated sentence
// with no LLM call; this covers the common "how many" case and must stay
// cheap. The caller handles empty results before reaching here.
func (c *Composer) Compose(ctx context.Context, question string, history *chatmodel.History, result *chatmodel.QueryResult) (string, error) {
	if v, ok := result.SingleValue(); ok {
		return fmt.Sprintf("The answer is: %v", v), nil
	}

	prompt := ComposerPrompt{
		History:  history.Render(),
		Question: question,
		Data:     result.Render(),
	}

	text, err := c.provider.GenerateText(ctx, prompt.Render())
	if err != nil {
		return "", fmt.Errorf("compose response: %w", err)
	}

	return strings.TrimSpace(text), nil
}
