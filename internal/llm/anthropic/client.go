package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"clinchat/internal/llm"
)

// maxResponseTokens bounds every completion. SQL statements and
// conversational answers are short; this is well above both.
const maxResponseTokens = 1024

// Provider implements the llm.Provider interface for Anthropic (Claude)
// models.
type Provider struct {
	client *anthropic.Client
	model  string
}

// NewProvider creates a new Anthropic provider with the given API key and
// model identifier.
func NewProvider(apiKey, model string) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model identifier is required")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	return &Provider{
		client: &client,
		model:  model,
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "anthropic"
}

// GenerateText sends the prompt as a single user message and returns the
// concatenated text blocks of the response.
func (p *Provider) GenerateText(ctx context.Context, prompt string) (string, error) {
	message, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: maxResponseTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", p.classifyError(err)
	}

	var b strings.Builder
	for _, content := range message.Content {
		if content.Type == "text" {
			b.WriteString(content.Text)
		}
	}
	return b.String(), nil
}

// classifyError maps provider failures onto the pipeline's error
// taxonomy. A 404 means the configured model identifier is wrong or
// retired, which needs a distinct, actionable message upstream.
func (p *Provider) classifyError(err error) error {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) && apierr.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", llm.ErrModelNotFound, p.model)
	}
	return fmt.Errorf("anthropic API call failed: %w", err)
}
