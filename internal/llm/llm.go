package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"job-applier-go/internal/config"
	"job-applier-go/internal/fields"
)

// Prompt is a role-tagged developer/user message pair
type Prompt struct {
	Developer string
	User      string
}

// Render fills the {placeholders} of a configured prompt pair
func Render(p config.PromptConfig, m fields.Map) Prompt {
	return Prompt{
		Developer: fields.Substitute(p.DeveloperContent, m),
		User:      fields.Substitute(p.UserContent, m),
	}
}

// Generator produces text for a prompt. A nil result with a nil error
// means the service returned no choices.
type Generator interface {
	Generate(ctx context.Context, prompt Prompt) (*string, error)
}

// Client generates text through a langchaingo model
type Client struct {
	model   llms.Model
	timeout time.Duration
}

// NewClient creates an OpenAI backed client
func NewClient(cfg config.OpenAIConfig) (*Client, error) {
	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Version),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}
	return NewWithModel(model, cfg.Timeout), nil
}

// NewWithModel wraps an existing model
func NewWithModel(model llms.Model, timeout time.Duration) *Client {
	return &Client{model: model, timeout: timeout}
}

// Generate sends the prompt pair and returns the content of the first choice
func (c *Client) Generate(ctx context.Context, prompt Prompt) (*string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, prompt.Developer),
		llms.TextParts(schema.ChatMessageTypeHuman, prompt.User),
	}

	start := time.Now()
	resp, err := c.model.GenerateContent(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	logrus.WithField("duration", time.Since(start).String()).Debug("Content generated")

	if resp == nil || len(resp.Choices) == 0 {
		return nil, nil
	}
	content := resp.Choices[0].Content
	return &content, nil
}
