// Package llm talks to a hosted chat-completion model through the
// OpenAI-compatible API that Groq, OpenAI and most local servers expose.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"askdoc/internal/domain"
)

const (
	// DefaultBaseURL is Groq's OpenAI-compatible endpoint.
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	// DefaultModel is the Groq model the assistant is tuned for.
	DefaultModel = "llama-3.1-8b-instant"
	// DefaultTemperature favours factual, repeatable answers.
	DefaultTemperature = 0.3
)

// Config configures the chat completion client.
type Config struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// Client implements domain.LanguageModel.
type Client struct {
	client    *goopenai.Client
	model     string
	maxTokens int
	log       *zap.Logger
}

// NewClient creates a client. A missing API key is rejected up front so
// that a misconfigured assistant fails before it retrieves anything.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: llm api key is empty", domain.ErrInvalidArgument)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	oc := goopenai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = cfg.BaseURL
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return &Client{
		client:    goopenai.NewClientWithConfig(oc),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		log:       logger.Named("llm"),
	}, nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string { return c.model }

// Generate sends prompt as a single user message. It never returns an empty
// answer with a nil error: failures and blank completions are ErrGenerationFailed.
func (c *Client) Generate(ctx context.Context, prompt string, temperature float64) (domain.Answer, error) {
	if strings.TrimSpace(prompt) == "" {
		return domain.Answer{}, fmt.Errorf("%w: prompt is blank", domain.ErrEmptyInput)
	}
	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: float32(temperature),
		MaxTokens:   c.maxTokens,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		c.log.Error("chat completion failed", zap.String("model", c.model), zap.Error(err))
		return domain.Answer{}, fmt.Errorf("%w: model %s: %w", domain.ErrGenerationFailed, c.model, err)
	}
	if len(resp.Choices) == 0 {
		return domain.Answer{}, fmt.Errorf("%w: model %s returned no choices", domain.ErrGenerationFailed, c.model)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return domain.Answer{}, fmt.Errorf("%w: model %s returned empty content (finish_reason=%s)",
			domain.ErrGenerationFailed, c.model, resp.Choices[0].FinishReason)
	}
	c.log.Debug("chat completion",
		zap.String("model", c.model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("took", time.Since(start)))
	return domain.Answer{Text: text}, nil
}
