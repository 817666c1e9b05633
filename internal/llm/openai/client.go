package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Config for the OpenAI chat-completions client.
type Config struct {
	APIKey      string
	BaseURL     string        // empty uses the SDK default
	Temperature *float64      // nil leaves the model default
	Timeout     time.Duration // per request; 0 = none
}

// Client implements llm.TextGenerator on top of the official SDK.
type Client struct {
	cfg    Config
	client openai.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0), // a failed call fails the file
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	return &Client{cfg: cfg, client: openai.NewClient(opts...), logger: logger}
}

// Generate sends prompt as a single user message and returns the first choice.
func (c *Client) Generate(ctx context.Context, model, prompt string) (string, error) {
	start := time.Now()
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}
	if c.cfg.Temperature != nil {
		params.Temperature = openai.Float(*c.cfg.Temperature)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		c.logger.Error("llm.openai.error", "model", model, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			msg := strings.TrimSpace(apiErr.Message)
			if msg == "" {
				msg = apiErr.Error()
			}
			return "", fmt.Errorf("openai error [%d]: %s", apiErr.StatusCode, msg)
		}
		return "", fmt.Errorf("openai request failed: %w", err)
	}

	c.logger.Info("llm.openai.response",
		"model", model,
		"choices", len(resp.Choices),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in openai response")
	}
	return resp.Choices[0].Message.Content, nil
}
