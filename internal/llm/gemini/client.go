package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/discharge-summarizer/internal/llm"
)

const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Config for the Gemini REST client.
type Config struct {
	APIKey      string
	BaseURL     string        // default DefaultBaseURL
	Temperature *float64      // nil leaves the model default
	Timeout     time.Duration // http client timeout; 0 = none
}

// Client calls models/{model}:generateContent. It implements llm.TextGenerator.
type Client struct {
	cfg      Config
	http     *http.Client
	envelope *jsonschema.Schema
	logger   *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	envelope, err := llm.CompileSchema(envelopeSchema)
	if err != nil {
		return nil, fmt.Errorf("gemini envelope schema: %w", err)
	}
	return &Client{
		cfg:      cfg,
		http:     &http.Client{Timeout: cfg.Timeout},
		envelope: envelope,
		logger:   logger,
	}, nil
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature *float64 `json:"temperature,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	Error *apiError `json:"error"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// envelopeSchema is the part of the response shape we rely on.
var envelopeSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"candidates": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"content": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"parts": map[string]any{
								"type": "array",
								"items": map[string]any{
									"type":       "object",
									"properties": map[string]any{"text": map[string]any{"type": "string"}},
								},
							},
						},
					},
				},
			},
		},
		"error": map[string]any{
			"type":     "object",
			"required": []any{"message"},
			"properties": map[string]any{
				"code":    map[string]any{"type": "integer"},
				"message": map[string]any{"type": "string"},
			},
		},
	},
	"anyOf": []any{
		map[string]any{"required": []any{"candidates"}},
		map[string]any{"required": []any{"error"}},
		map[string]any{"required": []any{"promptFeedback"}},
	},
}

// Generate sends prompt as a single user turn and returns the text parts of
// the first candidate concatenated.
func (c *Client) Generate(ctx context.Context, model, prompt string) (string, error) {
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/models/" + url.PathEscape(model) + ":generateContent"

	body := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	}
	if c.cfg.Temperature != nil {
		body.GenerationConfig = &generationConfig{Temperature: c.cfg.Temperature}
	}
	headers := map[string]string{"x-goog-api-key": c.cfg.APIKey}

	raw, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.logger)
	if err != nil {
		var se *llm.StatusError
		if errors.As(err, &se) {
			if apiErr := decodeError(se.Body); apiErr != nil {
				return "", fmt.Errorf("gemini error [%d %s]: %s", apiErr.Code, apiErr.Status, apiErr.Message)
			}
		}
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	if err := llm.ValidateJSON(c.envelope, raw); err != nil {
		c.logger.Error("llm.gemini.bad_envelope", "error", err, "raw_bytes", len(raw))
		return "", fmt.Errorf("decode gemini response: %w", err)
	}
	var resp generateResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("decode gemini response: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("gemini error [%d %s]: %s", resp.Error.Code, resp.Error.Status, resp.Error.Message)
	}
	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("gemini blocked the prompt: %s", resp.PromptFeedback.BlockReason)
		}
		return "", errors.New("no candidates in gemini response")
	}

	first := resp.Candidates[0]
	var b strings.Builder
	for _, p := range first.Content.Parts {
		b.WriteString(p.Text)
	}
	if len(first.Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no text (finishReason=%s)", first.FinishReason)
	}
	return b.String(), nil
}

func decodeError(raw []byte) *apiError {
	var env struct {
		Error *apiError `json:"error"`
	}
	if err := json.Unmarshal(raw, &env); err != nil || env.Error == nil || env.Error.Message == "" {
		return nil
	}
	return env.Error
}
