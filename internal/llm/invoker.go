package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/discharge-summarizer/internal/common"
)

// Invoker sends extracted text to a TextGenerator under a fixed model id.
type Invoker struct {
	gen    TextGenerator
	model  string
	logger *slog.Logger
}

func NewInvoker(gen TextGenerator, model string, logger *slog.Logger) *Invoker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Invoker{gen: gen, model: model, logger: logger}
}

// Model is the model id every call is sent with.
func (i *Invoker) Model() string { return i.model }

// Summarize returns the model output for text unmodified. Any failure is
// returned as *common.SummarizationError; there is no retry.
func (i *Invoker) Summarize(ctx context.Context, text string) (string, error) {
	start := time.Now()
	prompt := BuildPrompt(text)

	i.logger.Debug("llm.summarize.start", "model", i.model, "prompt_len", len(prompt))
	out, err := i.gen.Generate(ctx, i.model, prompt)
	if err != nil {
		i.logger.Error("llm.summarize.failed",
			"model", i.model,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", &common.SummarizationError{Model: i.model, Cause: err}
	}

	i.logger.Info("llm.summarize.ok",
		"model", i.model,
		"response_len", len(out),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	i.logger.Debug("llm.summarize.response", "model", i.model, "text", out)
	return out, nil
}
