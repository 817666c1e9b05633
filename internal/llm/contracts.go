package llm

import "context"

// TextGenerator is one call to a hosted generative model: prompt in, text out.
type TextGenerator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// Summarizer is Stage 2: extracted text -> summary artifact.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}
