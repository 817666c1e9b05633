package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/joseph-ayodele/discharge-summarizer/internal/common"
)

type fakeGenerator struct {
	out     string
	err     error
	models  []string
	prompts []string
}

func (f *fakeGenerator) Generate(_ context.Context, model, prompt string) (string, error) {
	f.models = append(f.models, model)
	f.prompts = append(f.prompts, prompt)
	return f.out, f.err
}

func TestBuildPrompt(t *testing.T) {
	got := BuildPrompt("Patient: John, 45, Male")
	if got != "Patient: John, 45, Male\n\n"+Instruction {
		t.Errorf("prompt = %q", got)
	}
	if BuildPrompt("") != "\n\n"+Instruction {
		t.Error("empty text must still produce separator + instruction")
	}
}

func TestInstructionNamesEveryColumn(t *testing.T) {
	for _, col := range SummaryColumns {
		if !strings.Contains(Instruction, col) {
			t.Errorf("instruction misses column %q", col)
		}
	}
	if !strings.Contains(Instruction, "<table>") {
		t.Error("instruction must ask for a <table>")
	}
}

func TestInvoker_ReturnsOutputUnmodified(t *testing.T) {
	gen := &fakeGenerator{out: "  <table><tr><td>John</td></tr></table>\n"}
	inv := NewInvoker(gen, "gemini-1.5-pro-latest", nil)

	got, err := inv.Summarize(context.Background(), "some text")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if got != gen.out {
		t.Errorf("got %q, want %q", got, gen.out)
	}
	if len(gen.models) != 1 || gen.models[0] != "gemini-1.5-pro-latest" {
		t.Errorf("models = %v", gen.models)
	}
	if gen.prompts[0] != BuildPrompt("some text") {
		t.Errorf("prompt = %q", gen.prompts[0])
	}
}

func TestInvoker_WrapsFailure(t *testing.T) {
	cause := errors.New("quota exceeded")
	inv := NewInvoker(&fakeGenerator{err: cause}, "m1", nil)

	_, err := inv.Summarize(context.Background(), "x")
	var se *common.SummarizationError
	if !errors.As(err, &se) {
		t.Fatalf("err = %T %v, want *common.SummarizationError", err, err)
	}
	if se.Model != "m1" || !errors.Is(err, cause) {
		t.Errorf("se = %+v", se)
	}
	if common.ErrorDetail(err) != "quota exceeded" {
		t.Errorf("detail = %q", common.ErrorDetail(err))
	}
}
