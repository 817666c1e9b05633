package app

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joseph-ayodele/discharge-summarizer/internal/common"
	"github.com/joseph-ayodele/discharge-summarizer/internal/extract"
	"github.com/joseph-ayodele/discharge-summarizer/internal/llm"
)

type scriptedRunner struct {
	out   map[string]string
	calls []string
}

func (r *scriptedRunner) Run(_ context.Context, name string, _ ...string) ([]byte, []byte, error) {
	r.calls = append(r.calls, name)
	if out, ok := r.out[name]; ok {
		return []byte(out), nil, nil
	}
	return nil, []byte("not found"), errors.New("exit status 127")
}

type echoGenerator struct{ prompts []string }

func (g *echoGenerator) Generate(_ context.Context, _ string, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	text, _, _ := strings.Cut(prompt, "\n\n")
	return "<table><tr><td>" + text + "</td></tr></table>", nil
}

func testConfig(t *testing.T) *common.Config {
	t.Helper()
	return &common.Config{
		OCR:    common.OCRConfig{Tesseract: "tesseract", TesseractLang: "eng"},
		PDF:    common.PDFConfig{Backend: common.BackendPdftotext, Pdftotext: "pdftotext"},
		LLM:    common.LLMConfig{Provider: common.ProviderGemini, Model: "test-model", APIKey: "k"},
		Result: common.ResultConfig{Policy: common.PolicyLast},
	}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestNew_RunsBatchThroughWiredStages(t *testing.T) {
	runner := &scriptedRunner{out: map[string]string{"pdftotext": "from pdf", "tesseract": "from scan"}}
	gen := &echoGenerator{}
	a, err := New(context.Background(), testConfig(t), nil, WithRunner(runner), WithGenerator(gen))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	res, err := a.Processor.ProcessBatch(context.Background(), []extract.UploadedFile{
		extract.NewUploadedFile("report.PDF", []byte("%PDF-1.4")),
		extract.NewUploadedFile("scan.png", pngBytes(t)),
	})
	if err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}
	if got := string(res.Selected); got != "<table><tr><td>from scan</td></tr></table>" {
		t.Errorf("selected = %q", got)
	}
	if strings.Join(runner.calls, ",") != "pdftotext,tesseract" {
		t.Errorf("runner calls = %v", runner.calls)
	}
	if len(gen.prompts) != 2 || gen.prompts[0] != llm.BuildPrompt("from pdf") {
		t.Errorf("prompts = %q", gen.prompts)
	}
}

func TestNew_JobLogAndPolicy(t *testing.T) {
	cfg := testConfig(t)
	cfg.Result.Policy = common.PolicyAll
	cfg.JobLog.DSN = filepath.Join(t.TempDir(), "jobs.db")

	runner := &scriptedRunner{out: map[string]string{"pdftotext": "a"}}
	a, err := New(context.Background(), cfg, nil, WithRunner(runner), WithGenerator(&echoGenerator{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	res, err := a.Processor.ProcessBatch(context.Background(), []extract.UploadedFile{
		extract.NewUploadedFile("one.pdf", []byte("x")),
		extract.NewUploadedFile("two.pdf", []byte("y")),
	})
	if err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}
	if strings.Count(string(res.Selected), "<table>") != 2 {
		t.Errorf("all policy selected = %q", res.Selected)
	}
	jobs, err := a.Jobs.ListByBatch(context.Background(), res.BatchID)
	if err != nil {
		t.Fatalf("ListByBatch: %v", err)
	}
	if len(jobs) != 2 {
		t.Errorf("jobs = %d, want 2", len(jobs))
	}
}

func TestNew_RejectsUnknownPolicy(t *testing.T) {
	cfg := testConfig(t)
	cfg.Result.Policy = "first"
	if _, err := New(context.Background(), cfg, nil, WithGenerator(&echoGenerator{})); err == nil {
		t.Fatal("expected error for unknown policy")
	}
}

func TestNewGenerator_Providers(t *testing.T) {
	for _, p := range []string{common.ProviderGemini, common.ProviderOpenAI} {
		g, err := newGenerator(common.LLMConfig{Provider: p, APIKey: "k"}, nil)
		if err != nil || g == nil {
			t.Errorf("%s: gen=%v err=%v", p, g, err)
		}
	}
	if _, err := newGenerator(common.LLMConfig{Provider: "claude"}, nil); err == nil {
		t.Error("expected error for unknown provider")
	}
}
