// Package app builds the summarization pipeline from configuration. Both the
// HTTP daemon and the batch CLI share it.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/discharge-summarizer/internal/common"
	"github.com/joseph-ayodele/discharge-summarizer/internal/export"
	"github.com/joseph-ayodele/discharge-summarizer/internal/extract"
	"github.com/joseph-ayodele/discharge-summarizer/internal/llm"
	"github.com/joseph-ayodele/discharge-summarizer/internal/llm/gemini"
	"github.com/joseph-ayodele/discharge-summarizer/internal/llm/openai"
	"github.com/joseph-ayodele/discharge-summarizer/internal/ocr"
	"github.com/joseph-ayodele/discharge-summarizer/internal/pipeline"
	"github.com/joseph-ayodele/discharge-summarizer/internal/repository"
)

// App holds the wired collaborators.
type App struct {
	Processor *pipeline.Processor
	Exporter  *export.Service
	Jobs      repository.ExtractJobRepository

	db     *repository.DB
	logger *slog.Logger
}

// Option overrides a collaborator normally built from config.
type Option func(*options)

type options struct {
	generator llm.TextGenerator
	runner    ocr.Runner
}

// WithGenerator replaces the configured LLM provider.
func WithGenerator(g llm.TextGenerator) Option {
	return func(o *options) { o.generator = g }
}

// WithRunner replaces the command runner used for tesseract, pdftotext and HEIC conversion.
func WithRunner(r ocr.Runner) Option {
	return func(o *options) { o.runner = r }
}

// New wires extraction, summarization, the optional job ledger and the exporter.
// Call Close when done.
func New(ctx context.Context, cfg *common.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var o options
	for _, fn := range opts {
		fn(&o)
	}

	ocrExtractor := ocr.NewExtractor(ocr.Config{
		Pdftotext:     cfg.PDF.Pdftotext,
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.TesseractLang,
		TessdataDir:   cfg.OCR.TessdataDir,
		PSM:           cfg.OCR.PSM,
		OEM:           cfg.OCR.OEM,
		Layout:        cfg.PDF.Layout,
		HeicConverter: cfg.OCR.HeicConverter,
	}, logger, ocr.WithRunner(o.runner))

	var pdf extract.PDFTextExtractor = ocrExtractor
	if cfg.PDF.Backend == common.BackendPdfcpu {
		pdf = ocr.NewPdfcpuExtractor(logger)
	}
	dispatcher := extract.NewDispatcher(pdf, ocrExtractor, ocrExtractor, logger)

	gen := o.generator
	if gen == nil {
		var err error
		if gen, err = newGenerator(cfg.LLM, logger); err != nil {
			return nil, err
		}
	}
	invoker := llm.NewInvoker(gen, cfg.LLM.Model, logger)

	policy, err := pipeline.PolicyByName(cfg.Result.Policy)
	if err != nil {
		return nil, common.NewAppError("CONFIG_ERROR", "result policy", err)
	}

	a := &App{Exporter: export.NewService(logger), Jobs: repository.NoopExtractJobs{}, logger: logger}
	if cfg.JobLog.DSN != "" {
		db, err := repository.Open(ctx, repository.Config{
			DSN:             cfg.JobLog.DSN,
			MaxConns:        4,
			MinConns:        1,
			MaxConnLifetime: 30 * time.Minute,
			MaxConnIdleTime: 5 * time.Minute,
			DialTimeout:     3 * time.Second,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("open job log: %w", err)
		}
		a.db = db
		a.Jobs = repository.NewExtractJobRepository(db, logger)
	}

	a.Processor = pipeline.NewProcessor(dispatcher, invoker, policy, a.Jobs, logger)
	logger.Info("app.wired",
		"provider", cfg.LLM.Provider,
		"model", cfg.LLM.Model,
		"pdf_backend", cfg.PDF.Backend,
		"policy", cfg.Result.Policy,
		"job_log", a.db != nil,
	)
	return a, nil
}

func newGenerator(cfg common.LLMConfig, logger *slog.Logger) (llm.TextGenerator, error) {
	switch cfg.Provider {
	case common.ProviderOpenAI:
		return openai.NewClient(openai.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}, logger), nil
	case common.ProviderGemini, "":
		c, err := gemini.NewClient(gemini.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		return c, nil
	default:
		return nil, common.NewAppError("CONFIG_ERROR", "unknown LLM provider "+cfg.Provider, common.ErrInvalidInput)
	}
}

// Close releases the job ledger connection, if any.
func (a *App) Close() {
	if a.db != nil {
		a.db.Close(a.logger)
	}
}
