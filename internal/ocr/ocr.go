package ocr

import (
	"log/slog"
	"os"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	TessdataDir   string

	PSM int // e.g., 6 is good for uniform block of text
	OEM int // 1 = LSTM; leave 0 to use default

	Layout        bool   // pass -layout to pdftotext
	HeicConverter string // "heif-convert" | "magick" | "sips"; empty disables HEIC
	TempDir       string // scratch space for tool inputs; empty -> os.TempDir()
}

// Extractor drives the external OCR and PDF tools. It satisfies
// extract.PDFTextExtractor, extract.ImageDecoder and extract.OCREngine.
type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

type Option func(*Extractor)

// WithRunner swaps the command runner, mainly for tests.
func WithRunner(r Runner) Option {
	return func(e *Extractor) {
		if r != nil {
			e.runner = r
		}
	}
}

func NewExtractor(cfg Config, logger *slog.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	e := &Extractor{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
	for _, o := range opts {
		if o != nil {
			o(e)
		}
	}
	return e
}

// scratchDir creates a private temp dir and returns it with its cleanup.
func (e *Extractor) scratchDir(pattern string) (string, func(), error) {
	dir, err := os.MkdirTemp(e.cfg.TempDir, pattern)
	if err != nil {
		return "", nil, err
	}
	return dir, func() {
		if err := os.RemoveAll(dir); err != nil {
			e.logger.Warn("failed to remove temp dir", "dir", dir, "error", err)
		}
	}, nil
}
