package extract

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/discharge-summarizer/constants"
	"github.com/joseph-ayodele/discharge-summarizer/internal/common"
)

const (
	MethodPDFText     = "pdf-text"
	MethodImageDecode = "image-decode"
	MethodImageOCR    = "image-ocr"
)

// Dispatcher picks an extraction strategy from the filename extension alone.
type Dispatcher struct {
	pdf     PDFTextExtractor
	decoder ImageDecoder
	ocr     OCREngine
	logger  *slog.Logger
}

func NewDispatcher(pdf PDFTextExtractor, decoder ImageDecoder, ocr OCREngine, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{pdf: pdf, decoder: decoder, ocr: ocr, logger: logger}
}

// Extract converts one uploaded file into plain text. Files whose name ends in
// ".pdf" (any case) go to the PDF text layer; everything else is decoded as an
// image and sent to OCR. Failures come back as *common.ExtractionError.
func (d *Dispatcher) Extract(ctx context.Context, f UploadedFile) (TextExtractionResult, error) {
	start := time.Now()
	format := constants.FormatOf(f.Filename)
	d.logger.Debug("extract.dispatch", "filename", f.Filename, "format", format, "bytes", len(f.Content), "hash", f.HashHex)

	var (
		res TextExtractionResult
		err error
	)
	if format == constants.PDF {
		res, err = d.extractPDF(ctx, f)
	} else {
		res, err = d.extractImage(ctx, f)
	}
	res.SourceType = format
	res.Duration = time.Since(start)
	if err != nil {
		d.logger.Error("extract.failed", "filename", f.Filename, "error", err, "elapsed_ms", res.Duration.Milliseconds())
		return res, err
	}

	d.logger.Info("extract.ok",
		"filename", f.Filename,
		"method", res.Method,
		"text_len", len(res.Text),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	d.logger.Debug("extract.text", "filename", f.Filename, "text", res.Text)
	return res, nil
}

func (d *Dispatcher) extractPDF(ctx context.Context, f UploadedFile) (TextExtractionResult, error) {
	res := TextExtractionResult{Method: MethodPDFText}
	txt, err := d.pdf.ExtractPDFText(ctx, f.Content)
	if err != nil {
		return res, &common.ExtractionError{Filename: f.Filename, Method: MethodPDFText, Cause: err}
	}
	res.Text = txt
	return res, nil
}

func (d *Dispatcher) extractImage(ctx context.Context, f UploadedFile) (TextExtractionResult, error) {
	res := TextExtractionResult{Method: MethodImageOCR}
	img, err := d.decoder.Decode(ctx, f.Filename, f.Content)
	if err != nil {
		return res, &common.ExtractionError{Filename: f.Filename, Method: MethodImageDecode, Cause: err}
	}
	txt, err := d.ocr.RecognizeImage(ctx, img)
	if err != nil {
		return res, &common.ExtractionError{Filename: f.Filename, Method: MethodImageOCR, Cause: err}
	}
	res.Text = txt
	return res, nil
}
