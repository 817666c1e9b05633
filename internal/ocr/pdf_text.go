package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// ExtractPDFText returns the PDF's text layer as printed by pdftotext.
// Scanned PDFs without a text layer yield an empty string, not an error.
func (e *Extractor) ExtractPDFText(ctx context.Context, content []byte) (string, error) {
	dir, cleanup, err := e.scratchDir("ds-pdf-*")
	if err != nil {
		return "", err
	}
	defer cleanup()

	path := filepath.Join(dir, "input.pdf")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return "", fmt.Errorf("stage pdf for pdftotext: %w", err)
	}

	// pdftotext [-layout] -enc UTF-8 -eol unix <path> -
	args := []string{"-enc", "UTF-8", "-eol", "unix", path, "-"}
	if e.cfg.Layout {
		args = append([]string{"-layout"}, args...)
	}
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, args...)
	if err != nil {
		if msg := firstLine(errb); msg != "" {
			return "", fmt.Errorf("pdftotext: %w: %s", err, msg)
		}
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}

func firstLine(b []byte) string {
	b = bytes.TrimSpace(b)
	if i := bytes.IndexByte(b, '\n'); i >= 0 {
		b = b[:i]
	}
	return truncate(string(b), 512)
}
