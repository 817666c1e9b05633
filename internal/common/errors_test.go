package common

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorDetail(t *testing.T) {
	cause := errors.New("tesseract: exit status 1")
	ext := &ExtractionError{Filename: "scan.png", Method: "image-ocr", Cause: cause}
	wrapped := fmt.Errorf("file 2: %w", ext)

	if got := ErrorDetail(wrapped); got != cause.Error() {
		t.Errorf("ErrorDetail = %q, want %q", got, cause.Error())
	}
	if !errors.Is(wrapped, cause) {
		t.Error("cause should be reachable through the chain")
	}

	sum := &SummarizationError{Model: "m", Cause: errors.New("quota exceeded")}
	if got := ErrorDetail(sum); got != "quota exceeded" {
		t.Errorf("ErrorDetail = %q", got)
	}
	if got := ErrorDetail(errors.New("plain")); got != "plain" {
		t.Errorf("ErrorDetail = %q", got)
	}
	if got := ErrorDetail(nil); got != "" {
		t.Errorf("ErrorDetail(nil) = %q", got)
	}
}
