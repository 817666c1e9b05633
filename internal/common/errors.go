package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
)

// NewAppError builds an AppError.
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// ExtractionError means OCR or PDF text-layer extraction failed for one file.
type ExtractionError struct {
	Filename string
	Method   string // "pdf-text" | "image-decode" | "image-ocr"
	Cause    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s (%s): %v", e.Filename, e.Method, e.Cause)
}

func (e *ExtractionError) Unwrap() error { return e.Cause }

// Detail is the cause text surfaced to callers.
func (e *ExtractionError) Detail() string { return detailOf(e.Cause) }

// SummarizationError means the generative-text call failed.
type SummarizationError struct {
	Model string
	Cause error
}

func (e *SummarizationError) Error() string {
	return fmt.Sprintf("summarize with %s: %v", e.Model, e.Cause)
}

func (e *SummarizationError) Unwrap() error { return e.Cause }

// Detail is the cause text surfaced to callers.
func (e *SummarizationError) Detail() string { return detailOf(e.Cause) }

// Detailer is implemented by errors that carry a caller-facing cause text.
type Detailer interface {
	Detail() string
}

// ErrorDetail returns the most specific caller-facing text for err:
// the Detail of the first Detailer in the chain, else err.Error().
func ErrorDetail(err error) string {
	if err == nil {
		return ""
	}
	var d Detailer
	if errors.As(err, &d) {
		return d.Detail()
	}
	return err.Error()
}

func detailOf(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
