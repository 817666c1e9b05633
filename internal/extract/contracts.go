package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"image"
	"time"
)

// UploadedFile is one file of an upload batch. It is owned by the request that
// received it and is never persisted.
type UploadedFile struct {
	Filename string // only used to classify by extension
	Content  []byte
	HashHex  string // sha256 of Content, for log and ledger correlation
}

// NewUploadedFile wraps content and computes its content hash.
func NewUploadedFile(filename string, content []byte) UploadedFile {
	sum := sha256.Sum256(content)
	return UploadedFile{
		Filename: filename,
		Content:  content,
		HashHex:  hex.EncodeToString(sum[:]),
	}
}

// TextExtractor is Stage 1: file -> text.
type TextExtractor interface {
	Extract(ctx context.Context, f UploadedFile) (TextExtractionResult, error)
}

type TextExtractionResult struct {
	Text       string
	SourceType string // constants.PDF | constants.IMAGE
	Method     string // "pdf-text" | "image-ocr"
	Duration   time.Duration
}

// PDFTextExtractor recovers the text layer of a PDF. An empty string is a valid
// result for PDFs without a text layer.
type PDFTextExtractor interface {
	ExtractPDFText(ctx context.Context, content []byte) (string, error)
}

// ImageDecoder turns uploaded bytes into a raster image.
type ImageDecoder interface {
	Decode(ctx context.Context, filename string, content []byte) (image.Image, error)
}

// OCREngine reads text out of a decoded raster image.
type OCREngine interface {
	RecognizeImage(ctx context.Context, img image.Image) (string, error)
}
