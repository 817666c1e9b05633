package constants

import (
	"path/filepath"
	"strings"
)

// Source formats recorded on extraction results and ledger rows.
const (
	PDF   = "PDF"
	IMAGE = "IMAGE"
)

// FileTypes holds the allowed values for the format column of extract_job.
var FileTypes = []string{PDF, IMAGE}

// ImageExtensions lists the raster extensions the upload page advertises.
// Anything that is not a PDF is still routed to OCR; this set only drives
// directory scans and the file watcher.
var ImageExtensions = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"gif":  {},
	"bmp":  {},
	"tif":  {},
	"tiff": {},
	"webp": {},
	"heic": {},
	"heif": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsPDF reports whether filename ends with ".pdf", ignoring case.
// The decision never looks at file content.
func IsPDF(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".pdf")
}

// FormatOf maps a filename to PDF or IMAGE.
func FormatOf(filename string) string {
	if IsPDF(filename) {
		return PDF
	}
	return IMAGE
}

// IsHEICExt reports whether ext names a HEIC/HEIF container.
func IsHEICExt(ext string) bool {
	ext = NormalizeExt(ext)
	return ext == "heic" || ext == "heif"
}

// ExtOf returns the normalized extension of filename.
func ExtOf(filename string) string {
	return NormalizeExt(filepath.Ext(filename))
}

// IsKnownDocument reports whether filename looks like something worth
// picking up when scanning a directory: a PDF or a listed image type.
func IsKnownDocument(filename string) bool {
	if IsPDF(filename) {
		return true
	}
	_, ok := ImageExtensions[ExtOf(filename)]
	return ok
}
