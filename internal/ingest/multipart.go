package ingest

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/joseph-ayodele/discharge-summarizer/internal/extract"
)

// ErrTooLarge is returned when the request body exceeds the upload limit.
var ErrTooLarge = errors.New("upload exceeds size limit")

// parts beyond this stay on disk while the form is parsed
const maxFormMemory = 8 << 20

// FromRequest reads every file posted under field, in form order. A request
// that is not multipart/form-data, or has no such field, yields an empty
// batch rather than an error.
func FromRequest(r *http.Request, field string) ([]extract.UploadedFile, error) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		var mbe *http.MaxBytesError
		switch {
		case errors.As(err, &mbe):
			return nil, fmt.Errorf("%w: limit %d bytes", ErrTooLarge, mbe.Limit)
		case strings.Contains(err.Error(), "request body too large"):
			// some multipart read paths flatten the *http.MaxBytesError
			return nil, ErrTooLarge
		case errors.Is(err, http.ErrNotMultipart), errors.Is(err, http.ErrMissingBoundary):
			return nil, nil
		default:
			return nil, fmt.Errorf("parse multipart form: %w", err)
		}
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File[field]
	files := make([]extract.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		if fh.Filename == "" {
			continue
		}
		content, err := readPart(fh)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
		}
		files = append(files, extract.NewUploadedFile(fh.Filename, content))
	}
	return files, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(f)
}
