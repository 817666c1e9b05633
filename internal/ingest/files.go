package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/discharge-summarizer/constants"
	"github.com/joseph-ayodele/discharge-summarizer/internal/extract"
)

// FromPaths loads local files as one batch, keeping the given order. The
// base name is used as the upload filename.
func FromPaths(paths []string) ([]extract.UploadedFile, error) {
	files := make([]extract.UploadedFile, 0, len(paths))
	for _, p := range paths {
		content, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		files = append(files, extract.NewUploadedFile(filepath.Base(p), content))
	}
	return files, nil
}

// CollectDirectory walks root and returns the PDFs and images under it,
// sorted by path. Hidden files and directories are skipped if requested.
func CollectDirectory(root string, skipHidden bool) ([]string, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("root path is required")
	}
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !constants.IsKnownDocument(path) {
			return nil
		}
		out = append(out, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
