package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// convertHEICtoPNG converts a HEIC/HEIF file to PNG inside dir using the chosen converter.
// converter: "heif-convert" | "magick" | "sips"
func convertHEICtoPNG(ctx context.Context, r Runner, converter, in, dir string) (string, error) {
	out := filepath.Join(dir, "page.png")

	switch converter {
	case "heif-convert":
		if _, errb, err := r.Run(ctx, "heif-convert", in, out); err != nil {
			return "", fmt.Errorf("heif-convert failed: %w: %s", err, firstLine(errb))
		}
	case "magick":
		if _, errb, err := r.Run(ctx, "magick", in, out); err != nil {
			return "", fmt.Errorf("magick convert failed: %w: %s", err, firstLine(errb))
		}
	case "sips":
		if _, errb, err := r.Run(ctx, "sips", "-s", "format", "png", in, "--out", out); err != nil {
			return "", fmt.Errorf("sips convert failed: %w: %s", err, firstLine(errb))
		}
	default:
		return "", fmt.Errorf("HEIC not supported: set HEIC_CONVERTER to one of: heif-convert | magick | sips")
	}

	if _, statErr := os.Stat(out); statErr != nil {
		return "", fmt.Errorf("HEIC conversion produced no output: %v", statErr)
	}
	return out, nil
}
