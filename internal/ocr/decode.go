package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WEBP decoder

	"github.com/joseph-ayodele/discharge-summarizer/constants"
)

// Decode turns uploaded bytes into an image. HEIC/HEIF goes through the
// configured external converter first; every other extension is handed to
// the registered Go decoders, which pick the codec from the bytes.
func (e *Extractor) Decode(ctx context.Context, filename string, content []byte) (image.Image, error) {
	if constants.IsHEICExt(constants.ExtOf(filename)) {
		converted, err := e.heicToPNG(ctx, content)
		if err != nil {
			return nil, err
		}
		content = converted
	}

	img, format, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("cannot identify image file %q: %w", filename, err)
	}
	b := img.Bounds()
	e.logger.Debug("ocr.decode.ok", "filename", filename, "format", format, "width", b.Dx(), "height", b.Dy())
	return img, nil
}

func (e *Extractor) heicToPNG(ctx context.Context, content []byte) ([]byte, error) {
	dir, cleanup, err := e.scratchDir("ds-heic-*")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	in := filepath.Join(dir, "input.heic")
	if err := os.WriteFile(in, content, 0o600); err != nil {
		return nil, err
	}
	out, err := convertHEICtoPNG(ctx, e.runner, e.cfg.HeicConverter, in, dir)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(out)
}
