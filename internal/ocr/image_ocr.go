package ocr

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
)

// RecognizeImage runs tesseract over img and returns its raw text output.
func (e *Extractor) RecognizeImage(ctx context.Context, img image.Image) (string, error) {
	if img == nil {
		return "", fmt.Errorf("tesseract: nil image")
	}
	dir, cleanup, err := e.scratchDir("ds-ocr-*")
	if err != nil {
		return "", err
	}
	defer cleanup()

	path := filepath.Join(dir, "page.png")
	if err := writePNG(path, img); err != nil {
		return "", fmt.Errorf("stage image for tesseract: %w", err)
	}

	// tesseract <file> stdout -l <lang>
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, e.tesseractArgs(path)...)
	if err != nil {
		if msg := firstLine(errb); msg != "" {
			return "", fmt.Errorf("tesseract: %w: %s", err, msg)
		}
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return string(out), nil
}

func (e *Extractor) tesseractArgs(path string) []string {
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(e.cfg.PSM))
	}
	if e.cfg.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(e.cfg.OEM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	return args
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
