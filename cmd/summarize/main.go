package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joseph-ayodele/discharge-summarizer/internal/app"
	"github.com/joseph-ayodele/discharge-summarizer/internal/common"
	"github.com/joseph-ayodele/discharge-summarizer/internal/export"
	"github.com/joseph-ayodele/discharge-summarizer/internal/ingest"
	"github.com/joseph-ayodele/discharge-summarizer/internal/pipeline"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir      = flag.String("dir", "", "summarize every PDF and image under this directory (one batch)")
		format   = flag.String("format", "html", "output format: html, markdown, xlsx or json")
		out      = flag.String("out", "", "output file (batch mode) or directory (watch mode); stdout if empty")
		policy   = flag.String("policy", "", "result policy override: last or all")
		watch    = flag.Bool("watch", false, "keep running and summarize each document that appears under -dir")
		debounce = flag.Duration("debounce", 500*time.Millisecond, "watch mode: wait this long after the last write")
	)
	flag.Parse()

	fmtSel, err := export.ParseFormat(*format)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(2)
	}
	if *watch && *dir == "" {
		printError("Error: --watch requires --dir\n")
		os.Exit(2)
	}
	if *dir == "" && flag.NArg() == 0 {
		printError("usage: summarize [flags] <file>... | summarize --dir <dir> [--watch]\n")
		flag.PrintDefaults()
		os.Exit(2)
	}
	if fmtSel == export.FormatXLSX && *out == "" {
		printError("Error: --out is required for xlsx\n")
		os.Exit(2)
	}

	cfg, err := common.LoadConfig()
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	if *policy != "" {
		cfg.Result.Policy = strings.ToLower(*policy)
	}
	// stdout carries the summary, logs go to stderr
	logger := common.NewLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("wire app", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if *watch {
		err = runWatch(ctx, a, *dir, fmtSel, *out, *debounce, logger)
	} else {
		err = runBatch(ctx, a, *dir, flag.Args(), fmtSel, *out, logger)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("summarize failed", "error", err)
		printError("Error processing file: %s\n", common.ErrorDetail(err))
		a.Close()
		os.Exit(1)
	}
}

func runBatch(ctx context.Context, a *app.App, dir string, args []string, format export.Format, out string, logger *slog.Logger) error {
	paths := args
	if dir != "" {
		found, err := ingest.CollectDirectory(dir, true)
		if err != nil {
			return err
		}
		paths = append(found, args...)
	}
	files, err := ingest.FromPaths(paths)
	if err != nil {
		return err
	}

	res, err := a.Processor.ProcessBatch(ctx, files)
	if err != nil {
		return err
	}
	if res.Empty {
		_, err := fmt.Fprintln(os.Stderr, pipeline.NoTextMessage)
		return err
	}
	r, err := a.Exporter.Render(format, string(res.Selected))
	if err != nil {
		return err
	}
	return emit(r, out, logger)
}

// runWatch summarizes each new or changed document on its own until ctx is done.
// A failing document is logged and the watch keeps going.
func runWatch(ctx context.Context, a *app.App, dir string, format export.Format, outDir string, debounce time.Duration, logger *slog.Logger) error {
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return err
		}
	}
	paths, errs, err := ingest.Watch(ctx, ingest.WatchConfig{
		Roots:       []string{dir},
		InitialScan: true,
		Debounce:    debounce,
		SkipHidden:  true,
	}, logger)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("watch.error", "error", err)
		case p, ok := <-paths:
			if !ok {
				return ctx.Err()
			}
			if outDir != "" && isUnder(p, outDir) {
				continue
			}
			if err := summarizeOne(ctx, a, p, format, outDir, logger); err != nil {
				logger.Error("watch.summarize.failed", "path", p, "error", err)
			}
		}
	}
}

func summarizeOne(ctx context.Context, a *app.App, path string, format export.Format, outDir string, logger *slog.Logger) error {
	files, err := ingest.FromPaths([]string{path})
	if err != nil {
		return err
	}
	res, err := a.Processor.ProcessBatch(ctx, files)
	if err != nil {
		return err
	}
	if res.Empty {
		return nil
	}
	r, err := a.Exporter.Render(format, string(res.Selected))
	if err != nil {
		return err
	}
	target := ""
	if outDir != "" {
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		target = filepath.Join(outDir, base+extensionFor(format))
	}
	return emit(r, target, logger)
}

func emit(r export.Rendered, path string, logger *slog.Logger) error {
	if path == "" {
		_, err := os.Stdout.Write(r.Body)
		return err
	}
	if err := os.WriteFile(path, r.Body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	logger.Info("summary written", "path", path, "bytes", len(r.Body))
	return nil
}

func extensionFor(f export.Format) string {
	switch f {
	case export.FormatMarkdown:
		return ".md"
	case export.FormatXLSX:
		return ".xlsx"
	case export.FormatJSON:
		return ".json"
	default:
		return ".html"
	}
}

func isUnder(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
