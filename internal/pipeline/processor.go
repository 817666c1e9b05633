package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/discharge-summarizer/constants"
	"github.com/joseph-ayodele/discharge-summarizer/internal/common"
	"github.com/joseph-ayodele/discharge-summarizer/internal/extract"
	"github.com/joseph-ayodele/discharge-summarizer/internal/llm"
	"github.com/joseph-ayodele/discharge-summarizer/internal/repository"
)

// NoTextMessage is the neutral indicator for a batch with no files.
const NoTextMessage = "No text extracted."

// Artifact is the raw model output for one file.
type Artifact string

// Outcome records what happened to one attempted file.
type Outcome struct {
	Index    int
	Filename string
	Method   string
	Artifact Artifact
	Err      error
}

// Result is a completed batch. Artifacts are in input order; Selected is
// what the configured policy picked. Empty is set when there were no files.
type Result struct {
	BatchID   uuid.UUID
	Artifacts []Artifact
	Outcomes  []Outcome
	Selected  Artifact
	Empty     bool
}

// BatchError aborts a batch at the file that failed. Err is the stage error,
// a *common.ExtractionError or *common.SummarizationError.
type BatchError struct {
	Index    int
	Filename string
	Err      error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("file %d (%s): %v", e.Index, e.Filename, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// Processor runs extraction then summarization for each file of a batch.
type Processor struct {
	extractor  extract.TextExtractor
	summarizer llm.Summarizer
	policy     SelectionPolicy
	jobs       repository.ExtractJobRepository
	logger     *slog.Logger
}

// NewProcessor wires the two stages. A nil policy means SelectLast and a nil
// jobs repository disables the ledger.
func NewProcessor(
	extractor extract.TextExtractor,
	summarizer llm.Summarizer,
	policy SelectionPolicy,
	jobs repository.ExtractJobRepository,
	logger *slog.Logger,
) *Processor {
	if policy == nil {
		policy = SelectLast
	}
	if jobs == nil {
		jobs = repository.NoopExtractJobs{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{extractor: extractor, summarizer: summarizer, policy: policy, jobs: jobs, logger: logger}
}

// ProcessBatch handles files one at a time in the given order. The first
// failure stops the batch: later files are not touched and the returned
// Result carries no artifacts, only the outcomes up to the failure.
func (p *Processor) ProcessBatch(ctx context.Context, files []extract.UploadedFile) (Result, error) {
	start := time.Now()
	res := Result{BatchID: uuid.New()}
	reqID := common.RequestIDFromContext(ctx)

	p.logger.Info("pipeline.batch.start", "batch_id", res.BatchID, "request_id", reqID, "files", len(files))

	for i, f := range files {
		method, art, err := p.processFile(ctx, res.BatchID, reqID, i, f)
		if err != nil {
			res.Outcomes = append(res.Outcomes, Outcome{Index: i, Filename: f.Filename, Method: method, Err: err})
			p.logger.Error("pipeline.batch.failed",
				"batch_id", res.BatchID,
				"index", i,
				"filename", f.Filename,
				"skipped", len(files)-i-1,
				"error", err,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return Result{BatchID: res.BatchID, Outcomes: res.Outcomes}, &BatchError{Index: i, Filename: f.Filename, Err: err}
		}
		res.Artifacts = append(res.Artifacts, art)
		res.Outcomes = append(res.Outcomes, Outcome{Index: i, Filename: f.Filename, Method: method, Artifact: art})
	}

	sel, ok := p.policy(res.Artifacts)
	res.Selected = sel
	res.Empty = !ok

	p.logger.Info("pipeline.batch.ok",
		"batch_id", res.BatchID,
		"files", len(files),
		"empty", res.Empty,
		"selected_len", len(res.Selected),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (p *Processor) processFile(ctx context.Context, batchID uuid.UUID, reqID string, idx int, f extract.UploadedFile) (string, Artifact, error) {
	jobID := p.startJob(ctx, repository.JobStart{
		BatchID:     batchID,
		RequestID:   reqID,
		BatchIndex:  idx,
		Filename:    f.Filename,
		ContentHash: f.HashHex,
		Format:      constants.FormatOf(f.Filename),
	})

	// Stage 1: file -> text
	ext, err := p.extractor.Extract(ctx, f)
	if err != nil {
		p.finishJob(ctx, jobID, repository.JobOutcome{Method: methodOf(err, ext.Method), Err: err})
		return methodOf(err, ext.Method), "", err
	}
	p.markExtracted(ctx, jobID, ext.Method, len(ext.Text))

	// Stage 2: text -> summary
	out, err := p.summarizer.Summarize(ctx, ext.Text)
	if err != nil {
		p.finishJob(ctx, jobID, repository.JobOutcome{Method: ext.Method, Err: err})
		return ext.Method, "", err
	}
	p.finishJob(ctx, jobID, repository.JobOutcome{Method: ext.Method, SummaryLen: len(out)})

	p.logger.Info("pipeline.file.ok",
		"batch_id", batchID,
		"index", idx,
		"filename", f.Filename,
		"method", ext.Method,
		"text_len", len(ext.Text),
		"summary_len", len(out),
	)
	return ext.Method, Artifact(out), nil
}
