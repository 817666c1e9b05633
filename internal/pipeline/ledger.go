package pipeline

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/discharge-summarizer/internal/common"
	"github.com/joseph-ayodele/discharge-summarizer/internal/repository"
)

// Ledger writes are best effort: failures are logged and never change the
// batch outcome.

func (p *Processor) startJob(ctx context.Context, in repository.JobStart) uuid.UUID {
	id, err := p.jobs.Start(ctx, in)
	if err != nil {
		p.logger.Warn("pipeline.ledger.start_failed", "batch_id", in.BatchID, "index", in.BatchIndex, "error", err)
		return uuid.Nil
	}
	return id
}

func (p *Processor) markExtracted(ctx context.Context, id uuid.UUID, method string, textLen int) {
	if id == uuid.Nil {
		return
	}
	if err := p.jobs.MarkExtracted(ctx, id, method, textLen); err != nil {
		p.logger.Warn("pipeline.ledger.mark_failed", "job_id", id, "error", err)
	}
}

func (p *Processor) finishJob(ctx context.Context, id uuid.UUID, out repository.JobOutcome) {
	if id == uuid.Nil {
		return
	}
	if err := p.jobs.Finish(ctx, id, out); err != nil {
		p.logger.Warn("pipeline.ledger.finish_failed", "job_id", id, "error", err)
	}
}

// methodOf prefers the method recorded on an extraction error, which tells
// decode failures apart from OCR failures.
func methodOf(err error, fallback string) string {
	var xe *common.ExtractionError
	if errors.As(err, &xe) && xe.Method != "" {
		return xe.Method
	}
	return fallback
}
