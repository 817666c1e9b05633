package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/discharge-summarizer/constants"
)

// ExtractJob is one ledger row: the life of one uploaded file through the
// pipeline. It never carries file content, extracted text or summaries.
type ExtractJob struct {
	ID           uuid.UUID
	BatchID      uuid.UUID
	RequestID    string
	BatchIndex   int
	Filename     string
	ContentHash  string
	Format       string
	Method       string
	Status       constants.JobStatus
	TextLen      int
	SummaryLen   int
	ErrorMessage string
	StartedAt    time.Time
	FinishedAt   *time.Time
}

// JobStart describes a file about to enter the pipeline.
type JobStart struct {
	BatchID     uuid.UUID
	RequestID   string
	BatchIndex  int
	Filename    string
	ContentHash string
	Format      string
}

// JobOutcome closes a job. A nil Err means SUMMARIZED, anything else FAILED.
type JobOutcome struct {
	Method     string
	SummaryLen int
	Err        error
}

type ExtractJobRepository interface {
	Start(ctx context.Context, in JobStart) (uuid.UUID, error)
	MarkExtracted(ctx context.Context, jobID uuid.UUID, method string, textLen int) error
	Finish(ctx context.Context, jobID uuid.UUID, out JobOutcome) error
	ListByBatch(ctx context.Context, batchID uuid.UUID) ([]ExtractJob, error)
}

type extractJobRepo struct {
	db  *DB
	log *slog.Logger
	now func() time.Time
}

func NewExtractJobRepository(db *DB, log *slog.Logger) ExtractJobRepository {
	if log == nil {
		log = slog.Default()
	}
	return &extractJobRepo{db: db, log: log, now: time.Now}
}

func (r *extractJobRepo) Start(ctx context.Context, in JobStart) (uuid.UUID, error) {
	id := uuid.New()
	q := fmt.Sprintf(`INSERT INTO extract_job
		(id, batch_id, request_id, batch_index, filename, content_hash, format, status, started_at_ms)
		VALUES (%s)`, r.placeholders(9))
	_, err := r.db.SQL.ExecContext(ctx, q,
		id.String(), in.BatchID.String(), in.RequestID, in.BatchIndex,
		in.Filename, in.ContentHash, in.Format, string(constants.JobStatusRunning), r.now().UnixMilli(),
	)
	if err != nil {
		r.log.Error("extract_job start failed", "filename", in.Filename, "err", err)
		return uuid.Nil, err
	}
	r.log.Debug("extract_job started", "job_id", id, "batch_id", in.BatchID, "index", in.BatchIndex, "format", in.Format)
	return id, nil
}

func (r *extractJobRepo) MarkExtracted(ctx context.Context, jobID uuid.UUID, method string, textLen int) error {
	p := r.db.placeholder
	q := fmt.Sprintf(`UPDATE extract_job SET status = %s, method = %s, text_len = %s WHERE id = %s`, p(1), p(2), p(3), p(4))
	if _, err := r.db.SQL.ExecContext(ctx, q, string(constants.JobStatusExtracted), method, textLen, jobID.String()); err != nil {
		r.log.Error("extract_job mark(EXTRACTED) failed", "job_id", jobID, "err", err)
		return err
	}
	return nil
}

func (r *extractJobRepo) Finish(ctx context.Context, jobID uuid.UUID, out JobOutcome) error {
	status := constants.JobStatusSummarized
	msg := ""
	if out.Err != nil {
		status = constants.JobStatusFailed
		msg = out.Err.Error()
	}
	p := r.db.placeholder
	q := fmt.Sprintf(`UPDATE extract_job
		SET status = %s, method = CASE WHEN %s = '' THEN method ELSE %s END,
		    summary_len = %s, error_message = %s, finished_at_ms = %s
		WHERE id = %s`, p(1), p(2), p(2), p(3), p(4), p(5), p(6))
	_, err := r.db.SQL.ExecContext(ctx, q, string(status), out.Method, out.SummaryLen, msg, r.now().UnixMilli(), jobID.String())
	if err != nil {
		r.log.Error("extract_job finish failed", "job_id", jobID, "status", status, "err", err)
		return err
	}
	if status == constants.JobStatusFailed {
		r.log.Warn("extract_job finished (FAILED)", "job_id", jobID, "error", msg)
	} else {
		r.log.Debug("extract_job finished (SUMMARIZED)", "job_id", jobID)
	}
	return nil
}

func (r *extractJobRepo) ListByBatch(ctx context.Context, batchID uuid.UUID) ([]ExtractJob, error) {
	q := fmt.Sprintf(`SELECT id, batch_id, request_id, batch_index, filename, content_hash, format, method,
		status, text_len, summary_len, error_message, started_at_ms, finished_at_ms
		FROM extract_job WHERE batch_id = %s ORDER BY batch_index`, r.db.placeholder(1))
	rows, err := r.db.SQL.QueryContext(ctx, q, batchID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ExtractJob
	for rows.Next() {
		var (
			j               ExtractJob
			id, bid, status string
			started         int64
			finished        sql.NullInt64
		)
		if err := rows.Scan(&id, &bid, &j.RequestID, &j.BatchIndex, &j.Filename, &j.ContentHash, &j.Format,
			&j.Method, &status, &j.TextLen, &j.SummaryLen, &j.ErrorMessage, &started, &finished); err != nil {
			return nil, err
		}
		if j.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("job id %q: %w", id, err)
		}
		if j.BatchID, err = uuid.Parse(bid); err != nil {
			return nil, fmt.Errorf("batch id %q: %w", bid, err)
		}
		j.Status = constants.JobStatus(status)
		j.StartedAt = time.UnixMilli(started)
		if finished.Valid {
			t := time.UnixMilli(finished.Int64)
			j.FinishedAt = &t
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (r *extractJobRepo) placeholders(n int) string {
	s := ""
	for i := 1; i <= n; i++ {
		if i > 1 {
			s += ", "
		}
		s += r.db.placeholder(i)
	}
	return s
}

// NoopExtractJobs is the ledger used when JOB_LOG_DSN is empty.
type NoopExtractJobs struct{}

func (NoopExtractJobs) Start(context.Context, JobStart) (uuid.UUID, error) { return uuid.New(), nil }
func (NoopExtractJobs) MarkExtracted(context.Context, uuid.UUID, string, int) error {
	return nil
}
func (NoopExtractJobs) Finish(context.Context, uuid.UUID, JobOutcome) error { return nil }
func (NoopExtractJobs) ListByBatch(context.Context, uuid.UUID) ([]ExtractJob, error) {
	return nil, nil
}
