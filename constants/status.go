package constants

// JobStatus is the canonical status for rows in extract_job.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusRunning    JobStatus = "RUNNING"    // in progress
	JobStatusExtracted  JobStatus = "EXTRACTED"  // stage 1 completed (text extracted)
	JobStatusSummarized JobStatus = "SUMMARIZED" // stage 2 completed (summary returned)
	JobStatusFailed     JobStatus = "FAILED"     // terminal failure
)
