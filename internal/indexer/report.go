package indexer

// FileFailure records a single file that could not be processed.
type FileFailure struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

// IngestReport summarizes one ingestion run. When the final commit fails the
// produced row count is still reported with Committed=false, so embedded work
// is surfaced rather than silently lost.
type IngestReport struct {
	RunID          string        `json:"run_id"`
	Collection     string        `json:"collection"`
	FilesSeen      int           `json:"files_seen"`
	FilesSucceeded int           `json:"files_succeeded"`
	FilesFailed    int           `json:"files_failed"`
	Failures       []FileFailure `json:"failures,omitempty"`
	RowsProduced   int           `json:"rows_produced"`
	RowsWritten    int           `json:"rows_written"`
	RowsSkipped    int           `json:"rows_skipped"`
	Committed      bool          `json:"committed"`
}

// OK reports whether every file was processed and the batch committed.
func (r *IngestReport) OK() bool {
	return r.Committed && r.FilesFailed == 0
}
