package model

import (
	"time"
)

// ========================================
// BULK IMPORT JOB MODEL (DB)
// ========================================

// BulkImportJob track một lần import async.
// Chỉ lưu summary cuối, không push progress.
type BulkImportJob struct {
	ID            string `json:"id" db:"id"`
	UserID        string `json:"user_id" db:"user_id"`
	FileName      string `json:"file_name" db:"file_name"`
	FileKey       string `json:"file_key" db:"file_key"`
	FileSizeBytes *int64 `json:"file_size_bytes,omitempty" db:"file_size_bytes"`
	FileHash      string `json:"file_hash,omitempty" db:"file_hash"`
	DryRun        bool   `json:"dry_run" db:"dry_run"`

	TotalRows     int `json:"total_rows" db:"total_rows"`
	ProcessedRows int `json:"processed_rows" db:"processed_rows"`
	ImportedRows  int `json:"imported_rows" db:"imported_rows"`
	UpdatedRows   int `json:"updated_rows" db:"updated_rows"`
	SkippedRows   int `json:"skipped_rows" db:"skipped_rows"`
	FailedRows    int `json:"failed_rows" db:"failed_rows"`

	Status        string        `json:"status" db:"status"`           // pending/processing/completed/failed
	Errors        []RowMessage  `json:"errors,omitempty" db:"errors"` // JSONB
	Report        *ImportReport `json:"report,omitempty" db:"report"` // JSONB
	FailureReason *string       `json:"failure_reason,omitempty" db:"failure_reason"`

	StartedAt   *time.Time `json:"started_at,omitempty" db:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// Job status constants
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// ImportJobPayload là payload của asynq task item:import
type ImportJobPayload struct {
	JobID    string `json:"job_id"`
	UserID   string `json:"user_id"`
	FileKey  string `json:"file_key"`
	FileName string `json:"file_name"`
	DryRun   bool   `json:"dry_run"`
}

// SweepStaleJobsPayload cho task item:import_sweep_stale
type SweepStaleJobsPayload struct {
	OlderThanSeconds int64 `json:"older_than_seconds"`
}
