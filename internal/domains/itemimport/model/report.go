package model

import "time"

// RowMessage là một dòng lỗi/ghi chú có số dòng gốc trong file.
type RowMessage struct {
	Line    int         `json:"line"`
	Kind    OutcomeKind `json:"kind"`
	Reason  string      `json:"reason,omitempty"`
	Barcode string      `json:"barcode,omitempty"`
	Message string      `json:"message"`
}

// ImportReport là kết quả cuối của một lần import.
// Counters luôn chính xác, kể cả khi Errors bị cắt bớt.
type ImportReport struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	DryRun  bool   `json:"dry_run"`

	ImportedCount  int     `json:"imported_count"`
	UpdatedCount   int     `json:"updated_count"`
	SkippedCount   int     `json:"skipped_count"`
	ErroredCount   int     `json:"errored_count"`
	TotalLines     int     `json:"total_lines"`
	ProcessedLines int     `json:"processed_lines"`
	SuccessRate    float64 `json:"success_rate"`

	CategoriesCreated int `json:"categories_created"`
	CommittedWindows  int `json:"committed_windows"`

	Errors          []RowMessage `json:"errors"`
	ErrorCount      int          `json:"error_count"`
	ErrorsTruncated bool         `json:"errors_truncated"`
	Notes           []RowMessage `json:"notes,omitempty"`

	// ColumnMap: canonical field => header gốc trong file
	ColumnMap map[string]string `json:"column_map,omitempty"`
	Delimiter string            `json:"delimiter,omitempty"`
	Encoding  string            `json:"encoding,omitempty"`
	FileHash  string            `json:"file_hash,omitempty"`

	// Failure mô tả lỗi cấp run khi Success=false
	Failure string `json:"failure,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DurationMs int64     `json:"duration_ms"`
}
