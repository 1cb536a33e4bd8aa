package model

import (
	"errors"
	"fmt"
	"strings"
)

// ============================================================
// RUN-LEVEL (FATAL) ERRORS
// ============================================================
// Engine trả về các error này cùng report Success=false.
// Lỗi từng row không bao giờ đi ra đây, chúng nằm trong report.

var (
	ErrIngestFailure          = errors.New("import file could not be read")
	ErrMissingRequiredColumns = errors.New("missing required columns")
	ErrCommitFailed           = errors.New("import commit failed")
	ErrImportCancelled        = errors.New("import cancelled")
	ErrInvalidOptions         = errors.New("invalid import options")
)

// MissingRequiredColumnsError mang danh sách canonical field thiếu.
type MissingRequiredColumnsError struct {
	Missing []string
	Headers []string
}

func (e *MissingRequiredColumnsError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

func (e *MissingRequiredColumnsError) Unwrap() error {
	return ErrMissingRequiredColumns
}

// ============================================================
// CALLER-LEVEL ERRORS (service / handler)
// ============================================================

var (
	ErrImportInProgress = errors.New("another import is already running")
	ErrUnsupportedFile  = errors.New("unsupported file format")
	ErrLegacyExcel      = errors.New(".xls files are not supported, save the sheet as .xlsx or .csv")
	ErrFileTooLarge     = errors.New("file too large")
	ErrFileRequired     = errors.New("file is required")

	ErrJobNotFound  = errors.New("import job not found")
	ErrJobForbidden = errors.New("import job belongs to another user")
)
