package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"inventory-backend/internal/domains/itemimport/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// JobRepository track các bulk import job chạy async
type JobRepository interface {
	CreateJob(ctx context.Context, job *model.BulkImportJob) error
	// ClaimJob chuyển pending => processing; false nếu job đã được xử lý
	ClaimJob(ctx context.Context, jobID string) (bool, error)
	CompleteJob(ctx context.Context, jobID string, report *model.ImportReport) error
	FailJob(ctx context.Context, jobID, reason string) error
	GetJobByID(ctx context.Context, jobID string) (*model.BulkImportJob, error)
	ListJobsByUser(ctx context.Context, userID string, limit, offset int) ([]*model.BulkImportJob, error)
	// FailStaleJobs đánh dấu failed các job kẹt ở processing từ trước startedBefore
	FailStaleJobs(ctx context.Context, startedBefore time.Time, reason string) ([]*model.BulkImportJob, error)
}

type jobRepository struct {
	pool *pgxpool.Pool
}

// NewJobRepository tạo repository instance
func NewJobRepository(pool *pgxpool.Pool) JobRepository {
	return &jobRepository{pool: pool}
}

const jobColumns = `
	id, user_id, file_name, file_key, file_size_bytes, file_hash, dry_run,
	total_rows, processed_rows, imported_rows, updated_rows, skipped_rows, failed_rows,
	status, errors, report, failure_reason,
	started_at, completed_at, created_at, updated_at`

// CreateJob tạo job mới ở trạng thái pending
func (r *jobRepository) CreateJob(ctx context.Context, job *model.BulkImportJob) error {
	query := `
		INSERT INTO bulk_import_jobs (
			id, user_id, file_name, file_key, file_size_bytes, file_hash, dry_run,
			status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	now := time.Now()
	job.CreatedAt = now
	job.UpdatedAt = now
	if job.Status == "" {
		job.Status = model.JobStatusPending
	}

	_, err := r.pool.Exec(ctx, query,
		job.ID,
		job.UserID,
		job.FileName,
		job.FileKey,
		job.FileSizeBytes,
		job.FileHash,
		job.DryRun,
		job.Status,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create bulk import job: %w", err)
	}

	return nil
}

func (r *jobRepository) ClaimJob(ctx context.Context, jobID string) (bool, error) {
	query := `
		UPDATE bulk_import_jobs
		SET status = $2,
			started_at = NOW(),
			updated_at = NOW()
		WHERE id = $1 AND status = $3
	`

	tag, err := r.pool.Exec(ctx, query, jobID, model.JobStatusProcessing, model.JobStatusPending)
	if err != nil {
		return false, fmt.Errorf("failed to claim job: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// CompleteJob lưu summary cuối: counters, errors (JSONB), report (JSONB)
func (r *jobRepository) CompleteJob(ctx context.Context, jobID string, report *model.ImportReport) error {
	errorsJSON, err := json.Marshal(report.Errors)
	if err != nil {
		return fmt.Errorf("failed to marshal errors: %w", err)
	}
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	status := model.JobStatusCompleted
	var failure *string
	if !report.Success {
		status = model.JobStatusFailed
		failure = &report.Failure
	}

	query := `
		UPDATE bulk_import_jobs
		SET status = $2,
			total_rows = $3,
			processed_rows = $4,
			imported_rows = $5,
			updated_rows = $6,
			skipped_rows = $7,
			failed_rows = $8,
			errors = $9,
			report = $10,
			failure_reason = $11,
			file_hash = COALESCE(NULLIF($12, ''), file_hash),
			completed_at = NOW(),
			updated_at = NOW()
		WHERE id = $1
	`

	_, err = r.pool.Exec(ctx, query,
		jobID,
		status,
		report.TotalLines,
		report.ProcessedLines,
		report.ImportedCount,
		report.UpdatedCount,
		report.SkippedCount,
		report.ErroredCount,
		errorsJSON,
		reportJSON,
		failure,
		report.FileHash,
	)
	if err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}

	return nil
}

func (r *jobRepository) FailJob(ctx context.Context, jobID, reason string) error {
	query := `
		UPDATE bulk_import_jobs
		SET status = $2,
			failure_reason = $3,
			completed_at = NOW(),
			updated_at = NOW()
		WHERE id = $1
	`

	if _, err := r.pool.Exec(ctx, query, jobID, model.JobStatusFailed, reason); err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}
	return nil
}

// GetJobByID lấy job info by ID
func (r *jobRepository) GetJobByID(ctx context.Context, jobID string) (*model.BulkImportJob, error) {
	query := `SELECT ` + jobColumns + ` FROM bulk_import_jobs WHERE id = $1`

	job, err := scanJob(r.pool.QueryRow(ctx, query, jobID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return job, nil
}

// ListJobsByUser lấy danh sách jobs của user (pagination)
func (r *jobRepository) ListJobsByUser(ctx context.Context, userID string, limit, offset int) ([]*model.BulkImportJob, error) {
	query := `SELECT ` + jobColumns + `
		FROM bulk_import_jobs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]*model.BulkImportJob, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate jobs: %w", err)
	}

	return jobs, nil
}

func (r *jobRepository) FailStaleJobs(ctx context.Context, startedBefore time.Time, reason string) ([]*model.BulkImportJob, error) {
	query := `
		UPDATE bulk_import_jobs
		SET status = $1,
			failure_reason = $2,
			completed_at = NOW(),
			updated_at = NOW()
		WHERE status = $3 AND started_at < $4
		RETURNING ` + jobColumns

	rows, err := r.pool.Query(ctx, query, model.JobStatusFailed, reason, model.JobStatusProcessing, startedBefore)
	if err != nil {
		return nil, fmt.Errorf("failed to sweep stale jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*model.BulkImportJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stale jobs: %w", err)
	}

	return jobs, nil
}

// scanJob scan một row theo thứ tự jobColumns; JSONB đọc qua []byte
func scanJob(row pgx.Row) (*model.BulkImportJob, error) {
	var (
		job        model.BulkImportJob
		fileHash   *string
		errorsJSON []byte
		reportJSON []byte
	)

	err := row.Scan(
		&job.ID,
		&job.UserID,
		&job.FileName,
		&job.FileKey,
		&job.FileSizeBytes,
		&fileHash,
		&job.DryRun,
		&job.TotalRows,
		&job.ProcessedRows,
		&job.ImportedRows,
		&job.UpdatedRows,
		&job.SkippedRows,
		&job.FailedRows,
		&job.Status,
		&errorsJSON,
		&reportJSON,
		&job.FailureReason,
		&job.StartedAt,
		&job.CompletedAt,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if fileHash != nil {
		job.FileHash = *fileHash
	}
	if err := decodeJobJSON(&job, errorsJSON, reportJSON); err != nil {
		return nil, err
	}
	return &job, nil
}

func decodeJobJSON(job *model.BulkImportJob, errorsJSON, reportJSON []byte) error {
	if len(errorsJSON) > 0 {
		if err := json.Unmarshal(errorsJSON, &job.Errors); err != nil {
			return fmt.Errorf("failed to decode job errors: %w", err)
		}
	}
	if len(reportJSON) > 0 {
		job.Report = &model.ImportReport{}
		if err := json.Unmarshal(reportJSON, job.Report); err != nil {
			return fmt.Errorf("failed to decode job report: %w", err)
		}
	}
	return nil
}
