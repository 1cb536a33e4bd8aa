package service

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"time"

	"inventory-backend/internal/domains/itemimport/model"
	"inventory-backend/internal/domains/itemimport/repository"
	"inventory-backend/internal/shared"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
	"github.com/zeebo/xxh3"
)

// ========================================
// DEPENDENCIES
// ========================================

// ImportLocker là distributed lock (Redis hoặc Postgres advisory lock).
// ok=false nghĩa là lock đang bị giữ bởi process khác.
type ImportLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
}

// FileStore lưu file upload cho async jobs (MinIO)
type FileStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, error)
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// TaskEnqueuer là phần của *asynq.Client mà service cần
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ServiceConfig: defaults cho mọi lần import
type ServiceConfig struct {
	Defaults    model.Options
	MaxFileSize int64
	LockTTL     time.Duration
	RunTimeout  time.Duration
}

// ImportInput là file do caller cung cấp (multipart, CLI, MinIO...)
type ImportInput struct {
	FileName string
	Content  io.Reader
	DryRun   bool
	// Options override defaults của service (nil => dùng defaults)
	Options *model.Options
}

const (
	jobKeyPrefix     = "imports/"
	staleJobReason   = "worker stopped before the import finished"
	defaultJobsLimit = 20
	maxJobsLimit     = 100
)

// ImportService bọc Engine với lock, file handling và async jobs.
type ImportService struct {
	engine *Engine
	jobs   repository.JobRepository
	files  FileStore
	queue  TaskEnqueuer
	locker ImportLocker
	cfg    ServiceConfig

	// backoff giữa các lần ghi summary của job
	completeBackoff time.Duration
}

// Số lần thử ghi summary sau khi import đã commit
const completeAttempts = 3

func NewImportService(
	engine *Engine,
	jobs repository.JobRepository,
	files FileStore,
	queue TaskEnqueuer,
	locker ImportLocker,
	cfg ServiceConfig,
) *ImportService {
	return &ImportService{
		engine: engine,
		jobs:   jobs,
		files:  files,
		queue:  queue,
		locker: locker,
		cfg:    cfg,

		completeBackoff: 500 * time.Millisecond,
	}
}

// ========================================
// SYNC IMPORT
// ========================================

// ImportFile chạy import ngay trong request (sync mode).
// Lỗi cấp run vẫn đi kèm report (Success=false) nếu engine đã chạy.
func (s *ImportService) ImportFile(ctx context.Context, in ImportInput) (*model.ImportReport, error) {
	format, err := DetectFormat(in.FileName)
	if err != nil {
		return nil, err
	}

	data, err := s.readLimited(in.Content)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("file_name", in.FileName).
		Int("file_size", len(data)).
		Bool("dry_run", in.DryRun).
		Msg("Starting catalog import")

	var report *model.ImportReport
	err = s.withLock(ctx, func(ctx context.Context) error {
		var runErr error
		report, runErr = s.run(ctx, format, data, s.options(in.Options, in.DryRun))
		return runErr
	})
	return report, err
}

// run convert (nếu là xlsx) rồi chạy engine với timeout
func (s *ImportService) run(ctx context.Context, format string, data []byte, opts model.Options) (*model.ImportReport, error) {
	hash := Fingerprint(data)

	var src io.ReadSeeker = bytes.NewReader(data)
	if format == FormatXLSX {
		converted, err := XLSXToCSV(bytes.NewReader(data))
		if err != nil {
			return &model.ImportReport{Success: false, DryRun: opts.DryRun, FileHash: hash, Failure: err.Error()}, err
		}
		src = converted
	}

	if s.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
		defer cancel()
	}

	report, err := s.engine.Run(ctx, src, opts)
	if report != nil {
		report.FileHash = hash
	}
	return report, err
}

func (s *ImportService) options(override *model.Options, dryRun bool) model.Options {
	opts := s.cfg.Defaults
	if override != nil {
		opts = *override
	}
	opts.DryRun = dryRun
	return opts
}

// withLock giữ import lock trong suốt fn. Lock bận => ErrImportInProgress.
func (s *ImportService) withLock(ctx context.Context, fn func(ctx context.Context) error) error {
	release, ok, err := s.locker.TryLock(ctx, shared.ImportLockKey, s.cfg.LockTTL)
	if err != nil {
		return fmt.Errorf("acquire import lock: %w", err)
	}
	if !ok {
		return model.ErrImportInProgress
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			log.Warn().Err(err).Msg("Failed to release import lock")
		}
	}()

	return fn(ctx)
}

func (s *ImportService) readLimited(r io.Reader) ([]byte, error) {
	if r == nil {
		return nil, model.ErrFileRequired
	}
	if s.cfg.MaxFileSize <= 0 {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrIngestFailure, err)
		}
		return data, nil
	}

	data, err := io.ReadAll(io.LimitReader(r, s.cfg.MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrIngestFailure, err)
	}
	if int64(len(data)) > s.cfg.MaxFileSize {
		return nil, fmt.Errorf("%w: limit is %d bytes", model.ErrFileTooLarge, s.cfg.MaxFileSize)
	}
	return data, nil
}

// Fingerprint là xxh3-128 hex của nội dung file, dùng để nhận ra
// cùng một file được import lại.
func Fingerprint(data []byte) string {
	sum := xxh3.Hash128(data).Bytes()
	return hex.EncodeToString(sum[:])
}

// ========================================
// ASYNC JOBS
// ========================================

// CreateAsyncJob stage file lên MinIO, tạo job row và enqueue cho worker.
func (s *ImportService) CreateAsyncJob(ctx context.Context, userID string, in ImportInput) (*model.BulkImportJob, error) {
	format, err := DetectFormat(in.FileName)
	if err != nil {
		return nil, err
	}
	data, err := s.readLimited(in.Content)
	if err != nil {
		return nil, err
	}

	jobID := uuid.New().String()
	fileName := path.Base(in.FileName)
	size := int64(len(data))
	job := &model.BulkImportJob{
		ID:            jobID,
		UserID:        userID,
		FileName:      fileName,
		FileKey:       jobKeyPrefix + jobID + "/" + fileName,
		FileSizeBytes: &size,
		FileHash:      Fingerprint(data),
		DryRun:        in.DryRun,
		Status:        model.JobStatusPending,
	}

	if err := s.files.Upload(ctx, job.FileKey, data, contentType(format)); err != nil {
		return nil, fmt.Errorf("stage import file: %w", err)
	}

	if err := s.jobs.CreateJob(ctx, job); err != nil {
		s.cleanupJobFiles(ctx, jobID)
		return nil, err
	}

	payload, err := json.Marshal(model.ImportJobPayload{
		JobID:    jobID,
		UserID:   userID,
		FileKey:  job.FileKey,
		FileName: fileName,
		DryRun:   in.DryRun,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	_, err = s.queue.EnqueueContext(ctx,
		asynq.NewTask(shared.TypeItemImport, payload),
		asynq.Queue(shared.QueueImport),
		asynq.TaskID(jobID),
		asynq.MaxRetry(5),
		asynq.Timeout(s.cfg.RunTimeout+time.Minute),
	)
	if err != nil {
		detached := context.WithoutCancel(ctx)
		if failErr := s.jobs.FailJob(detached, jobID, "enqueue failed: "+err.Error()); failErr != nil {
			log.Error().Err(failErr).Str("job_id", jobID).Msg("Failed to mark job failed")
		}
		s.cleanupJobFiles(detached, jobID)
		return nil, fmt.Errorf("enqueue import job: %w", err)
	}

	log.Info().
		Str("job_id", jobID).
		Str("user_id", userID).
		Str("file_name", fileName).
		Msg("Import job enqueued")

	return job, nil
}

// ProcessJob chạy một async job (gọi từ asynq handler).
// Trả error chỉ khi task nên được retry (lock bận, DB lỗi tạm thời);
// lỗi của chính file được ghi vào job và không retry.
func (s *ImportService) ProcessJob(ctx context.Context, p model.ImportJobPayload) error {
	return s.withLock(ctx, func(ctx context.Context) error {
		claimed, err := s.jobs.ClaimJob(ctx, p.JobID)
		if err != nil {
			return err
		}
		if !claimed {
			log.Warn().Str("job_id", p.JobID).Msg("Import job already handled, skipping")
			return nil
		}

		detached := context.WithoutCancel(ctx)
		defer s.cleanupJobFiles(detached, p.JobID)

		format, err := DetectFormat(p.FileName)
		if err != nil {
			return s.jobs.FailJob(detached, p.JobID, err.Error())
		}

		data, err := s.files.Download(ctx, p.FileKey)
		if err != nil {
			return s.jobs.FailJob(detached, p.JobID, "download import file: "+err.Error())
		}

		report, runErr := s.run(ctx, format, data, s.options(nil, p.DryRun))
		if report == nil {
			return s.jobs.FailJob(detached, p.JobID, runErr.Error())
		}
		if runErr != nil {
			log.Warn().Err(runErr).Str("job_id", p.JobID).Msg("Import job finished with failure")
		}

		return s.completeJob(detached, p.JobID, report)
	})
}

// completeJob ghi summary, thử lại vài lần vì dữ liệu đã commit:
// asynq retry sẽ không claim lại được job đã processing.
// Hết lượt thì SkipRetry, job nằm lại processing cho tới khi sweeper đánh failed.
func (s *ImportService) completeJob(ctx context.Context, jobID string, report *model.ImportReport) error {
	var err error
	for attempt := 1; attempt <= completeAttempts; attempt++ {
		if err = s.jobs.CompleteJob(ctx, jobID, report); err == nil {
			return nil
		}
		log.Warn().Err(err).
			Str("job_id", jobID).
			Int("attempt", attempt).
			Msg("Failed to save import job summary")

		if attempt < completeAttempts {
			time.Sleep(time.Duration(attempt) * s.completeBackoff)
		}
	}
	return fmt.Errorf("save job summary: %v: %w", err, asynq.SkipRetry)
}

// GetJob lấy job, chỉ owner mới được xem
func (s *ImportService) GetJob(ctx context.Context, userID, jobID string) (*model.BulkImportJob, error) {
	if _, err := uuid.Parse(jobID); err != nil {
		return nil, model.ErrJobNotFound
	}

	job, err := s.jobs.GetJobByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.UserID != userID {
		return nil, model.ErrJobForbidden
	}
	return job, nil
}

// ListJobs: page bắt đầu từ 1
func (s *ImportService) ListJobs(ctx context.Context, userID string, page, limit int) ([]*model.BulkImportJob, error) {
	if limit <= 0 {
		limit = defaultJobsLimit
	}
	if limit > maxJobsLimit {
		limit = maxJobsLimit
	}
	if page < 1 {
		page = 1
	}
	return s.jobs.ListJobsByUser(ctx, userID, limit, (page-1)*limit)
}

// SweepStaleJobs fail các job kẹt ở processing (worker chết giữa chừng)
// và xoá file đã stage của chúng.
func (s *ImportService) SweepStaleJobs(ctx context.Context, olderThan time.Duration) (int, error) {
	jobs, err := s.jobs.FailStaleJobs(ctx, time.Now().Add(-olderThan), staleJobReason)
	if err != nil {
		return 0, err
	}

	for _, job := range jobs {
		log.Warn().
			Str("job_id", job.ID).
			Str("user_id", job.UserID).
			Msg("Marked stale import job as failed")
		s.cleanupJobFiles(ctx, job.ID)
	}
	return len(jobs), nil
}

func (s *ImportService) cleanupJobFiles(ctx context.Context, jobID string) {
	if err := s.files.DeleteByPrefix(ctx, jobKeyPrefix+jobID+"/"); err != nil {
		log.Warn().Err(err).Str("job_id", jobID).Msg("Failed to delete staged import file")
	}
}

func contentType(format string) string {
	if format == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}
