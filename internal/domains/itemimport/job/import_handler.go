package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"inventory-backend/internal/domains/itemimport/model"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

// JobProcessor là phần của ImportService mà worker cần
type JobProcessor interface {
	ProcessJob(ctx context.Context, p model.ImportJobPayload) error
	SweepStaleJobs(ctx context.Context, olderThan time.Duration) (int, error)
}

// ImportHandler chạy task item:import
type ImportHandler struct {
	processor JobProcessor
}

func NewImportHandler(processor JobProcessor) *ImportHandler {
	return &ImportHandler{processor: processor}
}

// ProcessTask: payload hỏng thì bỏ luôn (SkipRetry), lock bận thì để asynq retry
func (h *ImportHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload model.ImportJobPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		log.Error().Err(err).Msg("Failed to unmarshal ItemImport payload")
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.JobID == "" {
		return fmt.Errorf("payload without job_id: %w", asynq.SkipRetry)
	}

	log.Info().
		Str("job_id", payload.JobID).
		Str("file_name", payload.FileName).
		Bool("dry_run", payload.DryRun).
		Msg("Processing catalog import job")

	if err := h.processor.ProcessJob(ctx, payload); err != nil {
		if errors.Is(err, model.ErrImportInProgress) {
			log.Info().Str("job_id", payload.JobID).Msg("Another import is running, job will be retried")
		} else {
			log.Error().Err(err).Str("job_id", payload.JobID).Msg("Failed to process import job")
		}
		return fmt.Errorf("process import job: %w", err)
	}

	log.Info().Str("job_id", payload.JobID).Msg("Catalog import job finished")
	return nil
}
