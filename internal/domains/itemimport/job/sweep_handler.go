package job

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"inventory-backend/internal/domains/itemimport/model"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

// SweepStaleHandler chạy task item:import_sweep_stale (scheduler)
type SweepStaleHandler struct {
	processor JobProcessor
	fallback  time.Duration
}

func NewSweepStaleHandler(processor JobProcessor, fallback time.Duration) *SweepStaleHandler {
	return &SweepStaleHandler{processor: processor, fallback: fallback}
}

func (h *SweepStaleHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload model.SweepStaleJobsPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
		}
	}

	olderThan := time.Duration(payload.OlderThanSeconds) * time.Second
	if olderThan <= 0 {
		olderThan = h.fallback
	}

	n, err := h.processor.SweepStaleJobs(ctx, olderThan)
	if err != nil {
		log.Error().Err(err).Msg("Failed to sweep stale import jobs")
		return fmt.Errorf("sweep stale jobs: %w", err)
	}

	if n > 0 {
		log.Warn().Int("count", n).Dur("older_than", olderThan).Msg("Stale import jobs marked failed")
	}
	return nil
}
