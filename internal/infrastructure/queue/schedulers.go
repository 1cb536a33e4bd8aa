package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"inventory-backend/internal/config"
	"inventory-backend/internal/domains/itemimport/model"
	"inventory-backend/internal/shared"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

// TaskRegistrar là phần của *asynq.Scheduler dùng để đăng ký periodic task
type TaskRegistrar interface {
	Register(cronspec string, task *asynq.Task, opts ...asynq.Option) (string, error)
}

type Scheduler struct {
	scheduler *asynq.Scheduler
	worker    config.WorkerConfig
}

func NewScheduler(redisOpt asynq.RedisClientOpt, worker config.WorkerConfig) *Scheduler {
	scheduler := asynq.NewScheduler(
		redisOpt,
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	return &Scheduler{
		scheduler: scheduler,
		worker:    worker,
	}
}

func (s *Scheduler) RegisterJobs() error {
	return RegisterSweepStaleJobs(s.scheduler, s.worker)
}

// ================================================
// JOB: Sweep stale import jobs (WORKER_SWEEP_SCHEDULE)
// ================================================
// Job kẹt ở processing quá StaleJobAfter (worker crash giữa chừng)
// bị đánh dấu failed và file stage trên MinIO bị xoá.
func RegisterSweepStaleJobs(r TaskRegistrar, worker config.WorkerConfig) error {
	payload, err := json.Marshal(model.SweepStaleJobsPayload{
		OlderThanSeconds: int64(worker.StaleJobAfter / time.Second),
	})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeItemImportSweepStale, payload)

	_, err = r.Register(
		worker.SweepSchedule,
		task,
		asynq.Queue(shared.QueueDefault),
		asynq.MaxRetry(1),
		asynq.Timeout(5*time.Minute),
	)
	if err != nil {
		log.Error().Err(err).Str("schedule", worker.SweepSchedule).Msg("Failed to register SweepStaleImportJobs job")
		return fmt.Errorf("register sweep job: %w", err)
	}

	log.Info().Str("schedule", worker.SweepSchedule).Msg("✓ Registered SweepStaleImportJobs")
	return nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Run()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
