package main

import (
	"strings"

	"inventory-backend/internal/infrastructure/queue"
	"inventory-backend/pkg/container"

	"github.com/rs/zerolog/log"
)

// sweepScheduler chạy periodic sweep; nil khi WORKER_SWEEP_SCHEDULE=off
type sweepScheduler struct {
	*queue.Scheduler
}

func setupScheduler(c *container.Container) *sweepScheduler {
	spec := strings.TrimSpace(c.Config.Worker.SweepSchedule)
	if spec == "" || strings.EqualFold(spec, "off") {
		log.Warn().Msg("[Scheduler] Stale job sweep disabled")
		return nil
	}

	scheduler := queue.NewScheduler(c.Config.RedisClientOpt(), c.Config.Worker)
	if err := scheduler.RegisterJobs(); err != nil {
		log.Fatal().Err(err).Str("schedule", spec).Msg("[Scheduler] Failed to register")
	}

	go func() {
		if err := scheduler.Start(); err != nil {
			log.Fatal().Err(err).Msg("[Scheduler] Failed")
		}
	}()

	log.Info().
		Str("schedule", spec).
		Dur("stale_after", c.Config.Worker.StaleJobAfter).
		Msg("[Scheduler] Started")
	return &sweepScheduler{Scheduler: scheduler}
}

func (s *sweepScheduler) Shutdown() {
	if s == nil {
		return
	}
	s.Scheduler.Shutdown()
	log.Info().Msg("[Scheduler] ✓ Stopped")
}
