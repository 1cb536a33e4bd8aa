package main

import (
	"context"
	"errors"
	"time"

	"inventory-backend/internal/domains/itemimport/model"
	"inventory-backend/internal/shared"
	"inventory-backend/pkg/container"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

// asynqServer wraps asynq.Server with additional functionality
type asynqServer struct {
	*asynq.Server
}

// setupAsynqServer creates and configures the Asynq server
func setupAsynqServer(c *container.Container, handlers *HandlerRegistry) *asynqServer {
	mux := asynq.NewServeMux()
	handlers.RegisterHandlers(mux)

	srv := asynq.NewServer(
		c.Config.RedisClientOpt(),
		asynq.Config{
			Queues: map[string]int{
				shared.QueueImport:  10,
				shared.QueueDefault: 5,
			},
			// import lock chỉ cho 1 import chạy; concurrency > 1 chỉ giúp sweep chạy song song
			Concurrency: c.Config.Worker.Concurrency,
			// cho import đang chạy cơ hội commit window cuối trước khi dừng
			ShutdownTimeout: c.Config.Import.RunTimeout,
			RetryDelayFunc:  retryDelay,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				if errors.Is(err, model.ErrImportInProgress) {
					return
				}
				log.Error().Err(err).Str("type", task.Type()).Msg("[Asynq] ❌ Task failed")
			}),
		},
	)

	go func() {
		log.Info().Msg("[Worker] Starting...")
		if err := srv.Run(mux); err != nil {
			log.Fatal().Err(err).Msg("[Worker] Failed")
		}
	}()

	return &asynqServer{Server: srv}
}

// lockBusyDelay: import khác đang giữ lock, thử lại sau khoảng này
// thay vì exponential backoff mặc định
const lockBusyDelay = 30 * time.Second

func retryDelay(n int, err error, task *asynq.Task) time.Duration {
	if errors.Is(err, model.ErrImportInProgress) {
		return lockBusyDelay
	}
	return asynq.DefaultRetryDelayFunc(n, err, task)
}

// Shutdown chờ task đang chạy xong (tối đa IMPORT_RUN_TIMEOUT)
func (s *asynqServer) Shutdown() {
	log.Info().Msg("[Worker] Shutting down...")
	s.Server.Shutdown()
	log.Info().Msg("[Worker] ✓ Gracefully stopped")
}
