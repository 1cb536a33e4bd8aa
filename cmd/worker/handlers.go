package main

import (
	importJob "inventory-backend/internal/domains/itemimport/job"
	"inventory-backend/internal/shared"
	"inventory-backend/pkg/container"

	"github.com/hibiken/asynq"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	itemImport *importJob.ImportHandler
	sweepStale *importJob.SweepStaleHandler
}

// initializeHandlers creates all job handlers with their dependencies
func initializeHandlers(c *container.Container) *HandlerRegistry {
	return &HandlerRegistry{
		itemImport: importJob.NewImportHandler(c.ImportService),
		sweepStale: importJob.NewSweepStaleHandler(c.ImportService, c.Config.Worker.StaleJobAfter),
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(shared.TypeItemImport, h.itemImport.ProcessTask)
	mux.HandleFunc(shared.TypeItemImportSweepStale, h.sweepStale.ProcessTask)
}
