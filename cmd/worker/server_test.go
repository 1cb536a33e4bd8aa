package main

import (
	"errors"
	"fmt"
	"testing"

	"inventory-backend/internal/domains/itemimport/model"
	"inventory-backend/internal/shared"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
)

func TestRetryDelay_LockBusyUsesFixedDelay(t *testing.T) {
	task := asynq.NewTask(shared.TypeItemImport, nil)
	err := fmt.Errorf("process job: %w", model.ErrImportInProgress)

	assert.Equal(t, lockBusyDelay, retryDelay(1, err, task))
	assert.Equal(t, lockBusyDelay, retryDelay(5, err, task))
}

func TestRetryDelay_OtherErrorsBackOff(t *testing.T) {
	task := asynq.NewTask(shared.TypeItemImport, nil)

	d := retryDelay(1, errors.New("connection refused"), task)
	assert.Positive(t, d)
}
