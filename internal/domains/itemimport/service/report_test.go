package service

import (
	"errors"
	"testing"

	"inventory-backend/internal/domains/itemimport/model"

	"github.com/stretchr/testify/assert"
)

func TestSuccessRate(t *testing.T) {
	assert.Equal(t, 0.0, SuccessRate(0, 0, 0))
	assert.Equal(t, 100.0, SuccessRate(1, 1, 2))
	assert.Equal(t, 66.67, SuccessRate(1, 1, 3))
	assert.Equal(t, 33.33, SuccessRate(1, 0, 3))
}

func TestSummaryMessage(t *testing.T) {
	tests := []struct {
		name   string
		report model.ImportReport
		want   string
	}{
		{
			name:   "clean",
			report: model.ImportReport{ImportedCount: 3, UpdatedCount: 2},
			want:   "CSV import finished: 3 new items imported, 2 items updated.",
		},
		{
			name:   "with skips and errors",
			report: model.ImportReport{ImportedCount: 1, SkippedCount: 2, ErrorCount: 3},
			want:   "CSV import finished: 1 new items imported, 0 items updated, 2 lines skipped, 3 errors.",
		},
		{
			name:   "mostly updates",
			report: model.ImportReport{ImportedCount: 5, UpdatedCount: 101},
			want:   "CSV import finished: 5 new items imported, 101 items updated. Note: many items were updated because they already existed in the catalog.",
		},
		{
			name:   "updates dominate but below threshold",
			report: model.ImportReport{ImportedCount: 5, UpdatedCount: 100},
			want:   "CSV import finished: 5 new items imported, 100 items updated.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SummaryMessage(&tt.report))
		})
	}
}

func TestReportAccumulator(t *testing.T) {
	acc := NewReportAccumulator(1)
	acc.Observe(model.Imported(2, "a"))
	acc.Observe(model.Updated(3, "a"))
	acc.Observe(model.Skipped(4, model.ReasonEmpty, "Line 4: empty row"))
	acc.Observe(model.Errored(5, "b", "Line 5: boom"))

	r := acc.Finalize(true, nil)

	assert.True(t, r.Success)
	assert.Equal(t, 4, r.ProcessedLines)
	assert.Equal(t, 2, r.ErrorCount)
	assert.Len(t, r.Errors, 1)
	assert.True(t, r.ErrorsTruncated)
	assert.Equal(t, 50.0, r.SuccessRate)
	assert.False(t, r.FinishedAt.Before(r.StartedAt))
}

func TestReportAccumulator_Failure(t *testing.T) {
	acc := NewReportAccumulator(0)
	acc.Report().DryRun = true

	r := acc.Finalize(false, errors.New("import commit failed: eof"))

	assert.False(t, r.Success)
	assert.Equal(t, "import commit failed: eof", r.Failure)
	assert.Equal(t, "Dry run, nothing was saved. Import failed: import commit failed: eof", r.Message)
	assert.NotNil(t, r.Errors)
}
