package service

import (
	"fmt"
	"strings"
	"time"

	"inventory-backend/internal/domains/itemimport/model"

	"github.com/shopspring/decimal"
)

// bulkUpdateNoteThreshold: trên ngưỡng này và updated > imported thì message
// nhắc rằng phần lớn item đã có sẵn.
const bulkUpdateNoteThreshold = 100

// ReportAccumulator tally outcome thành ImportReport.
// maxErrors <= 0 nghĩa là không giới hạn list errors.
type ReportAccumulator struct {
	report    model.ImportReport
	maxErrors int
}

func NewReportAccumulator(maxErrors int) *ReportAccumulator {
	return &ReportAccumulator{
		report: model.ImportReport{
			Errors:    []model.RowMessage{},
			StartedAt: time.Now(),
		},
		maxErrors: maxErrors,
	}
}

// Report cho phép engine set metadata (column map, delimiter...).
func (a *ReportAccumulator) Report() *model.ImportReport {
	return &a.report
}

// Observe ghi nhận một outcome. Mỗi data row gọi đúng một lần.
func (a *ReportAccumulator) Observe(o model.ImportOutcome) {
	r := &a.report
	r.ProcessedLines++

	switch o.Kind {
	case model.OutcomeImported:
		r.ImportedCount++
	case model.OutcomeUpdated:
		r.UpdatedCount++
		if o.RaceResolved {
			a.appendCapped(&r.Notes, toRowMessage(o))
		}
	case model.OutcomeSkipped:
		r.SkippedCount++
		a.recordError(o)
	case model.OutcomeErrored:
		r.ErroredCount++
		a.recordError(o)
	}
}

func (a *ReportAccumulator) recordError(o model.ImportOutcome) {
	a.report.ErrorCount++
	if !a.appendCapped(&a.report.Errors, toRowMessage(o)) {
		a.report.ErrorsTruncated = true
	}
}

func (a *ReportAccumulator) appendCapped(list *[]model.RowMessage, msg model.RowMessage) bool {
	if a.maxErrors > 0 && len(*list) >= a.maxErrors {
		return false
	}
	*list = append(*list, msg)
	return true
}

func toRowMessage(o model.ImportOutcome) model.RowMessage {
	msg := o.Message
	if msg == "" {
		msg = fmt.Sprintf("Line %d: %s", o.Line, o.Kind)
	}
	return model.RowMessage{
		Line:    o.Line,
		Kind:    o.Kind,
		Reason:  string(o.Reason),
		Barcode: o.Barcode,
		Message: msg,
	}
}

// Finalize tính success rate, message và đóng report.
// success=false chỉ dành cho lỗi cấp run.
func (a *ReportAccumulator) Finalize(success bool, failure error) *model.ImportReport {
	r := &a.report
	r.Success = success
	r.SuccessRate = SuccessRate(r.ImportedCount, r.UpdatedCount, r.ProcessedLines)
	r.FinishedAt = time.Now()
	r.DurationMs = r.FinishedAt.Sub(r.StartedAt).Milliseconds()

	if failure != nil {
		r.Failure = failure.Error()
		r.Message = fmt.Sprintf("Import failed: %s", failure.Error())
	} else {
		r.Message = SummaryMessage(r)
	}
	if r.DryRun {
		r.Message = "Dry run, nothing was saved. " + r.Message
	}
	return r
}

// SuccessRate = round(100 * (imported+updated) / max(1, processed), 2)
func SuccessRate(imported, updated, processed int) float64 {
	if processed < 1 {
		processed = 1
	}
	rate := decimal.NewFromInt(int64(100 * (imported + updated))).
		Div(decimal.NewFromInt(int64(processed))).
		Round(2)
	return rate.InexactFloat64()
}

// SummaryMessage: "CSV import finished: 3 new items imported, 2 items updated, 1 lines skipped."
func SummaryMessage(r *model.ImportReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CSV import finished: %d new items imported, %d items updated", r.ImportedCount, r.UpdatedCount)
	if r.SkippedCount > 0 {
		fmt.Fprintf(&b, ", %d lines skipped", r.SkippedCount)
	}
	if r.ErrorCount > 0 {
		fmt.Fprintf(&b, ", %d errors", r.ErrorCount)
	}
	b.WriteString(".")

	if r.UpdatedCount > r.ImportedCount && r.UpdatedCount > bulkUpdateNoteThreshold {
		b.WriteString(" Note: many items were updated because they already existed in the catalog.")
	}
	return b.String()
}
