package model

// OutcomeKind: mỗi data row có đúng một outcome.
type OutcomeKind string

const (
	OutcomeImported OutcomeKind = "imported"
	OutcomeUpdated  OutcomeKind = "updated"
	OutcomeSkipped  OutcomeKind = "skipped"
	OutcomeErrored  OutcomeKind = "errored"
)

type SkipReason string

const (
	ReasonEmpty                SkipReason = "empty"
	ReasonColumnCountMismatch  SkipReason = "column-count-mismatch"
	ReasonMissingRequiredField SkipReason = "missing-required-field"
	ReasonInvalidNumber        SkipReason = "invalid-number"
)

// ImportOutcome là kết quả xử lý một row.
//   - Imported/Updated: Barcode được set
//   - Skipped: Reason được set
//   - Errored: Message chứa lỗi gốc
type ImportOutcome struct {
	Kind    OutcomeKind
	Line    int
	Barcode string
	Reason  SkipReason
	Message string

	// RaceResolved: insert đụng unique barcode, đã fallback sang update
	RaceResolved bool
}

func Imported(line int, barcode string) ImportOutcome {
	return ImportOutcome{Kind: OutcomeImported, Line: line, Barcode: barcode}
}

func Updated(line int, barcode string) ImportOutcome {
	return ImportOutcome{Kind: OutcomeUpdated, Line: line, Barcode: barcode}
}

func Skipped(line int, reason SkipReason, message string) ImportOutcome {
	return ImportOutcome{Kind: OutcomeSkipped, Line: line, Reason: reason, Message: message}
}

func Errored(line int, barcode, message string) ImportOutcome {
	return ImportOutcome{Kind: OutcomeErrored, Line: line, Barcode: barcode, Message: message}
}

// Persisted: row đã tạo ra thay đổi trong catalog
func (o ImportOutcome) Persisted() bool {
	return o.Kind == OutcomeImported || o.Kind == OutcomeUpdated
}
