package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Options điều khiển một lần chạy engine.
type Options struct {
	BatchSize         int
	MaxErrorsRecorded int
	RequiredFields    []string
	StrictNumbers     bool
	DryRun            bool
}

func DefaultOptions() Options {
	return Options{
		BatchSize:         100,
		MaxErrorsRecorded: 500,
		RequiredFields:    []string{FieldBarcode, FieldName},
	}
}

func (o Options) Validate() error {
	fields := make([]interface{}, len(CanonicalFields))
	for i, f := range CanonicalFields {
		fields[i] = f
	}

	return validation.ValidateStruct(&o,
		validation.Field(&o.BatchSize, validation.Required, validation.Min(1)),
		validation.Field(&o.MaxErrorsRecorded, validation.Min(0)),
		validation.Field(&o.RequiredFields, validation.Each(validation.In(fields...))),
	)
}

// EffectiveRequired = AlwaysRequired ∪ RequiredFields, theo thứ tự canonical.
func (o Options) EffectiveRequired() []string {
	want := make(map[string]bool, len(AlwaysRequired)+len(o.RequiredFields))
	for _, f := range AlwaysRequired {
		want[f] = true
	}
	for _, f := range o.RequiredFields {
		want[f] = true
	}

	out := make([]string, 0, len(want))
	for _, f := range CanonicalFields {
		if want[f] {
			out = append(out, f)
		}
	}
	return out
}
