package service

import (
	"testing"

	"inventory-backend/internal/domains/itemimport/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNormalizer(t *testing.T, header []string, strict bool) *RowNormalizer {
	t.Helper()
	table, err := NewAliasTable(nil)
	require.NoError(t, err)
	cm, err := table.Resolve(header, model.AlwaysRequired)
	require.NoError(t, err)
	return NewRowNormalizer(cm, model.AlwaysRequired, strict)
}

func TestRowNormalizer_Classification(t *testing.T) {
	n := newTestNormalizer(t, []string{"barcode", "name", "quantity", "unit_price", "category"}, false)

	tests := []struct {
		name       string
		cells      []string
		wantReason model.SkipReason
	}{
		{"blank cells", []string{" ", "", "", "", ""}, model.ReasonEmpty},
		{"blank short row is empty, not mismatch", []string{"  "}, model.ReasonEmpty},
		{"too few cells", []string{"1", "a", "2"}, model.ReasonColumnCountMismatch},
		{"too many cells", []string{"1", "a", "2", "3", "c", "extra"}, model.ReasonColumnCountMismatch},
		{"missing barcode", []string{"", "a", "1", "1", ""}, model.ReasonMissingRequiredField},
		{"missing name", []string{"1", " ", "1", "1", ""}, model.ReasonMissingRequiredField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cand, outcome := n.Normalize(RawRow{Line: 7, Cells: tt.cells})
			assert.Nil(t, cand)
			require.NotNil(t, outcome)
			assert.Equal(t, model.OutcomeSkipped, outcome.Kind)
			assert.Equal(t, tt.wantReason, outcome.Reason)
			assert.Equal(t, 7, outcome.Line)
			assert.Contains(t, outcome.Message, "Line 7")
		})
	}
}

func TestRowNormalizer_Candidate(t *testing.T) {
	n := newTestNormalizer(t, []string{"barcode", "name", "quantity", "min_quantity", "unit_price", "category"}, false)

	cand, outcome := n.Normalize(RawRow{Line: 2, Cells: []string{" 5601 ", "Martelo", "3.0", "", "12,50", " Ferramentas "}})
	require.Nil(t, outcome)
	require.NotNil(t, cand)

	assert.Equal(t, "5601", cand.Barcode)
	assert.Equal(t, 3, cand.Quantity)
	assert.Equal(t, 0, cand.MinQuantity)
	assert.True(t, decimal.RequireFromString("12.5").Equal(cand.UnitPrice))
	assert.Equal(t, "Ferramentas", cand.CategoryName)

	item := cand.ToCatalogItem(nil)
	assert.Nil(t, item.Description)
	assert.Nil(t, item.Location)
	assert.Equal(t, "Martelo", item.Name)
}

func TestRowNormalizer_StrictNumbers(t *testing.T) {
	n := newTestNormalizer(t, []string{"barcode", "name", "quantity", "unit_price"}, true)

	_, outcome := n.Normalize(RawRow{Line: 3, Cells: []string{"1", "a", "ten", "x1"}})
	require.NotNil(t, outcome)
	assert.Equal(t, model.ReasonInvalidNumber, outcome.Reason)
	assert.Contains(t, outcome.Message, "quantity, unit_price")

	cand, outcome := n.Normalize(RawRow{Line: 4, Cells: []string{"1", "a", "", ""}})
	assert.Nil(t, outcome, "blank numeric cells are not invalid")
	assert.Equal(t, 0, cand.Quantity)

	_, outcome = n.Normalize(RawRow{Line: 5, Cells: []string{"1", "a", "18446744073709551617", ""}})
	require.NotNil(t, outcome)
	assert.Equal(t, model.ReasonInvalidNumber, outcome.Reason)
	assert.Contains(t, outcome.Message, "quantity")
}

func TestRowNormalizer_OverflowingQuantityIsZeroWhenLenient(t *testing.T) {
	n := newTestNormalizer(t, []string{"barcode", "name", "quantity"}, false)

	cand, outcome := n.Normalize(RawRow{Line: 2, Cells: []string{"1", "a", "1e30"}})
	require.Nil(t, outcome)
	assert.Equal(t, 0, cand.Quantity)
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"12.50", "12.5", true},
		{"12,50", "12.5", true},
		{"1.234,56", "1234.56", true},
		{"1,234.56", "1234.56", true},
		{"€ 3,20", "3.2", true},
		{"0.125", "0.13", true},
		{"", "0", true},
		{"abc", "0", false},
		{"1,2,3", "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parsePrice(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"10", 10, true},
		{"-2", -2, true},
		{"3.0", 3, true},
		{"3,9", 3, true},
		{"", 0, true},
		{"dez", 0, false},
		{"2147483647", 2147483647, true},
		{"-2147483648", -2147483648, true},
		{"2147483648", 0, false},
		{"-2147483649", 0, false},
		{"18446744073709551617", 0, false},
		{"1e30", 0, false},
		{"2147483647.9", 2147483647, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseQuantity(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}
