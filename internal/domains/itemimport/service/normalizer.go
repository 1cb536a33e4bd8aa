package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	itemmodel "inventory-backend/internal/domains/item/model"
	"inventory-backend/internal/domains/itemimport/model"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
)

// CandidateItem là row đã được ép kiểu, sẵn sàng upsert.
type CandidateItem struct {
	Line         int
	Barcode      string
	Name         string
	Description  string
	CategoryName string
	Quantity     int
	MinQuantity  int
	UnitPrice    decimal.Decimal
	Location     string
	Supplier     string
}

// ToCatalogItem chuyển candidate sang entity, field rỗng => NULL.
func (c *CandidateItem) ToCatalogItem(categoryID *int64) *itemmodel.CatalogItem {
	return &itemmodel.CatalogItem{
		Barcode:     c.Barcode,
		Name:        c.Name,
		Description: nullable(c.Description),
		CategoryID:  categoryID,
		Quantity:    c.Quantity,
		MinQuantity: c.MinQuantity,
		UnitPrice:   c.UnitPrice,
		Location:    nullable(c.Location),
		Supplier:    nullable(c.Supplier),
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// RowNormalizer biến raw row thành CandidateItem hoặc một outcome Skipped.
type RowNormalizer struct {
	columns  *ColumnMap
	required []string
	strict   bool
}

func NewRowNormalizer(columns *ColumnMap, required []string, strictNumbers bool) *RowNormalizer {
	return &RowNormalizer{columns: columns, required: required, strict: strictNumbers}
}

// Normalize: đúng một trong hai giá trị trả về khác nil.
// Thứ tự check: empty => cardinality => required => numbers.
func (n *RowNormalizer) Normalize(row RawRow) (*CandidateItem, *model.ImportOutcome) {
	if isBlankRow(row.Cells) {
		o := model.Skipped(row.Line, model.ReasonEmpty, fmt.Sprintf("Line %d: empty row", row.Line))
		return nil, &o
	}

	if len(row.Cells) != n.columns.Width() {
		o := model.Skipped(row.Line, model.ReasonColumnCountMismatch, fmt.Sprintf(
			"Line %d: inconsistent column count (expected %d, found %d)",
			row.Line, n.columns.Width(), len(row.Cells)))
		return nil, &o
	}

	cols := n.columns
	cand := &CandidateItem{
		Line:         row.Line,
		Barcode:      cols.Value(row.Cells, model.FieldBarcode),
		Name:         cols.Value(row.Cells, model.FieldName),
		Description:  cols.Value(row.Cells, model.FieldDescription),
		CategoryName: cols.Value(row.Cells, model.FieldCategory),
		Location:     cols.Value(row.Cells, model.FieldLocation),
		Supplier:     cols.Value(row.Cells, model.FieldSupplier),
	}

	if missing := n.missingRequired(row.Cells); len(missing) > 0 {
		o := model.Skipped(row.Line, model.ReasonMissingRequiredField, fmt.Sprintf(
			"Line %d: missing required field(s) %s (barcode: '%s', name: '%s')",
			row.Line, strings.Join(missing, ", "), cand.Barcode, cand.Name))
		return nil, &o
	}

	var invalid []string
	var ok bool

	if cand.Quantity, ok = parseQuantity(cols.Value(row.Cells, model.FieldQuantity)); !ok {
		invalid = append(invalid, model.FieldQuantity)
	}
	if cand.MinQuantity, ok = parseQuantity(cols.Value(row.Cells, model.FieldMinQuantity)); !ok {
		invalid = append(invalid, model.FieldMinQuantity)
	}
	if cand.UnitPrice, ok = parsePrice(cols.Value(row.Cells, model.FieldUnitPrice)); !ok {
		invalid = append(invalid, model.FieldUnitPrice)
	}

	if n.strict && len(invalid) > 0 {
		o := model.Skipped(row.Line, model.ReasonInvalidNumber, fmt.Sprintf(
			"Line %d: invalid number in %s", row.Line, strings.Join(invalid, ", ")))
		return nil, &o
	}

	return cand, nil
}

func (n *RowNormalizer) missingRequired(cells []string) []string {
	var missing []string
	for _, field := range n.required {
		if err := validation.Validate(n.columns.Value(cells, field), validation.Required); err != nil {
			missing = append(missing, field)
		}
	}
	return missing
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ========================================
// NUMERIC COERCION
// ========================================
// Lenient: ô rỗng hoặc không parse được => 0. ok=false chỉ khi ô có nội
// dung mà không parse được, strict mode dùng cờ này để skip row.

// Cột quantity/min_quantity là Postgres INTEGER
var (
	quantityFloor = decimal.NewFromInt(math.MinInt32)
	quantityCeil  = decimal.NewFromInt(math.MaxInt32)
)

// parseQuantity: "10" => 10, "3.0" / "3,7" => 3 (truncate).
// Ngoài khoảng INTEGER => (0, false), không bao giờ wrap around.
func parseQuantity(s string) (int, bool) {
	if s == "" {
		return 0, true
	}
	if v, err := strconv.ParseInt(s, 10, 32); err == nil {
		return int(v), true
	}
	d, ok := parseDecimal(s)
	if !ok {
		return 0, false
	}
	d = d.Truncate(0)
	if d.LessThan(quantityFloor) || d.GreaterThan(quantityCeil) {
		return 0, false
	}
	return int(d.IntPart()), true
}

// parsePrice: "12.50", "12,50", "1.234,56", "€ 3,20" => decimal (2 chữ số)
func parsePrice(s string) (decimal.Decimal, bool) {
	if s == "" {
		return decimal.Zero, true
	}
	d, ok := parseDecimal(s)
	if !ok {
		return decimal.Zero, false
	}
	return d.Round(2), true
}

func parseDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(strings.Trim(s, "€$£ \u00a0"))
	s = strings.ReplaceAll(s, " ", "")

	lastDot := strings.LastIndexByte(s, '.')
	lastComma := strings.LastIndexByte(s, ',')
	switch {
	case lastComma >= 0 && lastDot >= 0 && lastComma > lastDot:
		// 1.234,56
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case lastComma >= 0 && lastDot >= 0:
		// 1,234.56
		s = strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			return decimal.Zero, false
		}
		s = strings.Replace(s, ",", ".", 1)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
