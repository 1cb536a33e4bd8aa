package model

// Canonical fields: tên nội bộ cố định mà mọi header alias map về.
const (
	FieldBarcode     = "barcode"
	FieldName        = "name"
	FieldDescription = "description"
	FieldCategory    = "category"
	FieldQuantity    = "quantity"
	FieldMinQuantity = "min_quantity"
	FieldUnitPrice   = "unit_price"
	FieldLocation    = "location"
	FieldSupplier    = "supplier"
)

// CanonicalFields theo thứ tự resolve.
var CanonicalFields = []string{
	FieldBarcode,
	FieldName,
	FieldDescription,
	FieldCategory,
	FieldQuantity,
	FieldMinQuantity,
	FieldUnitPrice,
	FieldLocation,
	FieldSupplier,
}

// AlwaysRequired luôn bắt buộc, bất kể config: không có barcode thì không
// upsert được, không có name thì không insert được.
var AlwaysRequired = []string{FieldBarcode, FieldName}

func IsCanonicalField(name string) bool {
	for _, f := range CanonicalFields {
		if f == name {
			return true
		}
	}
	return false
}
