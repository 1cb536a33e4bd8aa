package model

import "errors"

// ============================================================
// SENTINEL ERRORS
// ============================================================
// Repository map *pgconn.PgError sang các error dưới đây,
// caller check bằng errors.Is().

var (
	ErrItemNotFound     = errors.New("item not found")
	ErrDuplicateBarcode = errors.New("item barcode already exists")

	ErrCategoryNotFound  = errors.New("category not found")
	ErrDuplicateCategory = errors.New("category name already exists")

	// ErrInvalidReference: foreign key violation (23503), ví dụ category_id
	// trỏ tới category không còn tồn tại.
	ErrInvalidReference = errors.New("invalid foreign reference")

	// ErrValueTooLong: 22001 string_data_right_truncation
	ErrValueTooLong = errors.New("value too long for column")
)
