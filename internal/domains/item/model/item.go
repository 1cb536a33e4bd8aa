package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ========================================
// CATALOG ITEM (DB)
// ========================================

// CatalogItem là một dòng trong bảng items, key theo barcode.
// Barcode không bao giờ bị import ghi đè.
type CatalogItem struct {
	ID          int64           `json:"id" db:"id"`
	Barcode     string          `json:"barcode" db:"barcode"`
	Name        string          `json:"name" db:"name"`
	Description *string         `json:"description,omitempty" db:"description"`
	CategoryID  *int64          `json:"category_id,omitempty" db:"category_id"`
	Quantity    int             `json:"quantity" db:"quantity"`
	MinQuantity int             `json:"min_quantity" db:"min_quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price" db:"unit_price"`
	Location    *string         `json:"location,omitempty" db:"location"`
	Supplier    *string         `json:"supplier,omitempty" db:"supplier"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// Category là bucket phân loại free-text.
// Tên unique theo LOWER(name) nhưng lưu nguyên casing gốc.
type Category struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
