package repository

import (
	"context"

	"inventory-backend/internal/domains/item/model"

	"github.com/jackc/pgx/v5"
)

// ItemRepository: mọi thao tác ghi đều chạy trong tx do caller quản lý
// (window transaction hoặc savepoint của import).
type ItemRepository interface {
	// FindByBarcodeTx trả về model.ErrItemNotFound nếu không có
	FindByBarcodeTx(ctx context.Context, tx pgx.Tx, barcode string) (*model.CatalogItem, error)
	// InsertTx trả về model.ErrDuplicateBarcode khi vi phạm unique barcode
	InsertTx(ctx context.Context, tx pgx.Tx, item *model.CatalogItem) (int64, error)
	// UpdateByBarcodeTx ghi đè mọi field mutable, trừ barcode
	UpdateByBarcodeTx(ctx context.Context, tx pgx.Tx, item *model.CatalogItem) error
}

type CategoryRepository interface {
	// ListAllTx dùng để preload category cache trước khi xử lý row
	ListAllTx(ctx context.Context, tx pgx.Tx) ([]model.Category, error)
	// FindByNameTx so khớp case-insensitive, trả về model.ErrCategoryNotFound nếu không có
	FindByNameTx(ctx context.Context, tx pgx.Tx, name string) (*model.Category, error)
	// CreateTx trả về model.ErrDuplicateCategory khi đụng unique LOWER(name)
	CreateTx(ctx context.Context, tx pgx.Tx, name string) (*model.Category, error)
}
