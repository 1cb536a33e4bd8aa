package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"inventory-backend/internal/domains/item/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgStringTooLong       = "22001"

	itemsBarcodeConstraint   = "items_barcode_key"
	categoriesNameConstraint = "idx_categories_name_lower"
)

type postgresItemRepository struct{}

// NewItemRepository tạo repository cho bảng items.
// Không giữ pool: mọi method nhận tx từ caller.
func NewItemRepository() ItemRepository {
	return &postgresItemRepository{}
}

const itemColumns = `
	id, barcode, name, description, category_id,
	quantity, min_quantity, unit_price, location, supplier,
	created_at, updated_at`

func (r *postgresItemRepository) FindByBarcodeTx(ctx context.Context, tx pgx.Tx, barcode string) (*model.CatalogItem, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE barcode = $1 LIMIT 1`

	var it model.CatalogItem
	err := tx.QueryRow(ctx, query, barcode).Scan(
		&it.ID,
		&it.Barcode,
		&it.Name,
		&it.Description,
		&it.CategoryID,
		&it.Quantity,
		&it.MinQuantity,
		&it.UnitPrice,
		&it.Location,
		&it.Supplier,
		&it.CreatedAt,
		&it.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to find item by barcode: %w", err)
	}

	return &it, nil
}

func (r *postgresItemRepository) InsertTx(ctx context.Context, tx pgx.Tx, it *model.CatalogItem) (int64, error) {
	const query = `
		INSERT INTO items (
			barcode, name, description, category_id,
			quantity, min_quantity, unit_price, location, supplier,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING id
	`

	var id int64
	err := tx.QueryRow(ctx, query,
		it.Barcode,
		it.Name,
		it.Description,
		it.CategoryID,
		it.Quantity,
		it.MinQuantity,
		it.UnitPrice,
		it.Location,
		it.Supplier,
	).Scan(&id)
	if err != nil {
		return 0, mapItemError("insert", err)
	}

	it.ID = id
	return id, nil
}

func (r *postgresItemRepository) UpdateByBarcodeTx(ctx context.Context, tx pgx.Tx, it *model.CatalogItem) error {
	const query = `
		UPDATE items
		SET name = $2,
			description = $3,
			category_id = $4,
			quantity = $5,
			min_quantity = $6,
			unit_price = $7,
			location = $8,
			supplier = $9,
			updated_at = NOW()
		WHERE barcode = $1
	`

	tag, err := tx.Exec(ctx, query,
		it.Barcode,
		it.Name,
		it.Description,
		it.CategoryID,
		it.Quantity,
		it.MinQuantity,
		it.UnitPrice,
		it.Location,
		it.Supplier,
	)
	if err != nil {
		return mapItemError("update", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrItemNotFound
	}
	return nil
}

// mapItemError map Postgres error codes sang domain errors
func mapItemError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			if pgErr.ConstraintName == itemsBarcodeConstraint || strings.Contains(pgErr.ConstraintName, "barcode") {
				return model.ErrDuplicateBarcode
			}
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %s", model.ErrInvalidReference, pgErr.ConstraintName)
		case pgStringTooLong:
			return fmt.Errorf("%w: %s", model.ErrValueTooLong, pgErr.Message)
		}
	}
	return fmt.Errorf("failed to %s item: %w", op, err)
}

// ========================================
// CATEGORIES
// ========================================

type postgresCategoryRepository struct{}

func NewCategoryRepository() CategoryRepository {
	return &postgresCategoryRepository{}
}

func (r *postgresCategoryRepository) ListAllTx(ctx context.Context, tx pgx.Tx) ([]model.Category, error) {
	const query = `
		SELECT id, name, description, created_at, updated_at
		FROM categories
		ORDER BY id
	`

	rows, err := tx.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var out []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}

	return out, nil
}

// FindByNameTx tìm category by name (case-insensitive)
func (r *postgresCategoryRepository) FindByNameTx(ctx context.Context, tx pgx.Tx, name string) (*model.Category, error) {
	const query = `
		SELECT id, name, description, created_at, updated_at
		FROM categories
		WHERE LOWER(name) = LOWER(TRIM($1))
		LIMIT 1
	`

	var c model.Category
	err := tx.QueryRow(ctx, query, name).Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to find category: %w", err)
	}

	return &c, nil
}

func (r *postgresCategoryRepository) CreateTx(ctx context.Context, tx pgx.Tx, name string) (*model.Category, error) {
	const query = `
		INSERT INTO categories (name, created_at, updated_at)
		VALUES ($1, NOW(), NOW())
		RETURNING id, name, description, created_at, updated_at
	`

	var c model.Category
	err := tx.QueryRow(ctx, query, name).Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == categoriesNameConstraint {
				return nil, model.ErrDuplicateCategory
			}
			if pgErr.Code == pgStringTooLong {
				return nil, fmt.Errorf("%w: %s", model.ErrValueTooLong, pgErr.Message)
			}
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	return &c, nil
}
