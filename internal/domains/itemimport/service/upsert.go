package service

import (
	"context"
	"errors"
	"fmt"

	itemmodel "inventory-backend/internal/domains/item/model"
	itemrepo "inventory-backend/internal/domains/item/repository"
	"inventory-backend/internal/domains/itemimport/model"
	"inventory-backend/pkg/database"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// errRaceUnresolved: insert đụng unique barcode nhưng đọc lại vẫn không thấy row
var errRaceUnresolved = errors.New("barcode conflict could not be resolved")

// UpsertEngine reconcile một CatalogItem với catalog theo barcode.
type UpsertEngine struct {
	items itemrepo.ItemRepository
}

func NewUpsertEngine(items itemrepo.ItemRepository) *UpsertEngine {
	return &UpsertEngine{items: items}
}

// Apply: lookup => insert nếu chưa có, update nếu đã có.
// Insert chạy trong savepoint riêng để unique violation không làm hỏng tx;
// khi đó đọc lại theo barcode rồi đi nhánh update (RaceResolved).
//
// Error trả về nghĩa là row thất bại; caller rollback savepoint của row.
func (u *UpsertEngine) Apply(ctx context.Context, tx pgx.Tx, line int, item *itemmodel.CatalogItem) (model.ImportOutcome, error) {
	_, err := u.items.FindByBarcodeTx(ctx, tx, item.Barcode)
	switch {
	case err == nil:
		if err := u.items.UpdateByBarcodeTx(ctx, tx, item); err != nil {
			return model.ImportOutcome{}, err
		}
		return model.Updated(line, item.Barcode), nil

	case !errors.Is(err, itemmodel.ErrItemNotFound):
		return model.ImportOutcome{}, err
	}

	insertErr := database.WithSavepoint(ctx, tx, func(sp pgx.Tx) error {
		_, err := u.items.InsertTx(ctx, sp, item)
		return err
	})
	if insertErr == nil {
		return model.Imported(line, item.Barcode), nil
	}
	if !errors.Is(insertErr, itemmodel.ErrDuplicateBarcode) {
		return model.ImportOutcome{}, insertErr
	}

	// writer khác đã tạo barcode giữa lookup và insert
	if _, err := u.items.FindByBarcodeTx(ctx, tx, item.Barcode); err != nil {
		if errors.Is(err, itemmodel.ErrItemNotFound) {
			return model.ImportOutcome{}, fmt.Errorf("%w: %s", errRaceUnresolved, item.Barcode)
		}
		return model.ImportOutcome{}, err
	}
	if err := u.items.UpdateByBarcodeTx(ctx, tx, item); err != nil {
		return model.ImportOutcome{}, err
	}

	log.Warn().Int("line", line).Str("barcode", item.Barcode).Msg("[IMPORT] Duplicate barcode race resolved via update")

	outcome := model.Updated(line, item.Barcode)
	outcome.RaceResolved = true
	outcome.Message = fmt.Sprintf("Line %d: barcode %s was created concurrently, row applied as update", line, item.Barcode)
	return outcome, nil
}
