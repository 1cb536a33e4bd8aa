package service

import (
	"context"
	"errors"
	"fmt"

	"inventory-backend/internal/domains/itemimport/model"
	"inventory-backend/pkg/database"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// BatchController gom N row thành công vào một transaction window.
// Window được mở lazy khi row kế tiếp cần tx, nên không có tx rỗng ở cuối.
//
// db có thể là pool (import thật) hoặc một pgx.Tx ngoài (dry run):
// khi đó mỗi window là một savepoint.
type BatchController struct {
	db   database.TxBeginner
	size int

	tx        pgx.Tx
	succeeded int
	rows      int
	committed int
}

func NewBatchController(db database.TxBeginner, size int) *BatchController {
	if size < 1 {
		size = 1
	}
	return &BatchController{db: db, size: size}
}

// Tx trả về window đang mở, mở mới nếu chưa có.
func (b *BatchController) Tx(ctx context.Context) (pgx.Tx, error) {
	if b.tx != nil {
		return b.tx, nil
	}

	tx, err := b.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: begin window: %v", model.ErrCommitFailed, err)
	}
	b.tx = tx
	b.succeeded = 0
	b.rows = 0
	return tx, nil
}

// RowDone ghi nhận một row đã xử lý; commit khi đủ size row thành công.
func (b *BatchController) RowDone(ctx context.Context, succeeded bool) error {
	b.rows++
	if !succeeded {
		return nil
	}

	b.succeeded++
	if b.succeeded >= b.size {
		return b.commit(ctx)
	}
	return nil
}

// Finish commit window còn mở ở end-of-stream.
func (b *BatchController) Finish(ctx context.Context) error {
	if b.tx == nil {
		return nil
	}
	return b.commit(ctx)
}

// Abort rollback window còn mở. Dùng khi cancel hoặc lỗi fatal.
func (b *BatchController) Abort(ctx context.Context) error {
	if b.tx == nil {
		return nil
	}

	tx := b.tx
	b.tx = nil
	if err := tx.Rollback(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		log.Error().Err(err).Int("rows", b.rows).Msg("[IMPORT] Window rollback failed")
		return fmt.Errorf("rollback window: %w", err)
	}

	log.Warn().Int("rows", b.rows).Msg("[IMPORT] Open window rolled back")
	return nil
}

// Committed là số window đã commit thành công.
func (b *BatchController) Committed() int {
	return b.committed
}

// commit chạy với context không bị cancel: window đang commit phải
// hoàn tất hoặc fail hẳn, không bị cắt giữa chừng.
func (b *BatchController) commit(ctx context.Context) error {
	tx := b.tx
	b.tx = nil

	if err := tx.Commit(context.WithoutCancel(ctx)); err != nil {
		_ = tx.Rollback(context.WithoutCancel(ctx))
		log.Error().Err(err).Int("rows", b.rows).Msg("[IMPORT] Window commit failed")
		return fmt.Errorf("%w: %v", model.ErrCommitFailed, err)
	}

	b.committed++
	log.Debug().
		Int("window", b.committed).
		Int("rows", b.rows).
		Int("succeeded", b.succeeded).
		Msg("[IMPORT] Window committed")
	return nil
}
