package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// WithTransaction function:
//     Begin transaction từ beginner (pool, conn hoặc một tx cha)
//     Defer rollback - tự động rollback nếu fn return error hoặc panic
//     Commit nếu không có error
//
// Khi beginner là một pgx.Tx, Begin tạo SAVEPOINT, nên cùng helper này
// dùng được cho nested scope (per-row savepoint trong import).

// TxBeginner is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TxFunc là function type được execute trong transaction
type TxFunc func(pgx.Tx) error

// WithTransaction wraps một function trong transaction
// Auto rollback nếu có error, auto commit nếu success
func WithTransaction(ctx context.Context, db TxBeginner, fn TxFunc) (err error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ErrSavepointFailed marks a failure of the savepoint machinery itself, as
// opposed to an error returned by the scoped function.
var ErrSavepointFailed = errors.New("savepoint failed")

// WithSavepoint runs fn inside a savepoint of tx. An error from fn rolls the
// savepoint back and is returned unchanged, leaving tx usable. Failures to
// create, release or roll back the savepoint are wrapped with
// ErrSavepointFailed because the enclosing transaction can no longer be
// trusted.
func WithSavepoint(ctx context.Context, tx pgx.Tx, fn TxFunc) error {
	sp, err := tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrSavepointFailed, err)
	}

	if fnErr := fn(sp); fnErr != nil {
		if rbErr := sp.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			return fmt.Errorf("%w: rollback after %q: %v", ErrSavepointFailed, fnErr.Error(), rbErr)
		}
		return fnErr
	}

	if err := sp.Commit(ctx); err != nil {
		return fmt.Errorf("%w: release: %v", ErrSavepointFailed, err)
	}
	return nil
}
