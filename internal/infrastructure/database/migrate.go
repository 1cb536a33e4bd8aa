package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	txutil "inventory-backend/pkg/database"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// MigrationNames trả về danh sách file migration theo thứ tự apply.
func MigrationNames() ([]string, error) {
	entries, err := fs.Glob(migrationFiles, "migrations/*.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}
	sort.Strings(entries)
	return entries, nil
}

// Migrate apply toàn bộ embedded migrations. Các file đều idempotent
// (IF NOT EXISTS), nên chạy lại nhiều lần là an toàn.
func Migrate(ctx context.Context, db TxStarter) error {
	names, err := MigrationNames()
	if err != nil {
		return err
	}

	return txutil.WithTransaction(ctx, db, func(tx pgx.Tx) error {
		for _, name := range names {
			body, err := migrationFiles.ReadFile(name)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", name, err)
			}
			if _, err := tx.Exec(ctx, string(body)); err != nil {
				return fmt.Errorf("failed to apply %s: %w", name, err)
			}
			log.Info().Str("migration", name).Msg("[DATABASE] Migration applied")
		}
		return nil
	})
}

// TxStarter is satisfied by *pgxpool.Pool and *pgx.Conn.
type TxStarter = txutil.TxBeginner
