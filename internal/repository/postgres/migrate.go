package postgres

import (
	"context"
	"database/sql"
	_ "embed"

	"iznajmi-backend/internal/logger"
)

//go:embed schema.sql
var schema string

// Migrate applies the schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	logger.Info("Applying database schema")
	_, err := db.ExecContext(ctx, schema)
	return err
}
