package db

import (
	"context"
	_ "embed"
	"strings"
)

//go:embed schema.sql
var Schema string

// Migrate creates the tables if they do not exist yet, one statement per Exec.
func Migrate(ctx context.Context, db DBTX) error {
	for _, stmt := range strings.Split(Schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		_, err := db.ExecContext(ctx, stmt)
		if err != nil {
			return err
		}
	}
	return nil
}
