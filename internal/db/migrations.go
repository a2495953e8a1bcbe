package db

import (
	"context"
	"fmt"
	"strings"
)

// migrations are applied in order after the base schema. Each migration must
// be idempotent and valid in both dialects. Append new migrations at the end.
var migrations = []string{
	// Migration 1: balance aggregation reads every movement of one product.
	`CREATE INDEX IF NOT EXISTS idx_stock_movements_product_type
	     ON stock_movements(product_id, movement_type)`,
	// Migration 2: default listing order is most recent first.
	`CREATE INDEX IF NOT EXISTS idx_stock_movements_date_time
	     ON stock_movements(movement_date DESC, movement_time DESC, id DESC)`,
}

// Migrate creates the schema and runs the migrations.
func Migrate(ctx context.Context, d *DB) error {
	for _, stmt := range statements(d.dialect.schema()) {
		if _, err := d.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}

	for i, m := range migrations {
		if _, err := d.Exec(ctx, m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}

// statements splits a schema script into single statements.
func statements(script string) []string {
	var out []string
	for _, s := range strings.Split(script, ";") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
