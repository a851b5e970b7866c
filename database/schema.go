package database

import (
	"context"
	"fmt"

	"productos_catalog/structs/tables"

	"github.com/uptrace/bun"
)

const productForeignKey = `("product_id") REFERENCES "products" ("id") ON DELETE CASCADE`

// CreateSchema creates the catalog tables and their indexes when they do not exist yet
func CreateSchema(ctx context.Context, db bun.IDB) error {
	if _, err := db.NewCreateTable().
		Model((*tables.Product)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create products table: %w", err)
	}

	children := []struct {
		model any
		name  string
	}{
		{(*tables.ProductPhoto)(nil), "product_photos"},
		{(*tables.Document)(nil), "documents"},
	}

	for _, child := range children {
		if _, err := db.NewCreateTable().
			Model(child.model).
			IfNotExists().
			ForeignKey(productForeignKey).
			Exec(ctx); err != nil {
			return fmt.Errorf("create %s table: %w", child.name, err)
		}

		if _, err := db.NewCreateIndex().
			Model(child.model).
			Index(child.name + "_product_id_idx").
			Column("product_id").
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("create %s index: %w", child.name, err)
		}
	}

	return nil
}
