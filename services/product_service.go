package services

import (
	"context"
	"errors"
	"fmt"
	"productos_catalog/database"
	"productos_catalog/lib"
	"productos_catalog/structs/tables"

	"github.com/MonkyMars/gecho"
	"github.com/uptrace/bun"
)

type ProductService struct {
	logger *gecho.Logger
	db     *database.DB
}

func NewProductService(logger *gecho.Logger, db *database.DB) *ProductService {
	return &ProductService{
		logger: logger,
		db:     db,
	}
}

func orderChildren(q *bun.SelectQuery) *bun.SelectQuery {
	return q.OrderExpr("?TableAlias.id ASC")
}

// withChildren preloads photos and documents in id order
func withChildren(q *database.QueryBuilder[tables.Product]) *database.QueryBuilder[tables.Product] {
	return q.Relation("Photos", orderChildren).Relation("Documents", orderChildren)
}

// normalize makes empty child lists encode as [] instead of null
func normalize(p *tables.Product) {
	if p.Photos == nil {
		p.Photos = []tables.ProductPhoto{}
	}
	if p.Documents == nil {
		p.Documents = []tables.Document{}
	}
}

// List returns every product with its photos and documents, ordered by id
func (ps *ProductService) List(ctx context.Context) ([]tables.Product, error) {
	products, err := withChildren(database.Query[tables.Product](ps.db)).
		OrderBy("id", database.ASC).
		All(ctx)
	if err != nil {
		ps.logger.Error("Failed to list products", gecho.Field("error", err))
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	if products == nil {
		products = []tables.Product{}
	}
	for i := range products {
		normalize(&products[i])
	}

	return products, nil
}

// GetByID returns the product with its children or lib.ErrNotFound
func (ps *ProductService) GetByID(ctx context.Context, id int64) (*tables.Product, error) {
	product, err := withChildren(database.Query[tables.Product](ps.db)).
		Where("id", id).
		First(ctx)
	if err != nil {
		ps.logger.Error("Failed to get product", gecho.Field("error", err), gecho.Field("product_id", id))
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, lib.ErrNotFound
	}

	normalize(product)
	return product, nil
}

// Create stores a new product and its children in one transaction. Identifiers on the input
// are ignored and regenerated.
func (ps *ProductService) Create(ctx context.Context, product *tables.Product) (*tables.Product, error) {
	created, err := database.TransactionWithResult(ps.db, ctx, func(ctx context.Context, tx bun.Tx) (*tables.Product, error) {
		row := &tables.Product{Name: product.Name, Number: product.Number}
		if _, err := database.Create(tx, ctx, row); err != nil {
			return nil, err
		}

		photos, documents, err := insertChildren(ctx, tx, row.ID, product.Photos, product.Documents)
		if err != nil {
			return nil, err
		}

		row.Photos = photos
		row.Documents = documents
		return row, nil
	})
	if err != nil {
		ps.logger.Error("Failed to create product", gecho.Field("error", err), gecho.Field("name", product.Name))
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	ps.logger.Debug("Product created", gecho.Field("product_id", created.ID))
	return created, nil
}

// Update overwrites name and number of an existing product and replaces its children. It never
// creates a product.
func (ps *ProductService) Update(ctx context.Context, id int64, product *tables.Product) error {
	err := database.Transaction(ps.db, ctx, func(ctx context.Context, tx bun.Tx) error {
		existing, err := database.FindByID[tables.Product](tx, ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return lib.ErrNotFound
		}

		if err := deleteChildren(ctx, tx, id); err != nil {
			return err
		}

		if _, err := database.UpdateByID[tables.Product](tx, ctx, id, map[string]any{
			"name":   product.Name,
			"number": product.Number,
		}); err != nil {
			return err
		}

		_, _, err = insertChildren(ctx, tx, id, product.Photos, product.Documents)
		return err
	})
	if err != nil {
		if errors.Is(err, lib.ErrNotFound) {
			return err
		}
		ps.logger.Error("Failed to update product", gecho.Field("error", err), gecho.Field("product_id", id))
		return fmt.Errorf("failed to update product: %w", err)
	}

	return nil
}

// Delete removes a product together with its photos and documents
func (ps *ProductService) Delete(ctx context.Context, id int64) error {
	err := database.Transaction(ps.db, ctx, func(ctx context.Context, tx bun.Tx) error {
		existing, err := database.FindByID[tables.Product](tx, ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return lib.ErrNotFound
		}

		if err := deleteChildren(ctx, tx, id); err != nil {
			return err
		}

		_, err = database.DeleteByID[tables.Product](tx, ctx, id)
		return err
	})
	if err != nil {
		if errors.Is(err, lib.ErrNotFound) {
			return err
		}
		ps.logger.Error("Failed to delete product", gecho.Field("error", err), gecho.Field("product_id", id))
		return fmt.Errorf("failed to delete product: %w", err)
	}

	return nil
}

// insertChildren stores photos and documents under productID with fresh identifiers
func insertChildren(ctx context.Context, tx bun.IDB, productID int64, photos []tables.ProductPhoto, documents []tables.Document) ([]tables.ProductPhoto, []tables.Document, error) {
	photoRows := make([]tables.ProductPhoto, 0, len(photos))
	for _, p := range photos {
		photoRows = append(photoRows, tables.ProductPhoto{LargePhoto: p.LargePhoto, ProductID: productID})
	}

	documentRows := make([]tables.Document, 0, len(documents))
	for _, d := range documents {
		documentRows = append(documentRows, tables.Document{
			Title:         d.Title,
			FileName:      d.FileName,
			FileExtension: d.FileExtension,
			Revision:      d.Revision,
			DocumentFile:  d.DocumentFile,
			ProductID:     productID,
		})
	}

	photoRows, err := database.CreateMany(tx, ctx, photoRows)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to insert photos: %w", err)
	}
	documentRows, err = database.CreateMany(tx, ctx, documentRows)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to insert documents: %w", err)
	}

	return photoRows, documentRows, nil
}

// deleteChildren removes every photo and document owned by productID
func deleteChildren(ctx context.Context, tx bun.IDB, productID int64) error {
	if _, err := database.Query[tables.ProductPhoto](tx).Where("product_id", productID).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete photos: %w", err)
	}
	if _, err := database.Query[tables.Document](tx).Where("product_id", productID).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}
	return nil
}
