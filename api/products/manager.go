package products

import (
	"context"
	"net/http"

	"productos_catalog/structs/tables"

	"github.com/MonkyMars/gecho"
	"github.com/go-chi/chi/v5"
)

// CatalogStore is the persistence surface the product routes depend on
type CatalogStore interface {
	List(ctx context.Context) ([]tables.Product, error)
	GetByID(ctx context.Context, id int64) (*tables.Product, error)
	Create(ctx context.Context, product *tables.Product) (*tables.Product, error)
	Update(ctx context.Context, id int64, product *tables.Product) error
	Delete(ctx context.Context, id int64) error
}

type ProductRoutesManager struct {
	logger *gecho.Logger
	store  CatalogStore
	guard  func(http.Handler) http.Handler
}

// NewProductRoutesManager wires the product routes. guard protects the mutating routes and may
// be nil.
func NewProductRoutesManager(logger *gecho.Logger, store CatalogStore, guard func(http.Handler) http.Handler) *ProductRoutesManager {
	return &ProductRoutesManager{
		logger: logger,
		store:  store,
		guard:  guard,
	}
}

func (prm *ProductRoutesManager) RegisterRoutes(r chi.Router) {
	r.Get("/products", prm.FetchAllProducts)
	r.Get("/products/{id}", prm.FetchProductByID)

	r.Group(func(r chi.Router) {
		if prm.guard != nil {
			r.Use(prm.guard)
		}
		r.Post("/products", prm.CreateProduct)
		r.Put("/products/{id}", prm.UpdateProduct)
		r.Delete("/products/{id}", prm.DeleteProduct)
	})

	r.Route("/api/Product", func(r chi.Router) {
		r.Get("/getProducts", prm.LegacyGetProducts)
		r.Get("/getProductById/{id}", prm.LegacyGetProductByID)

		r.Group(func(r chi.Router) {
			if prm.guard != nil {
				r.Use(prm.guard)
			}
			r.Post("/createProduct", prm.LegacyCreateProduct)
			r.Put("/updateProduct/{id}", prm.LegacyUpdateProduct)
			r.Delete("/deleteProduct/{id}", prm.LegacyDeleteProduct)
		})
	})
}
