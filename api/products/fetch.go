package products

import (
	"errors"
	"net/http"

	"productos_catalog/handling"
	"productos_catalog/lib"
	"productos_catalog/structs/tables"

	"github.com/MonkyMars/gecho"
)

// FetchAllProducts handles GET /products
func (prm *ProductRoutesManager) FetchAllProducts(w http.ResponseWriter, r *http.Request) {
	products, err := prm.store.List(r.Context())
	if err != nil {
		handling.HandleError(err, "failed to fetch products", prm.logger, w)
		return
	}

	prm.logger.Debug("Fetched products", gecho.Field("count", len(products)))

	gecho.Success(w,
		gecho.WithData(products),
		gecho.Send(),
	)
}

// FetchProductByID handles GET /products/{id}. The payload is a list holding zero or one product.
func (prm *ProductRoutesManager) FetchProductByID(w http.ResponseWriter, r *http.Request) {
	id, err := handling.ParseProductID(r)
	if err != nil {
		gecho.BadRequest(w,
			gecho.WithMessage(err.Error()),
			gecho.Send(),
		)
		return
	}

	products, err := prm.findOne(r, id)
	if err != nil {
		handling.HandleError(err, "failed to fetch product", prm.logger, w)
		return
	}

	gecho.Success(w,
		gecho.WithData(products),
		gecho.Send(),
	)
}

// findOne wraps GetByID into the zero-or-one list both route families return
func (prm *ProductRoutesManager) findOne(r *http.Request, id int64) ([]tables.Product, error) {
	product, err := prm.store.GetByID(r.Context(), id)
	if errors.Is(err, lib.ErrNotFound) {
		return []tables.Product{}, nil
	}
	if err != nil {
		return nil, err
	}
	return []tables.Product{*product}, nil
}
