package products

import (
	"errors"
	"fmt"
	"net/http"

	"productos_catalog/api/middleware"
	"productos_catalog/handling"
	"productos_catalog/lib"
	"productos_catalog/structs"

	"github.com/MonkyMars/gecho"
)

// CreateProduct handles POST /products
func (prm *ProductRoutesManager) CreateProduct(w http.ResponseWriter, r *http.Request) {
	body, ok := prm.readBody(w, r)
	if !ok {
		return
	}

	created, err := prm.store.Create(r.Context(), body.ToTable())
	if err != nil {
		handling.HandleError(err, "failed to create product", prm.logger, w)
		return
	}
	prm.logMutation(r, "create", created.ID)

	gecho.Success(w,
		gecho.WithMessage("Product created"),
		gecho.Send(),
	)
}

// UpdateProduct handles PUT /products/{id}
func (prm *ProductRoutesManager) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := handling.ParseProductID(r)
	if err != nil {
		gecho.BadRequest(w, gecho.WithMessage(err.Error()), gecho.Send())
		return
	}

	body, ok := prm.readBody(w, r)
	if !ok {
		return
	}

	if err := prm.store.Update(r.Context(), id, body.ToTable()); err != nil {
		if errors.Is(err, lib.ErrNotFound) {
			gecho.NotFound(w, gecho.WithMessage(notFoundMessage(id)), gecho.Send())
			return
		}
		handling.HandleError(err, "failed to update product", prm.logger, w)
		return
	}
	prm.logMutation(r, "update", id)

	gecho.Success(w,
		gecho.WithMessage("Product updated"),
		gecho.Send(),
	)
}

// DeleteProduct handles DELETE /products/{id}
func (prm *ProductRoutesManager) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := handling.ParseProductID(r)
	if err != nil {
		gecho.BadRequest(w, gecho.WithMessage(err.Error()), gecho.Send())
		return
	}

	if err := prm.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, lib.ErrNotFound) {
			gecho.NotFound(w, gecho.WithMessage(notFoundMessage(id)), gecho.Send())
			return
		}
		handling.HandleError(err, "failed to delete product", prm.logger, w)
		return
	}
	prm.logMutation(r, "delete", id)

	gecho.Success(w,
		gecho.WithMessage("Product deleted"),
		gecho.Send(),
	)
}

// callerOf names the service that signed the request token, or "anonymous" without one
func callerOf(r *http.Request) string {
	if claims, ok := middleware.GetClaimsFromContext(r.Context()); ok && claims.Subject != "" {
		return claims.Subject
	}
	return "anonymous"
}

func (prm *ProductRoutesManager) logMutation(r *http.Request, action string, id int64) {
	prm.logger.Info("Catalog mutation",
		gecho.Field("action", action),
		gecho.Field("product_id", id),
		gecho.Field("caller", callerOf(r)),
	)
}

func notFoundMessage(id int64) string {
	return fmt.Sprintf("No product found with id %d", id)
}

// readBody decodes and validates the product body, answering 400 itself on failure
func (prm *ProductRoutesManager) readBody(w http.ResponseWriter, r *http.Request) (*structs.ProductRequest, bool) {
	body, err := lib.ExtractAndValidateBody[structs.ProductRequest](r)
	if err != nil {
		var ve *lib.ValidationError
		if errors.As(err, &ve) {
			handling.HandleError(err, "invalid product", prm.logger, w)
			return nil, false
		}
		prm.logger.Warn("Invalid product body", gecho.Field("error", err))
		gecho.BadRequest(w,
			gecho.WithMessage("Invalid request body"),
			gecho.Send(),
		)
		return nil, false
	}
	return body, true
}
