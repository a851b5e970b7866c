package products

import (
	"encoding/json"
	"errors"
	"net/http"

	"productos_catalog/handling"
	"productos_catalog/lib"
	"productos_catalog/structs"

	"github.com/MonkyMars/gecho"
)

// The /api/Product routes answer with bare JSON bodies instead of the envelope so older mobile
// builds keep working.

func (prm *ProductRoutesManager) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		prm.logger.Error("Failed to encode response", gecho.Field("error", err))
	}
}

// legacyFailure reports any store failure as 400, the only failure status old clients expect
func (prm *ProductRoutesManager) legacyFailure(w http.ResponseWriter, err error, id int64) {
	if errors.Is(err, lib.ErrNotFound) {
		prm.writeJSON(w, http.StatusNotFound, notFoundMessage(id))
		return
	}
	prm.logger.Error("Legacy product route failed", gecho.Field("error", err), gecho.Field("product_id", id))
	prm.writeJSON(w, http.StatusBadRequest, "request failed")
}

func (prm *ProductRoutesManager) legacyID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := handling.ParseProductID(r)
	if err != nil {
		prm.writeJSON(w, http.StatusBadRequest, err.Error())
		return 0, false
	}
	return id, true
}

func (prm *ProductRoutesManager) legacyBody(w http.ResponseWriter, r *http.Request) (*structs.ProductRequest, bool) {
	body, err := lib.ExtractAndValidateBody[structs.ProductRequest](r)
	if err != nil {
		var ve *lib.ValidationError
		if errors.As(err, &ve) {
			prm.writeJSON(w, http.StatusBadRequest, ve)
			return nil, false
		}
		prm.writeJSON(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	return body, true
}

func (prm *ProductRoutesManager) LegacyGetProducts(w http.ResponseWriter, r *http.Request) {
	products, err := prm.store.List(r.Context())
	if err != nil {
		prm.legacyFailure(w, err, 0)
		return
	}
	prm.writeJSON(w, http.StatusOK, products)
}

func (prm *ProductRoutesManager) LegacyGetProductByID(w http.ResponseWriter, r *http.Request) {
	id, ok := prm.legacyID(w, r)
	if !ok {
		return
	}

	products, err := prm.findOne(r, id)
	if err != nil {
		prm.legacyFailure(w, err, id)
		return
	}
	prm.writeJSON(w, http.StatusOK, products)
}

func (prm *ProductRoutesManager) LegacyCreateProduct(w http.ResponseWriter, r *http.Request) {
	body, ok := prm.legacyBody(w, r)
	if !ok {
		return
	}

	if _, err := prm.store.Create(r.Context(), body.ToTable()); err != nil {
		prm.legacyFailure(w, err, 0)
		return
	}
	prm.writeJSON(w, http.StatusOK, nil)
}

func (prm *ProductRoutesManager) LegacyUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := prm.legacyID(w, r)
	if !ok {
		return
	}
	body, ok := prm.legacyBody(w, r)
	if !ok {
		return
	}

	if err := prm.store.Update(r.Context(), id, body.ToTable()); err != nil {
		if errors.Is(err, lib.ErrNotFound) {
			prm.writeJSON(w, http.StatusNotFound, nil)
			return
		}
		prm.legacyFailure(w, err, id)
		return
	}
	prm.writeJSON(w, http.StatusOK, nil)
}

func (prm *ProductRoutesManager) LegacyDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := prm.legacyID(w, r)
	if !ok {
		return
	}

	if err := prm.store.Delete(r.Context(), id); err != nil {
		prm.legacyFailure(w, err, id)
		return
	}
	prm.writeJSON(w, http.StatusOK, nil)
}
