package api

import (
	"net/http"

	"github.com/ampline/ampline/internal/api/respond"
	"github.com/ampline/ampline/internal/brand"
	"github.com/ampline/ampline/internal/store"
)

// BrandHandler exposes brand listing and disk-to-table sync.
type BrandHandler struct {
	loader *brand.Loader
	store  store.Store
}

func NewBrandHandler(loader *brand.Loader, s store.Store) *BrandHandler {
	return &BrandHandler{loader: loader, store: s}
}

// SyncBrands POST /api/v1/brands/sync
func (h *BrandHandler) SyncBrands(w http.ResponseWriter, r *http.Request) {
	if err := h.loader.Sync(r.Context(), h.store); err != nil {
		respond.WriteInternalError(w, err.Error(), RequestID(r.Context()))
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ok":         true,
		"request_id": RequestID(r.Context()),
	})
}

// ListBrands GET /api/v1/brands
func (h *BrandHandler) ListBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.store.Brands().List(r.Context())
	if err != nil {
		respond.WriteInternalError(w, err.Error(), RequestID(r.Context()))
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"brands":     brands,
		"count":      len(brands),
		"request_id": RequestID(r.Context()),
	})
}
