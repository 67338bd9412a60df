package api

import (
	"context"
	"net/http"

	"github.com/okian/simcat/internal/adapters/source"
	"github.com/okian/simcat/internal/domain/model"
)

// CatalogDependencies defines the interface for catalog reads.
type CatalogDependencies interface {
	Catalog(ctx context.Context) (model.Catalog, error)
}

// CatalogHandler serves the whole catalog.
type CatalogHandler struct {
	deps CatalogDependencies
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(deps CatalogDependencies) *CatalogHandler {
	return &CatalogHandler{deps: deps}
}

// HandleGetAll handles GET /api/all. The body uses the same shape the
// catalog backend serves, so one instance can feed another.
func (h *CatalogHandler) HandleGetAll(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_all"
	c, err := h.deps.Catalog(r.Context())
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, source.Encode(c))
}
