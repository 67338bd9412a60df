package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/okian/simcat/internal/adapters/source"
	"github.com/okian/simcat/internal/domain/model"
	"github.com/okian/simcat/internal/domain/types"
)

// SearchDependencies defines the interface for ranking and detail reads.
type SearchDependencies interface {
	SearchCatalog(ctx context.Context, policy string, refine func(model.Criteria) model.Criteria) (model.Ranked, error)
	Simulation(ctx context.Context, id string) (model.Simulation, error)
}

// SimulationsHandler handles search and detail requests.
type SimulationsHandler struct {
	deps     SearchDependencies
	maxLimit int
}

// NewSimulationsHandler creates a new simulations handler.
func NewSimulationsHandler(deps SearchDependencies, maxLimit int) *SimulationsHandler {
	return &SimulationsHandler{deps: deps, maxLimit: maxLimit}
}

// HandleSearch handles GET /api/simulations.
//
// topic, role, week, type and difficulty accept repeated or comma separated
// values. An omitted type or difficulty allows every value the catalog has;
// a present but empty one allows none.
func (h *SimulationsHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	const op = "api.search"
	ctx := r.Context()
	q := r.URL.Query()

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > h.maxLimit {
			writeFailure(w, WrapKind(op, ErrBadRequest, fmt.Errorf("limit must be between 1 and %d, got %q", h.maxLimit, raw)))
			return
		}
		limit = n
	}

	policy := strings.TrimSpace(q.Get("policy"))
	ranked, err := h.deps.SearchCatalog(ctx, policy, func(def model.Criteria) model.Criteria {
		return criteriaFromQuery(q, def)
	})
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}

	results := ranked.Results
	total := len(results)
	if limit > 0 && limit < total {
		results = results[:limit]
	}
	body := types.SearchResult{
		Policy:         ranked.Policy,
		CatalogVersion: ranked.CatalogVersion,
		Total:          total,
		Count:          len(results),
		Results:        make([]types.Entry, len(results)),
	}
	for i, s := range results {
		body.Results[i] = types.Entry{Rank: i + 1, Simulation: source.EncodeSimulation(s)}
	}
	writeJSON(w, http.StatusOK, body)
}

// HandleGetSimulation handles GET /api/simulations/{id}.
func (h *SimulationsHandler) HandleGetSimulation(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_simulation"
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		writeFailure(w, NewKind(op, ErrBadRequest))
		return
	}
	sim, err := h.deps.Simulation(r.Context(), id)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, source.EncodeSimulation(sim))
}

// criteriaFromQuery builds the selection for a request on top of the catalog
// defaults. Type and difficulty keep the defaults unless the request names them.
func criteriaFromQuery(q url.Values, def model.Criteria) model.Criteria {
	c := def.
		WithTopics(queryValues(q, "topic")...).
		WithRoles(queryValues(q, "role")...).
		WithWeeks(queryValues(q, "week")...)
	if _, ok := q["type"]; ok {
		c = c.WithTypes(queryValues(q, "type")...)
	}
	if _, ok := q["difficulty"]; ok {
		c = c.WithDifficulties(queryValues(q, "difficulty")...)
	}
	return c
}

func queryValues(q url.Values, key string) []string {
	var out []string
	for _, raw := range q[key] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}
