package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/HerbHall/rigforge/internal/services"
	pkgcatalog "github.com/HerbHall/rigforge/pkg/catalog"
	"github.com/HerbHall/rigforge/pkg/plugin"
)

// maxQueryBody caps the POST /query request body.
const maxQueryBody = 1 << 20

// QueryRequest is the body of POST /api/v1/catalog/query.
type QueryRequest struct {
	Category string `json:"category,omitempty"`
	pkgcatalog.QueryState
}

// QueryResponse is the response for POST /api/v1/catalog/query.
type QueryResponse struct {
	Count int               `json:"count"`
	Items []pkgcatalog.Item `json:"items"`
}

// Handler serves the public catalog API.
type Handler struct {
	engine   *Engine
	products *productSource
	repo     services.ProductRepository
	metrics  *metrics
	logger   *zap.Logger
}

func newHandler(engine *Engine, products *productSource, repo services.ProductRepository, m *metrics, logger *zap.Logger) *Handler {
	return &Handler{engine: engine, products: products, repo: repo, metrics: m, logger: logger}
}

// Routes returns the module routes, relative to /api/v1/catalog.
func (h *Handler) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: http.MethodGet, Path: "/products", Handler: h.handleListProducts},
		{Method: http.MethodGet, Path: "/products/{id}", Handler: h.handleGetProduct},
		{Method: http.MethodGet, Path: "/filter-groups", Handler: h.handleFilterGroups},
		{Method: http.MethodGet, Path: "/options", Handler: h.handleOptions},
		{Method: http.MethodPost, Path: "/query", Handler: h.handleQuery},
	}
}

// handleListProducts returns the product list, optionally pre-filtered by
// category.
//
//	@Summary		List products
//	@Description	Returns every product. category=pc selects all prebuilt PCs; any other value is an exact category match.
//	@Tags			catalog
//	@Produce		json
//	@Param			category query string false "Category pre-filter"
//	@Success		200 {array} pkgcatalog.Item
//	@Failure		500 {object} map[string]any
//	@Router			/catalog/products [get]
func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	items, err := h.products.List(r.Context(), strings.TrimSpace(r.URL.Query().Get("category")))
	if err != nil {
		h.logger.Error("failed to list products", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load products")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// handleGetProduct returns a single product.
//
//	@Summary		Get product
//	@Tags			catalog
//	@Produce		json
//	@Param			id path string true "Product ID"
//	@Success		200 {object} pkgcatalog.Item
//	@Failure		404 {object} map[string]any
//	@Router			/catalog/products/{id} [get]
func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	item, err := h.repo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product "+id+" not found")
			return
		}
		h.logger.Error("failed to get product", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load product")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// handleFilterGroups returns the filter groups of a category. Option groups
// without a static option list are filled from the category's products.
//
//	@Summary		Get filter groups
//	@Tags			catalog
//	@Produce		json
//	@Param			category query string false "Top-level category"
//	@Success		200 {array} pkgcatalog.FilterGroup
//	@Failure		500 {object} map[string]any
//	@Router			/catalog/filter-groups [get]
func (h *Handler) handleFilterGroups(w http.ResponseWriter, r *http.Request) {
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	groups := FilterGroups(category)

	var items []pkgcatalog.Item
	for i := range groups {
		g := &groups[i]
		if g.Kind == pkgcatalog.KindRange || len(g.Options) > 0 {
			continue
		}
		if items == nil {
			var err error
			items, err = h.products.List(r.Context(), category)
			if err != nil {
				h.logger.Error("failed to load products for filter groups", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "failed to load products")
				return
			}
		}
		g.Options = ExtractOptions(items, g.Title)
	}
	writeJSON(w, http.StatusOK, groups)
}

// handleOptions returns the distinct options of one spec dimension.
//
//	@Summary		List dimension options
//	@Tags			catalog
//	@Produce		json
//	@Param			dimension query string true "Spec dimension (cpu, gpu, ram, ...)"
//	@Param			category query string false "Category pre-filter"
//	@Success		200 {array} pkgcatalog.Option
//	@Failure		400 {object} map[string]any
//	@Router			/catalog/options [get]
func (h *Handler) handleOptions(w http.ResponseWriter, r *http.Request) {
	dimension := strings.TrimSpace(r.URL.Query().Get("dimension"))
	if dimension == "" {
		writeError(w, http.StatusBadRequest, "dimension is required")
		return
	}
	items, err := h.products.List(r.Context(), strings.TrimSpace(r.URL.Query().Get("category")))
	if err != nil {
		h.logger.Error("failed to load products for options", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load products")
		return
	}
	writeJSON(w, http.StatusOK, ExtractOptions(items, dimension))
}

// handleQuery runs the filtering pipeline over the current products.
//
//	@Summary		Query the catalog
//	@Description	Applies text search, price range, category and spec filters, then sorts. Filters that do not belong to the given category are ignored.
//	@Tags			catalog
//	@Accept			json
//	@Produce		json
//	@Param			request body QueryRequest true "Query state"
//	@Success		200 {object} QueryResponse
//	@Failure		400 {object} map[string]any
//	@Router			/catalog/query [post]
func (h *Handler) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQueryBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	category := strings.TrimSpace(req.Category)
	items, err := h.products.List(r.Context(), category)
	if err != nil {
		h.logger.Error("failed to load products for query", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load products")
		return
	}

	state := req.QueryState
	if category != "" {
		state.ActiveFilters = SanitizeFilters(state.ActiveFilters, FilterGroups(category))
	}

	result := h.engine.Query(items, state)
	h.metrics.queries.Inc()
	h.metrics.queryResults.Observe(float64(len(result)))

	writeJSON(w, http.StatusOK, QueryResponse{Count: len(result), Items: result})
}

// -- helpers --

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":   "https://rigforge.dev/problems/catalog-error",
		"title":  http.StatusText(status),
		"status": status,
		"detail": detail,
	})
}
