package admin

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/HerbHall/rigforge/internal/services"
	"github.com/HerbHall/rigforge/pkg/catalog"
	"github.com/HerbHall/rigforge/pkg/plugin"
)

const (
	maxProductBody = 1 << 20
	maxImportBody  = 10 << 20
)

// Routes returns the admin routes, relative to /api/v1/admin.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: http.MethodGet, Path: "/products", Handler: m.handleListProducts, Roles: staffRoles},
		{Method: http.MethodPost, Path: "/products", Handler: m.handleCreateProduct, Roles: staffRoles},
		{Method: http.MethodGet, Path: "/products/export", Handler: m.handleExportProducts, Roles: staffRoles},
		{Method: http.MethodPost, Path: "/products/import", Handler: m.handleImportProducts, Roles: staffRoles},
		{Method: http.MethodPut, Path: "/products/{id}", Handler: m.handleUpdateProduct, Roles: staffRoles},
		{Method: http.MethodDelete, Path: "/products/{id}", Handler: m.handleDeleteProduct, Roles: staffRoles},
	}
}

// productRequest is the body for create and update.
type productRequest struct {
	ID          string            `json:"id,omitempty"`
	Name        string            `json:"name"`
	Category    string            `json:"category"`
	Description string            `json:"description"`
	Specs       map[string]string `json:"specs"`
	Price       float64           `json:"price"`
	ImageURL    *string           `json:"imageUrl"`
	Stock       int               `json:"stock"`
}

func (req productRequest) item() catalog.Item {
	return catalog.Item{
		ID:          strings.TrimSpace(req.ID),
		Name:        strings.TrimSpace(req.Name),
		Category:    strings.ToLower(strings.TrimSpace(req.Category)),
		Description: req.Description,
		Specs:       req.Specs,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		Stock:       req.Stock,
	}
}

// ImportError describes one CSV row that could not be imported.
type ImportError struct {
	Line  int    `json:"line"`
	ID    string `json:"id,omitempty"`
	Error string `json:"error"`
}

// ImportResult summarizes a CSV import.
type ImportResult struct {
	Imported int           `json:"imported"`
	Failed   int           `json:"failed"`
	Errors   []ImportError `json:"errors"`
}

// handleListProducts returns a paginated product list.
//
//	@Summary		List products (admin)
//	@Tags			admin
//	@Produce		json
//	@Security		BearerAuth
//	@Param			category query string false "Exact category"
//	@Param			search query string false "Substring of name or description"
//	@Param			in_stock query bool false "Only products in stock"
//	@Param			limit query int false "Max results" default(50)
//	@Param			offset query int false "Results to skip" default(0)
//	@Param			sort query string false "name, price, stock or created_at"
//	@Param			order query string false "asc or desc" default(desc)
//	@Success		200 {object} services.ListResult[catalog.Item]
//	@Failure		500 {object} map[string]any
//	@Router			/admin/products [get]
func (m *Module) handleListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := services.ProductFilter{
		Category: strings.ToLower(strings.TrimSpace(q.Get("category"))),
		Search:   strings.TrimSpace(q.Get("search")),
		InStock:  q.Get("in_stock") == "true",
	}
	opts := services.ListOptions{
		Limit:     adminParseInt(r, "limit", 50),
		Offset:    adminParseInt(r, "offset", 0),
		SortBy:    q.Get("sort"),
		SortOrder: q.Get("order"),
	}

	result, err := m.repo.List(r.Context(), filter, opts)
	if err != nil {
		m.logger.Error("failed to list products", zap.Error(err))
		adminWriteError(w, http.StatusInternalServerError, "failed to list products")
		return
	}
	adminWriteJSON(w, http.StatusOK, result)
}

// handleCreateProduct creates a product. A UUID is generated when no ID is
// supplied.
//
//	@Summary		Create product
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request body productRequest true "Product"
//	@Success		201 {object} catalog.Item
//	@Failure		400 {object} map[string]any
//	@Failure		409 {object} map[string]any
//	@Router			/admin/products [post]
func (m *Module) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxProductBody)).Decode(&req); err != nil {
		adminWriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	item := req.item()
	if err := m.repo.Create(r.Context(), &item); err != nil {
		m.writeRepoError(w, "create", item.ID, err)
		return
	}

	m.logger.Info("product created", zap.String("id", item.ID), zap.String("name", item.Name))
	m.publishChange(r.Context(), "created", item.ID)
	adminWriteJSON(w, http.StatusCreated, item)
}

// handleUpdateProduct replaces a product's fields.
//
//	@Summary		Update product
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id path string true "Product ID"
//	@Param			request body productRequest true "Product"
//	@Success		200 {object} catalog.Item
//	@Failure		400 {object} map[string]any
//	@Failure		404 {object} map[string]any
//	@Router			/admin/products/{id} [put]
func (m *Module) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req productRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxProductBody)).Decode(&req); err != nil {
		adminWriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ID != "" && req.ID != id {
		adminWriteError(w, http.StatusBadRequest, "body id does not match path id")
		return
	}

	item := req.item()
	item.ID = id
	if err := m.repo.Update(r.Context(), &item); err != nil {
		m.writeRepoError(w, "update", id, err)
		return
	}

	m.logger.Info("product updated", zap.String("id", id))
	m.publishChange(r.Context(), "updated", id)
	adminWriteJSON(w, http.StatusOK, item)
}

// handleDeleteProduct removes a product.
//
//	@Summary		Delete product
//	@Tags			admin
//	@Security		BearerAuth
//	@Param			id path string true "Product ID"
//	@Success		204
//	@Failure		404 {object} map[string]any
//	@Router			/admin/products/{id} [delete]
func (m *Module) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := m.repo.Delete(r.Context(), id); err != nil {
		m.writeRepoError(w, "delete", id, err)
		return
	}

	m.logger.Info("product deleted", zap.String("id", id))
	m.publishChange(r.Context(), "deleted", id)
	w.WriteHeader(http.StatusNoContent)
}

// handleExportProducts streams the products as CSV.
//
//	@Summary		Export products as CSV
//	@Tags			admin
//	@Produce		text/csv
//	@Security		BearerAuth
//	@Param			category query string false "Exact category"
//	@Success		200 {string} string "CSV file"
//	@Failure		500 {object} map[string]any
//	@Router			/admin/products/export [get]
func (m *Module) handleExportProducts(w http.ResponseWriter, r *http.Request) {
	category := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("category")))
	items, err := m.repo.All(r.Context(), category)
	if err != nil {
		m.logger.Error("failed to load products for export", zap.Error(err))
		adminWriteError(w, http.StatusInternalServerError, "failed to export products")
		return
	}

	filename := fmt.Sprintf("products-%s.csv", m.now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	_ = cw.Write(csvHeaders())
	for i := range items {
		_ = cw.Write(productToCSVRow(items[i]))
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		m.logger.Warn("product export interrupted", zap.Error(err))
	}
}

// handleImportProducts upserts products from a CSV body. Rows that fail to
// parse or validate are reported and skipped; the rest are imported.
//
//	@Summary		Import products from CSV
//	@Description	The first row must be the export header. Rows without an id get a generated one.
//	@Tags			admin
//	@Accept			text/csv
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200 {object} ImportResult
//	@Failure		400 {object} map[string]any
//	@Failure		413 {object} map[string]any
//	@Router			/admin/products/import [post]
func (m *Module) handleImportProducts(w http.ResponseWriter, r *http.Request) {
	cr := csv.NewReader(http.MaxBytesReader(w, r.Body, maxImportBody))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			adminWriteError(w, http.StatusBadRequest, "CSV body is empty")
			return
		}
		m.writeReadError(w, err)
		return
	}
	if err := validateCSVHeader(header); err != nil {
		adminWriteError(w, http.StatusBadRequest, "invalid CSV header: "+err.Error())
		return
	}

	result := ImportResult{Errors: []ImportError{}}
	var ids []string
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				result.Failed++
				result.Errors = append(result.Errors, ImportError{Line: pe.Line, Error: pe.Err.Error()})
				continue
			}
			m.writeReadError(w, err)
			return
		}

		line, _ := cr.FieldPos(0)
		item, err := csvRowToProduct(row)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, ImportError{Line: line, ID: firstField(row), Error: err.Error()})
			continue
		}
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		if err := m.repo.Upsert(r.Context(), &item); err != nil {
			m.logger.Warn("failed to import product", zap.Int("line", line), zap.Error(err))
			result.Failed++
			result.Errors = append(result.Errors, ImportError{Line: line, ID: item.ID, Error: "failed to store product"})
			continue
		}
		result.Imported++
		ids = append(ids, item.ID)
	}

	m.logger.Info("product import finished",
		zap.Int("imported", result.Imported),
		zap.Int("failed", result.Failed),
	)
	if result.Imported > 0 {
		m.publishChange(r.Context(), "imported", ids...)
	}
	adminWriteJSON(w, http.StatusOK, result)
}

// -- helpers --

func (m *Module) writeRepoError(w http.ResponseWriter, op, id string, err error) {
	switch {
	case errors.Is(err, catalog.ErrInvalidItem):
		adminWriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNotFound):
		adminWriteError(w, http.StatusNotFound, "product "+id+" not found")
	case errors.Is(err, services.ErrAlreadyExists):
		adminWriteError(w, http.StatusConflict, "product "+id+" already exists")
	default:
		m.logger.Error("product "+op+" failed", zap.String("id", id), zap.Error(err))
		adminWriteError(w, http.StatusInternalServerError, "failed to "+op+" product")
	}
}

func (m *Module) writeReadError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		adminWriteError(w, http.StatusRequestEntityTooLarge, "CSV body exceeds the upload limit")
		return
	}
	adminWriteError(w, http.StatusBadRequest, "invalid CSV: "+err.Error())
}

func firstField(row []string) string {
	if len(row) == 0 {
		return ""
	}
	return strings.TrimSpace(row[0])
}

func adminWriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func adminWriteError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":   "https://rigforge.dev/problems/admin-error",
		"title":  http.StatusText(status),
		"status": status,
		"detail": detail,
	})
}

// adminParseInt extracts a non-negative integer query parameter.
func adminParseInt(r *http.Request, key string, def int) int {
	if s := r.URL.Query().Get(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			return n
		}
	}
	return def
}
