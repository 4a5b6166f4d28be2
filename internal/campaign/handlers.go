package campaign

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/HerbHall/rigforge/internal/services"
	"github.com/HerbHall/rigforge/pkg/plugin"
)

const maxCampaignBody = 64 << 10

// Routes returns the campaign routes, relative to /api/v1/campaigns.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: http.MethodGet, Path: "", Handler: m.handleListCampaigns, Roles: staffRoles},
		{Method: http.MethodPost, Path: "", Handler: m.handleCreateCampaign, Roles: staffRoles},
		{Method: http.MethodDelete, Path: "/{id}", Handler: m.handleDeleteCampaign, Roles: staffRoles},
		{Method: http.MethodPost, Path: "/quote", Handler: m.handleQuote},
	}
}

type createCampaignRequest struct {
	Name            string          `json:"name"`
	Code            string          `json:"code"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	MinSubtotal     decimal.Decimal `json:"min_subtotal"`
	StartsAt        *time.Time      `json:"starts_at"`
	EndsAt          time.Time       `json:"ends_at"`
	Active          *bool           `json:"active"`
}

type quoteRequest struct {
	Code     string          `json:"code"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// quoteResponse carries amounts as fixed two-decimal strings.
type quoteResponse struct {
	Code     string `json:"code"`
	Subtotal string `json:"subtotal"`
	Discount string `json:"discount"`
	Total    string `json:"total"`
}

// handleListCampaigns returns all campaigns.
//
//	@Summary		List campaigns
//	@Tags			campaigns
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200 {array} Campaign
//	@Failure		500 {object} map[string]any
//	@Router			/campaigns [get]
func (m *Module) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := m.store.List(r.Context())
	if err != nil {
		m.logger.Error("failed to list campaigns", zap.Error(err))
		campaignWriteError(w, http.StatusInternalServerError, "failed to list campaigns")
		return
	}
	campaignWriteJSON(w, http.StatusOK, campaigns)
}

// handleCreateCampaign creates a campaign. starts_at defaults to now and
// active to true.
//
//	@Summary		Create campaign
//	@Tags			campaigns
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request body createCampaignRequest true "Campaign"
//	@Success		201 {object} Campaign
//	@Failure		400 {object} map[string]any
//	@Failure		409 {object} map[string]any
//	@Router			/campaigns [post]
func (m *Module) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req createCampaignRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCampaignBody)).Decode(&req); err != nil {
		campaignWriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	c := &Campaign{
		Name:            req.Name,
		Code:            req.Code,
		DiscountPercent: req.DiscountPercent,
		MinSubtotal:     req.MinSubtotal,
		EndsAt:          req.EndsAt,
		Active:          req.Active == nil || *req.Active,
		CreatedAt:       m.now().UTC(),
	}
	if req.StartsAt != nil {
		c.StartsAt = *req.StartsAt
	} else {
		c.StartsAt = m.now().UTC()
	}

	if err := m.store.Create(r.Context(), c); err != nil {
		switch {
		case errors.Is(err, ErrInvalidCampaign):
			campaignWriteError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrAlreadyExists):
			campaignWriteError(w, http.StatusConflict, "campaign code "+c.Code+" already exists")
		default:
			m.logger.Error("failed to create campaign", zap.Error(err))
			campaignWriteError(w, http.StatusInternalServerError, "failed to create campaign")
		}
		return
	}

	m.logger.Info("campaign created",
		zap.String("id", c.ID),
		zap.String("code", c.Code),
		zap.String("discount_percent", c.DiscountPercent.String()),
	)
	campaignWriteJSON(w, http.StatusCreated, c)
}

// handleDeleteCampaign removes a campaign.
//
//	@Summary		Delete campaign
//	@Tags			campaigns
//	@Security		BearerAuth
//	@Param			id path string true "Campaign ID"
//	@Success		204
//	@Failure		404 {object} map[string]any
//	@Router			/campaigns/{id} [delete]
func (m *Module) handleDeleteCampaign(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := m.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			campaignWriteError(w, http.StatusNotFound, "campaign "+id+" not found")
			return
		}
		m.logger.Error("failed to delete campaign", zap.String("id", id), zap.Error(err))
		campaignWriteError(w, http.StatusInternalServerError, "failed to delete campaign")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleQuote applies a promo code to a subtotal.
//
//	@Summary		Quote a promo code
//	@Description	Returns the discount and total for a subtotal. Amounts are rounded to cents.
//	@Tags			campaigns
//	@Accept			json
//	@Produce		json
//	@Param			request body quoteRequest true "Code and subtotal"
//	@Success		200 {object} quoteResponse
//	@Failure		400 {object} map[string]any
//	@Failure		404 {object} map[string]any
//	@Failure		422 {object} map[string]any
//	@Router			/campaigns/quote [post]
func (m *Module) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCampaignBody)).Decode(&req); err != nil {
		campaignWriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	code := NormalizeCode(req.Code)
	if code == "" {
		campaignWriteError(w, http.StatusBadRequest, "code is required")
		return
	}
	if req.Subtotal.IsNegative() {
		campaignWriteError(w, http.StatusBadRequest, "subtotal must be >= 0")
		return
	}

	c, err := m.store.GetByCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			campaignWriteError(w, http.StatusNotFound, "unknown promo code "+code)
			return
		}
		m.logger.Error("failed to look up campaign", zap.String("code", code), zap.Error(err))
		campaignWriteError(w, http.StatusInternalServerError, "failed to look up campaign")
		return
	}

	q, err := c.Quote(req.Subtotal, m.now())
	if err != nil {
		if errors.Is(err, ErrCampaignInactive) || errors.Is(err, ErrBelowMinimum) {
			campaignWriteError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		campaignWriteError(w, http.StatusInternalServerError, "failed to quote")
		return
	}

	campaignWriteJSON(w, http.StatusOK, quoteResponse{
		Code:     q.Code,
		Subtotal: q.Subtotal.StringFixed(2),
		Discount: q.Discount.StringFixed(2),
		Total:    q.Total.StringFixed(2),
	})
}

func campaignWriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func campaignWriteError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":   "https://rigforge.dev/problems/campaign-error",
		"title":  http.StatusText(status),
		"status": status,
		"detail": detail,
	})
}
