// Package settings serves the admin-only shop settings API on top of
// services.SettingsRepository, which owns the key allowlist and validation.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/HerbHall/rigforge/internal/services"
	"github.com/HerbHall/rigforge/pkg/plugin"
)

// Compile-time interface guard.
var _ plugin.Plugin = (*Module)(nil)

const maxSettingBody = 16 << 10

// SettingRequest is the body of PUT /settings/{key}.
// @Description Request body for updating a setting.
type SettingRequest struct {
	Value string `json:"value" example:"orders@rigforge.dev"`
}

// SettingsProblemDetail represents an RFC 7807 error response for settings endpoints.
// @Description RFC 7807 Problem Details error response.
type SettingsProblemDetail struct {
	Type   string `json:"type" example:"https://rigforge.dev/problems/settings-error"`
	Title  string `json:"title" example:"Bad Request"`
	Status int    `json:"status" example:"400"`
	Detail string `json:"detail" example:"invalid language tag \"xx-!!\""`
}

// Module exposes the settings API as a plugin.
type Module struct {
	handler *Handler
}

// New creates the settings plugin.
func New() *Module {
	return &Module{}
}

func (m *Module) Name() string    { return "settings" }
func (m *Module) Version() string { return "0.1.0" }

func (m *Module) Init(ctx context.Context, deps plugin.Dependencies) error {
	repo, err := services.NewSQLiteSettingsRepository(ctx, deps.Store)
	if err != nil {
		return err
	}
	m.handler = NewHandler(repo, deps.Logger)
	return nil
}

func (m *Module) Start(context.Context) error { return nil }
func (m *Module) Stop() error                 { return nil }

func (m *Module) Routes() []plugin.Route {
	if m.handler == nil {
		return nil
	}
	return m.handler.Routes()
}

// Handler provides HTTP handlers for settings endpoints.
type Handler struct {
	settings services.SettingsRepository
	logger   *zap.Logger
}

// NewHandler creates a settings Handler.
func NewHandler(settings services.SettingsRepository, logger *zap.Logger) *Handler {
	return &Handler{settings: settings, logger: logger}
}

// Routes returns the settings routes, relative to /api/v1/settings.
func (h *Handler) Routes() []plugin.Route {
	admin := []string{services.RoleAdmin}
	return []plugin.Route{
		{Method: http.MethodGet, Path: "", Handler: h.handleListSettings, Roles: admin},
		{Method: http.MethodGet, Path: "/{key}", Handler: h.handleGetSetting, Roles: admin},
		{Method: http.MethodPut, Path: "/{key}", Handler: h.handleSetSetting, Roles: admin},
		{Method: http.MethodDelete, Path: "/{key}", Handler: h.handleResetSetting, Roles: admin},
	}
}

// handleListSettings returns every allowed setting with its effective value.
//
//	@Summary		List settings
//	@Tags			settings
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{array}		services.Setting		"Settings"
//	@Failure		500	{object}	SettingsProblemDetail	"Internal server error"
//	@Router			/settings [get]
func (h *Handler) handleListSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list settings", zap.Error(err))
		writeSettingsError(w, http.StatusInternalServerError, "failed to list settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// handleGetSetting returns one setting.
//
//	@Summary		Get setting
//	@Tags			settings
//	@Produce		json
//	@Security		BearerAuth
//	@Param			key	path		string	true	"Setting key"
//	@Success		200	{object}	services.Setting		"Setting"
//	@Failure		404	{object}	SettingsProblemDetail	"Unknown key"
//	@Router			/settings/{key} [get]
func (h *Handler) handleGetSetting(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	setting, err := h.settings.Get(r.Context(), key)
	if err != nil {
		h.writeRepoError(w, key, err)
		return
	}
	writeJSON(w, http.StatusOK, setting)
}

// handleSetSetting validates and stores one setting.
//
//	@Summary		Update setting
//	@Tags			settings
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			key		path		string			true	"Setting key"
//	@Param			request	body		SettingRequest	true	"New value"
//	@Success		200		{object}	services.Setting		"Setting stored"
//	@Failure		400		{object}	SettingsProblemDetail	"Invalid value"
//	@Failure		404		{object}	SettingsProblemDetail	"Unknown key"
//	@Router			/settings/{key} [put]
func (h *Handler) handleSetSetting(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if _, ok := services.LookupSetting(key); !ok {
		writeSettingsError(w, http.StatusNotFound, "unknown setting: "+key)
		return
	}

	var req SettingRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSettingBody)).Decode(&req); err != nil {
		writeSettingsError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	setting, err := h.settings.Set(r.Context(), key, req.Value)
	if err != nil {
		h.writeRepoError(w, key, err)
		return
	}
	h.logger.Info("setting updated", zap.String("key", key), zap.String("value", setting.Value))
	writeJSON(w, http.StatusOK, setting)
}

// handleResetSetting drops a stored value and returns the default.
//
//	@Summary		Reset setting
//	@Tags			settings
//	@Produce		json
//	@Security		BearerAuth
//	@Param			key	path		string	true	"Setting key"
//	@Success		200	{object}	services.Setting		"Default value"
//	@Failure		404	{object}	SettingsProblemDetail	"Unknown key"
//	@Router			/settings/{key} [delete]
func (h *Handler) handleResetSetting(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if err := h.settings.Reset(r.Context(), key); err != nil {
		h.writeRepoError(w, key, err)
		return
	}
	setting, err := h.settings.Get(r.Context(), key)
	if err != nil {
		h.writeRepoError(w, key, err)
		return
	}
	h.logger.Info("setting reset", zap.String("key", key))
	writeJSON(w, http.StatusOK, setting)
}

func (h *Handler) writeRepoError(w http.ResponseWriter, key string, err error) {
	switch {
	case errors.Is(err, services.ErrUnknownSetting):
		writeSettingsError(w, http.StatusNotFound, "unknown setting: "+key)
	case errors.Is(err, services.ErrInvalidSetting):
		writeSettingsError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("settings repository failed", zap.String("key", key), zap.Error(err))
		writeSettingsError(w, http.StatusInternalServerError, "failed to access settings")
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeSettingsError writes an RFC 7807 problem response.
func writeSettingsError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":   "https://rigforge.dev/problems/settings-error",
		"title":  http.StatusText(status),
		"status": status,
		"detail": detail,
	})
}
