package settings_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/HerbHall/rigforge/internal/services"
	"github.com/HerbHall/rigforge/internal/settings"
	"github.com/HerbHall/rigforge/internal/testutil"
	"github.com/HerbHall/rigforge/pkg/plugin"
)

func setupHandlerEnv(t *testing.T) (services.SettingsRepository, *http.ServeMux) {
	t.Helper()

	store := testutil.NewStore(t)
	m := settings.New()
	if err := m.Init(context.Background(), plugin.Dependencies{
		Logger: testutil.Logger(),
		Store:  store,
	}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	repo, err := services.NewSQLiteSettingsRepository(context.Background(), store)
	if err != nil {
		t.Fatalf("NewSQLiteSettingsRepository: %v", err)
	}

	mux := http.NewServeMux()
	for _, r := range m.Routes() {
		mux.HandleFunc(r.Method+" /api/v1/settings"+r.Path, r.Handler)
	}
	return repo, mux
}

func doRequest(mux *http.ServeMux, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestRoutes_AdminOnly(t *testing.T) {
	h := settings.NewHandler(nil, testutil.Logger())
	for _, r := range h.Routes() {
		if len(r.Roles) != 1 || r.Roles[0] != services.RoleAdmin {
			t.Errorf("%s %s roles = %v, want [admin]", r.Method, r.Path, r.Roles)
		}
	}
}

func TestHandleListSettings_Defaults(t *testing.T) {
	_, mux := setupHandlerEnv(t)

	w := doRequest(mux, "GET", "/api/v1/settings", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("ListSettings status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp []services.Setting
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Decode response: %v", err)
	}
	if len(resp) != len(services.SettingKeys()) {
		t.Fatalf("len = %d, want %d", len(resp), len(services.SettingKeys()))
	}
	byKey := make(map[string]services.Setting)
	for _, s := range resp {
		byKey[s.Key] = s
	}
	if s := byKey["shop.locale"]; s.Value != "en" || !s.Default {
		t.Errorf("shop.locale = %+v, want default en", s)
	}
	if s := byKey["backup.retention_days"]; s.Value != "30" || !s.Default {
		t.Errorf("backup.retention_days = %+v, want default 30", s)
	}
}

func TestHandleSetSetting_Valid(t *testing.T) {
	tests := []struct {
		key   string
		value string
		want  string
	}{
		{"email.sender", "Rig Forge <orders@rigforge.dev>", `"Rig Forge" <orders@rigforge.dev>`},
		{"email.smtp_host", " SMTP.Example.com:587 ", "smtp.example.com:587"},
		{"backup.directory", "/var/backups/rigforge", "/var/backups/rigforge"},
		{"backup.retention_days", "007", "7"},
		{"shop.locale", "de-de", "de-DE"},
	}
	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			repo, mux := setupHandlerEnv(t)

			w := doRequest(mux, "PUT", "/api/v1/settings/"+tc.key, map[string]string{"value": tc.value})
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
			}

			stored, err := repo.Get(context.Background(), tc.key)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if stored.Value != tc.want || stored.Default {
				t.Errorf("stored = %+v, want %q", stored, tc.want)
			}

			w = doRequest(mux, "GET", "/api/v1/settings/"+tc.key, nil)
			var resp services.Setting
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if resp.Value != tc.want || resp.Default {
				t.Errorf("GET = %+v, want stored %q", resp, tc.want)
			}
		})
	}
}

func TestHandleSetSetting_Invalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"email.sender", "not-an-address"},
		{"email.smtp_host", ""},
		{"email.smtp_host", "smtp host"},
		{"backup.directory", "   "},
		{"backup.retention_days", "0"},
		{"backup.retention_days", "366"},
		{"backup.retention_days", "ten"},
		{"shop.locale", "xx-!!"},
	}
	for _, tc := range tests {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			repo, mux := setupHandlerEnv(t)

			w := doRequest(mux, "PUT", "/api/v1/settings/"+tc.key, map[string]string{"value": tc.value})
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
			if got, err := repo.Get(context.Background(), tc.key); err != nil || !got.Default {
				t.Errorf("Get = %+v, %v; invalid value was stored", got, err)
			}
		})
	}
}

func TestHandleSetting_UnknownKey(t *testing.T) {
	_, mux := setupHandlerEnv(t)

	if w := doRequest(mux, "GET", "/api/v1/settings/server.port", nil); w.Code != http.StatusNotFound {
		t.Errorf("GET unknown status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if w := doRequest(mux, "PUT", "/api/v1/settings/server.port", map[string]string{"value": "1"}); w.Code != http.StatusNotFound {
		t.Errorf("PUT unknown status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if w := doRequest(mux, "DELETE", "/api/v1/settings/server.port", nil); w.Code != http.StatusNotFound {
		t.Errorf("DELETE unknown status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestHandleResetSetting(t *testing.T) {
	repo, mux := setupHandlerEnv(t)
	if _, err := repo.Set(context.Background(), services.SettingShopLocale, "fr-CA"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	w := doRequest(mux, "DELETE", "/api/v1/settings/shop.locale", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp services.Setting
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if resp.Value != "en" || !resp.Default {
		t.Errorf("after reset = %+v, want default en", resp)
	}
}

func TestHandleSetSetting_InvalidBody(t *testing.T) {
	_, mux := setupHandlerEnv(t)

	req := httptest.NewRequest("PUT", "/api/v1/settings/shop.locale", bytes.NewBufferString("not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("SetSetting with invalid body status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
