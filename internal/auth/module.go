package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/rigforge/internal/services"
	"github.com/HerbHall/rigforge/pkg/plugin"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin    = (*Module)(nil)
	_ plugin.Validator = (*Module)(nil)
)

const maxLoginBody = 16 << 10

// dummyHash is compared against on unknown usernames so that login timing
// does not reveal which accounts exist.
var dummyHash = sync.OnceValue(func() string {
	h, _ := HashPassword("rigforge-unknown-user")
	return h
})

// Module implements the auth plugin: it issues tokens on login and exposes
// the TokenService the server uses to guard routes.
type Module struct {
	logger *zap.Logger
	users  services.UserRepository
	tokens *TokenService
	now    func() time.Time
}

// NewModule creates the auth plugin.
func NewModule() *Module {
	return &Module{now: time.Now}
}

func (m *Module) Name() string    { return "auth" }
func (m *Module) Version() string { return "0.1.0" }

// Init opens the user repository and builds the token service from
// auth.jwt_secret and auth.token_ttl. Without a configured secret a random
// one is generated, so tokens do not survive a restart.
func (m *Module) Init(ctx context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger

	users, err := services.NewSQLiteUserRepository(ctx, deps.Store)
	if err != nil {
		return err
	}
	m.users = users

	secret := deps.Config.GetString("auth.jwt_secret")
	if secret == "" {
		secret, err = randomSecret()
		if err != nil {
			return err
		}
		m.logger.Warn("auth.jwt_secret not set, using an ephemeral secret")
	}
	tokens, err := NewTokenService(secret, deps.Config.GetDuration("auth.token_ttl"))
	if err != nil {
		return err
	}
	m.tokens = tokens.WithClock(func() time.Time { return m.now() })

	m.logger.Info("auth module initialized", zap.Duration("token_ttl", m.tokens.ttl))
	return nil
}

// ValidateConfig rejects secrets too short to sign HS256 tokens safely.
func (m *Module) ValidateConfig() error {
	if len(m.tokens.secret) < 16 {
		return fmt.Errorf("auth.jwt_secret must be at least 16 bytes")
	}
	return nil
}

func (m *Module) Start(context.Context) error { return nil }
func (m *Module) Stop() error                 { return nil }

// Tokens returns the token service. It is nil before Init.
func (m *Module) Tokens() *TokenService {
	return m.tokens
}

// Routes returns the auth routes, relative to /api/v1/auth.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: http.MethodPost, Path: "/login", Handler: m.handleLogin},
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned on a successful login.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Role      string    `json:"role"`
}

// handleLogin exchanges a username and password for an access token.
//
//	@Summary		Log in
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request body loginRequest true "Credentials"
//	@Success		200 {object} LoginResponse
//	@Failure		400 {object} map[string]any
//	@Failure		401 {object} map[string]any
//	@Router			/auth/login [post]
func (m *Module) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLoginBody)).Decode(&req); err != nil {
		authWriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		authWriteError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := m.verify(r.Context(), username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			m.logger.Info("login rejected", zap.String("username", username))
			authWriteError(w, http.StatusUnauthorized, "invalid username or password")
			return
		}
		m.logger.Error("login failed", zap.String("username", username), zap.Error(err))
		authWriteError(w, http.StatusInternalServerError, "login failed")
		return
	}

	token, exp, err := m.tokens.Issue(Principal{UserID: user.ID, Username: user.Username, Role: user.Role})
	if err != nil {
		m.logger.Error("failed to issue token", zap.Error(err))
		authWriteError(w, http.StatusInternalServerError, "login failed")
		return
	}
	if err := m.users.RecordLogin(r.Context(), user.ID, m.now()); err != nil {
		m.logger.Warn("failed to record login", zap.String("user_id", user.ID), zap.Error(err))
	}

	m.logger.Info("login", zap.String("username", user.Username), zap.String("role", user.Role))
	authWriteJSON(w, http.StatusOK, LoginResponse{Token: token, ExpiresAt: exp.UTC(), Role: user.Role})
}

// verify returns the user when the credentials match an enabled account.
func (m *Module) verify(ctx context.Context, username, password string) (*services.User, error) {
	user, err := m.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			_ = CheckPassword(dummyHash(), password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := CheckPassword(user.PasswordHash, password); err != nil {
		return nil, err
	}
	if user.Disabled {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate jwt secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func authWriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func authWriteError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":   "https://rigforge.dev/problems/auth-error",
		"title":  http.StatusText(status),
		"status": status,
		"detail": detail,
	})
}
