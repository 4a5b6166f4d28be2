// Package plugin defines the contracts shared between RigForge modules and
// the server that hosts them.
package plugin

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Route represents an HTTP route exposed by a module. Path is relative to
// /api/v1/{module}. When Roles is non-empty the server only lets requests
// through that carry a token for one of the listed roles.
type Route struct {
	Method  string
	Path    string
	Handler http.HandlerFunc
	Roles   []string
}

// Config is the read-only configuration view handed to modules.
type Config interface {
	GetString(key string) string
	GetInt(key string) int
	GetFloat64(key string) float64
	GetBool(key string) bool
	GetDuration(key string) time.Duration
	IsSet(key string) bool
	Sub(key string) Config
	Unmarshal(target any) error
}

// Dependencies carries the shared services a module may use during Init.
type Dependencies struct {
	Config  Config
	Logger  *zap.Logger
	Store   Store
	Bus     EventBus
	Metrics prometheus.Registerer
}

// Plugin defines the interface that all RigForge modules must implement.
type Plugin interface {
	// Name returns the module's unique identifier (e.g., "catalog", "admin").
	Name() string

	// Version returns the module's semantic version.
	Version() string

	// Init wires the module to its dependencies. It runs before Start.
	Init(ctx context.Context, deps Dependencies) error

	// Start begins any background work.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the module.
	Stop() error

	// Routes returns the HTTP routes this module exposes.
	Routes() []Route
}
