// Package admin implements the back-office product management API: product
// CRUD plus CSV export and import. Every write publishes a product change
// event so the storefront catalog drops its cached snapshots.
package admin

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/rigforge/internal/services"
	"github.com/HerbHall/rigforge/pkg/plugin"
)

// Compile-time interface guard.
var _ plugin.Plugin = (*Module)(nil)

// staffRoles may use every admin route.
var staffRoles = []string{services.RoleStaff, services.RoleAdmin}

// Module implements the admin plugin.
type Module struct {
	logger *zap.Logger
	repo   services.ProductRepository
	bus    plugin.EventBus
	now    func() time.Time
}

// New creates a new admin plugin instance.
func New() *Module {
	return &Module{now: time.Now}
}

func (m *Module) Name() string    { return "admin" }
func (m *Module) Version() string { return "0.1.0" }

func (m *Module) Init(ctx context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger
	m.bus = deps.Bus

	repo, err := services.NewSQLiteProductRepository(ctx, deps.Store)
	if err != nil {
		return err
	}
	m.repo = repo

	m.logger.Info("admin module initialized")
	return nil
}

func (m *Module) Start(context.Context) error { return nil }
func (m *Module) Stop() error                 { return nil }

// publishChange notifies subscribers that products were written. Delivery is
// synchronous so caches are cleared before the write response is sent.
func (m *Module) publishChange(ctx context.Context, action string, ids ...string) {
	if m.bus == nil {
		return
	}
	err := m.bus.Publish(ctx, plugin.Event{
		Topic:     plugin.TopicProductChanged,
		Source:    m.Name(),
		Timestamp: m.now().UTC(),
		Payload:   plugin.ProductChange{Action: action, IDs: ids},
	})
	if err != nil {
		m.logger.Warn("failed to publish product change",
			zap.String("action", action),
			zap.Error(err),
		)
	}
}
