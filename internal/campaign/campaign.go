// Package campaign implements promo-code campaigns: staff manage discount
// campaigns and shoppers quote a subtotal against a code.
package campaign

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/rigforge/internal/services"
	"github.com/HerbHall/rigforge/pkg/plugin"
)

// Compile-time interface guard.
var _ plugin.Plugin = (*Module)(nil)

var staffRoles = []string{services.RoleStaff, services.RoleAdmin}

// Module implements the campaigns plugin.
type Module struct {
	logger *zap.Logger
	store  *Store
	now    func() time.Time
}

// New creates a new campaigns plugin instance.
func New() *Module {
	return &Module{now: time.Now}
}

func (m *Module) Name() string    { return "campaigns" }
func (m *Module) Version() string { return "0.1.0" }

func (m *Module) Init(ctx context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger

	s, err := NewStore(ctx, deps.Store)
	if err != nil {
		return err
	}
	m.store = s

	m.logger.Info("campaigns module initialized")
	return nil
}

func (m *Module) Start(context.Context) error { return nil }
func (m *Module) Stop() error                 { return nil }
