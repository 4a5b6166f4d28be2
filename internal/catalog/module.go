package catalog

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/rigforge/internal/cache"
	"github.com/HerbHall/rigforge/internal/services"
	pkgcatalog "github.com/HerbHall/rigforge/pkg/catalog"
	"github.com/HerbHall/rigforge/pkg/plugin"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin          = (*Module)(nil)
	_ plugin.HealthChecker   = (*Module)(nil)
	_ plugin.EventSubscriber = (*Module)(nil)
)

// Module is the public storefront catalog.
type Module struct {
	logger   *zap.Logger
	store    plugin.Store
	cache    cache.Cache
	products *productSource
	handler  *Handler
}

// New creates the catalog module.
func New() *Module {
	return &Module{}
}

func (m *Module) Name() string    { return "catalog" }
func (m *Module) Version() string { return "0.1.0" }

// Init builds the engine for the shop locale, opens the product repository
// and the snapshot cache, and seeds the embedded catalog into an empty
// database.
func (m *Module) Init(ctx context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger
	m.store = deps.Store

	repo, err := services.NewSQLiteProductRepository(ctx, deps.Store)
	if err != nil {
		return err
	}

	c, err := cache.New(ctx, deps.Config)
	if err != nil {
		return fmt.Errorf("catalog cache: %w", err)
	}
	m.cache = c

	n, err := repo.Count(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		seeded, err := Seed(ctx, repo, pkgcatalog.NewCatalog())
		if err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
		m.logger.Info("seeded empty catalog", zap.Int("items", seeded))
		n = seeded
	}

	locale, err := shopLocale(ctx, deps)
	if err != nil {
		return err
	}
	engine := NewEngine(locale)
	met := newMetrics(deps.Metrics)
	m.products = newProductSource(repo, c, met, m.logger)
	m.handler = newHandler(engine, m.products, repo, met, m.logger)

	m.logger.Info("catalog module initialized",
		zap.String("locale", engine.Locale().String()),
		zap.Int("products", n),
	)
	return nil
}

func (m *Module) Start(context.Context) error { return nil }

func (m *Module) Stop() error {
	if m.cache != nil {
		return m.cache.Close()
	}
	return nil
}

func (m *Module) Routes() []plugin.Route {
	if m.handler == nil {
		return nil
	}
	return m.handler.Routes()
}

// Subscriptions drops cached product snapshots whenever products change.
func (m *Module) Subscriptions() []plugin.Subscription {
	return []plugin.Subscription{{
		Topic: plugin.TopicProductChanged,
		Handler: func(ctx context.Context, e plugin.Event) {
			m.logger.Debug("product change, invalidating cache", zap.Any("payload", e.Payload))
			m.products.Invalidate(ctx)
		},
	}}
}

// Health pings the database.
func (m *Module) Health(ctx context.Context) plugin.HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := m.store.DB().PingContext(ctx); err != nil {
		return plugin.HealthStatus{Status: "unhealthy", Message: err.Error()}
	}
	return plugin.HealthStatus{Status: "healthy"}
}

// shopLocale returns the shop.locale setting when an admin has stored one,
// and catalog.locale from the config file otherwise.
func shopLocale(ctx context.Context, deps plugin.Dependencies) (string, error) {
	settings, err := services.NewSQLiteSettingsRepository(ctx, deps.Store)
	if err != nil {
		return "", err
	}
	s, err := settings.Get(ctx, services.SettingShopLocale)
	if err != nil {
		return "", fmt.Errorf("read shop locale: %w", err)
	}
	if s.Default {
		return deps.Config.GetString("catalog.locale"), nil
	}
	return s.Value, nil
}
