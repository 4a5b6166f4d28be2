package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/HerbHall/rigforge/internal/cache"
	"github.com/HerbHall/rigforge/internal/services"
	pkgcatalog "github.com/HerbHall/rigforge/pkg/catalog"
)

// PrebuiltCategory is the coarse pre-filter that selects every prebuilt PC
// (category "pc" or any category ending in "-pc").
const PrebuiltCategory = "pc"

// MatchesCategory reports whether an item category passes the listing
// pre-filter.
func MatchesCategory(itemCategory, filter string) bool {
	if filter == "" {
		return true
	}
	if filter == PrebuiltCategory {
		return itemCategory == PrebuiltCategory || strings.HasSuffix(itemCategory, "-"+PrebuiltCategory)
	}
	return itemCategory == filter
}

// generationKey holds the snapshot generation. Snapshot keys embed the
// generation, so bumping it retires every snapshot at once, including ones
// written by other processes sharing the cache.
const generationKey = "products:gen"

// productSource serves product lists from the snapshot cache, falling back
// to the repository. Cache failures are logged and bypassed.
type productSource struct {
	repo    services.ProductRepository
	cache   cache.Cache
	metrics *metrics
	logger  *zap.Logger
}

func newProductSource(repo services.ProductRepository, c cache.Cache, m *metrics, logger *zap.Logger) *productSource {
	return &productSource{
		repo:    repo,
		cache:   c,
		metrics: m,
		logger:  logger,
	}
}

func cacheKey(gen int64, category string) string {
	if category == "" {
		category = "all"
	}
	return "products:" + strconv.FormatInt(gen, 10) + ":" + category
}

// generation returns the current snapshot generation; a missing counter is
// generation 0.
func (s *productSource) generation(ctx context.Context) (int64, error) {
	raw, ok, err := s.cache.Get(ctx, generationKey)
	if err != nil || !ok {
		return 0, err
	}
	gen, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad snapshot generation %q: %w", raw, err)
	}
	return gen, nil
}

// List returns the products passing the category pre-filter.
func (s *productSource) List(ctx context.Context, category string) ([]pkgcatalog.Item, error) {
	// The key is fixed before the repository read, so a snapshot built from
	// data that was invalidated meanwhile lands under a retired generation.
	key := ""
	if s.cache != nil {
		gen, err := s.generation(ctx)
		if err != nil {
			s.metrics.cacheLookups.WithLabelValues("error").Inc()
			s.logger.Warn("product cache generation read failed", zap.Error(err))
		} else {
			key = cacheKey(gen, category)
		}
	}

	if key != "" {
		raw, ok, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			s.metrics.cacheLookups.WithLabelValues("error").Inc()
			s.logger.Warn("product cache read failed", zap.String("key", key), zap.Error(err))
		case ok:
			var items []pkgcatalog.Item
			if err := json.Unmarshal(raw, &items); err == nil {
				s.metrics.cacheLookups.WithLabelValues("hit").Inc()
				return items, nil
			}
			s.metrics.cacheLookups.WithLabelValues("error").Inc()
			s.logger.Warn("discarding undecodable cache entry", zap.String("key", key))
		default:
			s.metrics.cacheLookups.WithLabelValues("miss").Inc()
		}
	}

	all, err := s.repo.All(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	items := make([]pkgcatalog.Item, 0, len(all))
	for i := range all {
		if MatchesCategory(all[i].Category, category) {
			items = append(items, all[i])
		}
	}

	if key != "" {
		if raw, err := json.Marshal(items); err == nil {
			if err := s.cache.Set(ctx, key, raw); err != nil {
				s.logger.Warn("product cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
	}
	return items, nil
}

// Invalidate retires every snapshot by advancing the generation. Old
// snapshots are left to expire with the cache TTL.
func (s *productSource) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	gen, err := s.cache.Incr(ctx, generationKey)
	if err != nil {
		s.logger.Warn("product cache invalidation failed", zap.Error(err))
		return
	}
	s.logger.Debug("product snapshots invalidated", zap.Int64("generation", gen))
}
