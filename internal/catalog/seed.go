package catalog

import (
	"context"
	"fmt"

	"github.com/HerbHall/rigforge/internal/services"
	pkgcatalog "github.com/HerbHall/rigforge/pkg/catalog"
)

// Seed upserts every item of the embedded catalog into repo and returns how
// many were written.
func Seed(ctx context.Context, repo services.ProductRepository, src *pkgcatalog.Catalog) (int, error) {
	items, err := src.Items()
	if err != nil {
		return 0, err
	}
	for i := range items {
		if err := repo.Upsert(ctx, &items[i]); err != nil {
			return i, fmt.Errorf("seed %q: %w", items[i].ID, err)
		}
	}
	return len(items), nil
}
