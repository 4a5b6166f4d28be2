package testutil

import (
	"maps"

	"github.com/google/uuid"

	"github.com/HerbHall/rigforge/pkg/catalog"
)

// ItemOption mutates a fixture item.
type ItemOption func(*catalog.Item)

// NewItem returns a catalog Item with sensible defaults, suitable for test
// fixtures. Override individual fields with options.
func NewItem(opts ...ItemOption) catalog.Item {
	it := catalog.Item{
		ID:          uuid.NewString(),
		Name:        "Test Part",
		Category:    "cpu",
		Description: "fixture item",
		Specs:       map[string]string{},
		Price:       100,
		Stock:       5,
	}
	for _, opt := range opts {
		opt(&it)
	}
	return it
}

// WithID sets the item ID.
func WithID(id string) ItemOption {
	return func(it *catalog.Item) { it.ID = id }
}

// WithName sets the item name.
func WithName(name string) ItemOption {
	return func(it *catalog.Item) { it.Name = name }
}

// WithCategory sets the item category.
func WithCategory(c string) ItemOption {
	return func(it *catalog.Item) { it.Category = c }
}

// WithPrice sets the item price.
func WithPrice(p float64) ItemOption {
	return func(it *catalog.Item) { it.Price = p }
}

// WithStock sets the item stock.
func WithStock(n int) ItemOption {
	return func(it *catalog.Item) { it.Stock = n }
}

// WithDescription sets the item description.
func WithDescription(d string) ItemOption {
	return func(it *catalog.Item) { it.Description = d }
}

// WithSpecs merges specs into the item's spec map.
func WithSpecs(specs map[string]string) ItemOption {
	return func(it *catalog.Item) {
		if it.Specs == nil {
			it.Specs = make(map[string]string, len(specs))
		}
		maps.Copy(it.Specs, specs)
	}
}

// WithSpec sets a single spec entry.
func WithSpec(key, value string) ItemOption {
	return WithSpecs(map[string]string{key: value})
}
