package catalog

// SortKey selects the result ordering.
type SortKey string

const (
	SortPriceAsc  SortKey = "price-asc"
	SortPriceDesc SortKey = "price-desc"
	SortNameAsc   SortKey = "name-asc"
	SortNameDesc  SortKey = "name-desc"
)

// QueryState is the complete input to one filtering pass.
type QueryState struct {
	SearchText    string        `json:"searchText"`
	ActiveFilters ActiveFilters `json:"activeFilters"`
	SortKey       SortKey       `json:"sortOption"`
	// PriceRange nil disables the price stage.
	PriceRange *Range `json:"priceRange"`
}

// Category filter key inside ActiveFilters.
const CategoryKey = "category"

// PriceKey is the title of the universal price group.
const PriceKey = "price"
