package catalog

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	pkgcatalog "github.com/HerbHall/rigforge/pkg/catalog"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Engine narrows and orders catalog items for one QueryState. It holds no
// mutable state; the locale only affects name ordering.
type Engine struct {
	locale language.Tag
}

// NewEngine creates an engine that orders names for the given BCP 47
// locale. An unparseable locale falls back to English.
func NewEngine(locale string) *Engine {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &Engine{locale: tag}
}

// Locale returns the engine's collation locale.
func (e *Engine) Locale() language.Tag {
	return e.locale
}

// Query runs the full pipeline: text search, price range, category, per
// dimension filters, then sort. It never modifies items and always returns a
// new, non-nil slice. Malformed or unknown parts of q are ignored.
func (e *Engine) Query(items []pkgcatalog.Item, q pkgcatalog.QueryState) []pkgcatalog.Item {
	search := strings.ToLower(q.SearchText)
	categories := categorySet(q.ActiveFilters)
	dims := compileDimensions(q.ActiveFilters)

	result := make([]pkgcatalog.Item, 0, len(items))
	for i := range items {
		it := &items[i]
		if search != "" && !matchesSearch(it, search) {
			continue
		}
		if q.PriceRange != nil && !q.PriceRange.Contains(it.Price) {
			continue
		}
		if categories != nil {
			if _, ok := categories[it.Category]; !ok {
				continue
			}
		}
		if !matchesDimensions(it, dims) {
			continue
		}
		result = append(result, *it)
	}

	e.sortItems(result, q.SortKey)
	return result
}

// Sort returns a sorted copy of items.
func (e *Engine) Sort(items []pkgcatalog.Item, key pkgcatalog.SortKey) []pkgcatalog.Item {
	out := make([]pkgcatalog.Item, len(items))
	copy(out, items)
	e.sortItems(out, key)
	return out
}

func (e *Engine) sortItems(items []pkgcatalog.Item, key pkgcatalog.SortKey) {
	switch key {
	case pkgcatalog.SortPriceAsc:
		sort.SliceStable(items, func(a, b int) bool { return items[a].Price < items[b].Price })
	case pkgcatalog.SortPriceDesc:
		sort.SliceStable(items, func(a, b int) bool { return items[a].Price > items[b].Price })
	case pkgcatalog.SortNameAsc, pkgcatalog.SortNameDesc:
		// Collators keep scratch buffers, so each pass gets its own.
		c := collate.New(e.locale)
		desc := key == pkgcatalog.SortNameDesc
		sort.SliceStable(items, func(a, b int) bool {
			cmp := c.CompareString(items[a].Name, items[b].Name)
			if desc {
				return cmp > 0
			}
			return cmp < 0
		})
	}
}

// matchesSearch reports whether q (already lower-cased) is a substring of the
// item's name, description, or any spec value.
func matchesSearch(it *pkgcatalog.Item, q string) bool {
	if strings.Contains(strings.ToLower(it.Name), q) {
		return true
	}
	if strings.Contains(strings.ToLower(it.Description), q) {
		return true
	}
	for _, v := range it.Specs {
		if strings.Contains(strings.ToLower(v), q) {
			return true
		}
	}
	return false
}

// categorySet returns the selected categories, or nil when the category
// filter is inactive.
func categorySet(filters pkgcatalog.ActiveFilters) map[string]struct{} {
	sel, ok := filters[pkgcatalog.CategoryKey]
	if !ok {
		return nil
	}
	values := sel.Values()
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// dimensionFilter is one active per-dimension filter, prepared for matching.
type dimensionFilter struct {
	aliases []string
	values  []string // lower-cased option ids; empty for range filters
	rng     *pkgcatalog.Range
}

func compileDimensions(filters pkgcatalog.ActiveFilters) []dimensionFilter {
	titles := make([]string, 0, len(filters))
	for title := range filters {
		if title == pkgcatalog.CategoryKey || title == pkgcatalog.PriceKey {
			continue
		}
		titles = append(titles, title)
	}
	sort.Strings(titles)

	dims := make([]dimensionFilter, 0, len(titles))
	for _, title := range titles {
		sel := filters[title]
		if sel.Range != nil {
			r := *sel.Range
			dims = append(dims, dimensionFilter{aliases: Aliases(title), rng: &r})
			continue
		}
		var values []string
		for _, v := range sel.Values() {
			if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
				values = append(values, v)
			}
		}
		if len(values) == 0 {
			continue
		}
		dims = append(dims, dimensionFilter{aliases: Aliases(title), values: values})
	}
	return dims
}

// matchesDimensions requires every dimension filter to pass (AND); within a
// dimension any one selected option is enough (OR).
func matchesDimensions(it *pkgcatalog.Item, dims []dimensionFilter) bool {
	for i := range dims {
		d := &dims[i]
		value, _ := lookupSpec(it.Specs, d.aliases)
		value = strings.ToLower(value)

		if d.rng != nil {
			n, ok := firstNumber(value)
			if !ok || !d.rng.Contains(n) {
				return false
			}
			continue
		}

		matched := false
		for _, opt := range d.values {
			if strings.Contains(value, opt) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

var numberPattern = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

// firstNumber extracts the first decimal number in s ("3.8 GHz" -> 3.8).
func firstNumber(s string) (float64, bool) {
	m := numberPattern.FindString(s)
	if m == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.Replace(m, ",", ".", 1), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
