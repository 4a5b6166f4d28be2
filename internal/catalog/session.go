package catalog

import (
	pkgcatalog "github.com/HerbHall/rigforge/pkg/catalog"
)

// Session is the host-side state of one catalog view: the selected category,
// its filter groups, and the current QueryState. The On* methods correspond
// to the view's filter, search, sort, and price callbacks. A Session is not
// safe for concurrent use.
type Session struct {
	engine   *Engine
	category string
	groups   []pkgcatalog.FilterGroup
	state    pkgcatalog.QueryState
}

// NewSession starts a session on the given category.
func NewSession(engine *Engine, category string) *Session {
	s := &Session{engine: engine}
	s.SetCategory(category)
	return s
}

// SetCategory switches category. The filter groups are re-derived and all
// active filters are cleared; nothing carries over from the old category.
func (s *Session) SetCategory(category string) {
	s.category = category
	s.groups = FilterGroups(category)
	s.state.ActiveFilters = pkgcatalog.ActiveFilters{}
}

// Category returns the selected category.
func (s *Session) Category() string { return s.category }

// Groups returns the current filter groups.
func (s *Session) Groups() []pkgcatalog.FilterGroup {
	out := make([]pkgcatalog.FilterGroup, len(s.groups))
	for i := range s.groups {
		out[i] = cloneGroup(s.groups[i])
	}
	return out
}

// State returns a copy of the current query state.
func (s *Session) State() pkgcatalog.QueryState {
	st := s.state
	st.ActiveFilters = make(pkgcatalog.ActiveFilters, len(s.state.ActiveFilters))
	for k, v := range s.state.ActiveFilters {
		st.ActiveFilters[k] = v
	}
	if s.state.PriceRange != nil {
		r := *s.state.PriceRange
		st.PriceRange = &r
	}
	return st
}

// OnFilterChange replaces the active filters. Entries whose title is not a
// group of the current category are dropped.
func (s *Session) OnFilterChange(filters pkgcatalog.ActiveFilters) {
	s.state.ActiveFilters = SanitizeFilters(filters, s.groups)
}

// OnSearchChange sets the free-text query.
func (s *Session) OnSearchChange(query string) {
	s.state.SearchText = query
}

// OnSortChange sets the sort key.
func (s *Session) OnSortChange(key pkgcatalog.SortKey) {
	s.state.SortKey = key
}

// OnPriceRangeChange sets the inclusive price bounds.
func (s *Session) OnPriceRangeChange(minPrice, maxPrice float64) {
	s.state.PriceRange = &pkgcatalog.Range{Min: minPrice, Max: maxPrice}
}

// Results recomputes the view over the full item list.
func (s *Session) Results(items []pkgcatalog.Item) []pkgcatalog.Item {
	return s.engine.Query(items, s.state)
}

// SanitizeFilters keeps only non-empty selections whose title names one of
// groups. The input map is not modified.
func SanitizeFilters(filters pkgcatalog.ActiveFilters, groups []pkgcatalog.FilterGroup) pkgcatalog.ActiveFilters {
	allowed := make(map[string]struct{}, len(groups))
	for i := range groups {
		allowed[groups[i].Title] = struct{}{}
	}
	out := make(pkgcatalog.ActiveFilters, len(filters))
	for title, sel := range filters {
		if _, ok := allowed[title]; !ok || sel.IsEmpty() {
			continue
		}
		out[title] = sel
	}
	return out
}
