package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgcatalog "github.com/HerbHall/rigforge/pkg/catalog"
)

func TestSession_CategoryChangeResetsFilters(t *testing.T) {
	s := NewSession(NewEngine("en"), "gpu")
	s.OnFilterChange(pkgcatalog.ActiveFilters{"chipset": pkgcatalog.Checkbox("NVIDIA")})
	require.Contains(t, s.State().ActiveFilters, "chipset")

	s.SetCategory("ram")
	assert.Equal(t, "ram", s.Category())
	assert.Empty(t, s.State().ActiveFilters)
	assert.Equal(t, []string{"price", "type", "capacity", "speed"}, titles(s.Groups()))
}

func TestSession_FilterChangeDropsForeignTitles(t *testing.T) {
	s := NewSession(NewEngine("en"), "ram")
	s.OnFilterChange(pkgcatalog.ActiveFilters{
		"chipset": pkgcatalog.Checkbox("NVIDIA"), // gpu group
		"type":    pkgcatalog.Radio("DDR5"),
		"speed":   {},
	})
	got := s.State().ActiveFilters
	assert.Len(t, got, 1)
	assert.Equal(t, pkgcatalog.Radio("DDR5"), got["type"])
}

func TestSession_Results(t *testing.T) {
	items := seedItems(t)
	s := NewSession(NewEngine("en"), "pc")

	s.OnFilterChange(pkgcatalog.ActiveFilters{
		pkgcatalog.CategoryKey: pkgcatalog.Checkbox("gaming-pc"),
	})
	s.OnSortChange(pkgcatalog.SortPriceDesc)
	assert.Equal(t, []string{"Beta PC", "Alpha PC"}, names(s.Results(items)))

	s.OnPriceRangeChange(0, 1000)
	assert.Equal(t, []string{"Alpha PC"}, names(s.Results(items)))

	s.OnSearchChange("beta")
	assert.Empty(t, s.Results(items))
}

func TestSession_StateIsCopy(t *testing.T) {
	s := NewSession(NewEngine("en"), "cpu")
	s.OnFilterChange(pkgcatalog.ActiveFilters{"socket": pkgcatalog.Checkbox("AM5")})
	s.OnPriceRangeChange(10, 20)

	st := s.State()
	st.ActiveFilters["cores"] = pkgcatalog.Between(1, 2)
	st.PriceRange.Max = 99

	again := s.State()
	assert.NotContains(t, again.ActiveFilters, "cores")
	assert.Equal(t, 20.0, again.PriceRange.Max)
}

func TestSanitizeFilters(t *testing.T) {
	in := pkgcatalog.ActiveFilters{
		"cpu":     pkgcatalog.Checkbox("AMD"),
		"socket":  pkgcatalog.Checkbox("AM5"),
		"price":   pkgcatalog.Between(0, 100),
		"unknown": pkgcatalog.Radio("x"),
	}
	out := SanitizeFilters(in, FilterGroups("pc"))
	assert.Len(t, out, 2)
	assert.Contains(t, out, "cpu")
	assert.Contains(t, out, "price")
	assert.Len(t, in, 4, "input must not be modified")

	assert.Empty(t, SanitizeFilters(nil, FilterGroups("pc")))
}
