package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAliases(t *testing.T) {
	tests := []struct {
		dimension string
		wantFirst string
		contains  string
	}{
		{"cpu", "cpu", "processor"},
		{"GPU", "gpu", "graphics card"},
		{" ram ", "ram", "memory"},
		{"storage", "storage", "ssd"},
		{"case", "case", "gehäuse"},
		{"cooling", "cooling", "cpu cooler"},
	}
	for _, tt := range tests {
		got := Aliases(tt.dimension)
		if assert.NotEmpty(t, got, tt.dimension) {
			assert.Equal(t, tt.wantFirst, got[0], tt.dimension)
		}
		assert.Contains(t, got, tt.contains, tt.dimension)
	}
}

func TestAliases_Fallback(t *testing.T) {
	assert.Equal(t, []string{"form factor"}, Aliases("Form Factor"))
	assert.Equal(t, []string{""}, Aliases(""))
}

func TestAliases_ReturnsCopy(t *testing.T) {
	a := Aliases("cpu")
	a[0] = "mutated"
	assert.Equal(t, "cpu", Aliases("cpu")[0])
}

func TestLookupSpec_Priority(t *testing.T) {
	specs := map[string]string{
		"processor": "AMD Ryzen 7",
		"CPU":       "Intel i5",
	}
	got, ok := lookupSpec(specs, Aliases("cpu"))
	assert.True(t, ok)
	assert.Equal(t, "Intel i5", got, "canonical alias wins over later aliases")

	got, ok = lookupSpec(map[string]string{"Video Card": "RTX 4080"}, Aliases("gpu"))
	assert.True(t, ok)
	assert.Equal(t, "RTX 4080", got)

	_, ok = lookupSpec(map[string]string{"color": "White"}, Aliases("gpu"))
	assert.False(t, ok)

	_, ok = lookupSpec(nil, Aliases("gpu"))
	assert.False(t, ok)
}

func TestLookupSpec_SameAliasDeterministic(t *testing.T) {
	specs := map[string]string{"GPU": "first", "gpu": "second", " Gpu ": "third"}
	for range 20 {
		got, _ := lookupSpec(specs, Aliases("gpu"))
		assert.Equal(t, "third", got)
	}
}

func TestSplitSpecValue(t *testing.T) {
	assert.Equal(t, []string{"ATX", "Micro-ATX", "Mini-ITX"}, splitSpecValue("ATX; Micro-ATX; Mini-ITX"))
	assert.Equal(t, []string{"AM5", "LGA1700"}, splitSpecValue("AM5, LGA1700"))
	assert.Equal(t, []string{"solo"}, splitSpecValue(" solo "))
	assert.Empty(t, splitSpecValue(" , ;"))
}
