package catalog

import (
	"strings"

	pkgcatalog "github.com/HerbHall/rigforge/pkg/catalog"
)

// priceGroup is prepended to every category's groups.
var priceGroup = pkgcatalog.FilterGroup{
	Title: pkgcatalog.PriceKey,
	Kind:  pkgcatalog.KindRange,
	Range: &pkgcatalog.RangeBounds{Min: 0, Max: 5000, Step: 10, Unit: "€"},
}

func opts(ids ...string) []pkgcatalog.Option {
	out := make([]pkgcatalog.Option, len(ids))
	for i, id := range ids {
		out[i] = pkgcatalog.Option{ID: id, Label: id}
	}
	return out
}

func rangeGroup(title string, minV, maxV, step float64, unit string) pkgcatalog.FilterGroup {
	return pkgcatalog.FilterGroup{
		Title: title,
		Kind:  pkgcatalog.KindRange,
		Range: &pkgcatalog.RangeBounds{Min: minV, Max: maxV, Step: step, Unit: unit},
	}
}

func checkboxGroup(title string, options []pkgcatalog.Option) pkgcatalog.FilterGroup {
	return pkgcatalog.FilterGroup{Title: title, Kind: pkgcatalog.KindCheckbox, Options: options}
}

func radioGroup(title string, options []pkgcatalog.Option) pkgcatalog.FilterGroup {
	return pkgcatalog.FilterGroup{Title: title, Kind: pkgcatalog.KindRadio, Options: options}
}

// categoryGroups holds the category-specific groups. Checkbox groups with no
// options are filled from catalog data by the HTTP layer.
var categoryGroups = map[string][]pkgcatalog.FilterGroup{
	"cpu": {
		radioGroup("manufacturer", opts("AMD", "Intel")),
		rangeGroup("cores", 1, 64, 1, ""),
		checkboxGroup("socket", opts("AM4", "AM5", "LGA1700", "LGA1851")),
		rangeGroup("frequency", 1, 6, 0.1, "GHz"),
	},
	"gpu": {
		checkboxGroup("chipset", opts("NVIDIA", "AMD", "Intel")),
		rangeGroup("memory", 2, 32, 2, "GB"),
	},
	"ram": {
		radioGroup("type", opts("DDR4", "DDR5")),
		rangeGroup("capacity", 8, 128, 8, "GB"),
		rangeGroup("speed", 2133, 8000, 100, "MHz"),
	},
	"storage": {
		checkboxGroup("type", opts("NVMe", "SATA", "HDD")),
		checkboxGroup("manufacturer", nil),
		checkboxGroup("capacity", nil),
	},
	"motherboard": {
		checkboxGroup("socket", opts("AM4", "AM5", "LGA1700")),
		checkboxGroup("chipset", nil),
		radioGroup("form factor", opts("ATX", "Micro-ATX", "Mini-ITX")),
	},
	"psu": {
		rangeGroup("wattage", 300, 1600, 50, "W"),
		checkboxGroup("efficiency", opts("80+ Bronze", "80+ Gold", "80+ Platinum", "80+ Titanium")),
		radioGroup("modular", opts("Full", "Semi", "None")),
	},
	"case": {
		checkboxGroup("form factor", opts("ATX", "Micro-ATX", "Mini-ITX")),
		checkboxGroup("color", nil),
	},
	"cooling": {
		radioGroup("type", opts("Air", "AIO")),
		checkboxGroup("socket", opts("AM4", "AM5", "LGA1700")),
	},
	"pc": {
		checkboxGroup(pkgcatalog.CategoryKey, opts("gaming-pc", "office-pc", "workstation-pc")),
		checkboxGroup("cpu", opts("Intel", "AMD")),
		checkboxGroup("gpu", []pkgcatalog.Option{
			{ID: "RTX", Label: "NVIDIA GeForce RTX"},
			{ID: "RX", Label: "AMD Radeon RX"},
		}),
		checkboxGroup("ram", opts("8 GB", "16 GB", "32 GB", "64 GB")),
	},
}

// FilterGroups returns the filter groups for a top-level category: the price
// group followed by the category's own groups. An unknown category yields
// only the price group. The result is a fresh copy on every call.
func FilterGroups(category string) []pkgcatalog.FilterGroup {
	specific := categoryGroups[strings.ToLower(strings.TrimSpace(category))]
	groups := make([]pkgcatalog.FilterGroup, 0, len(specific)+1)
	groups = append(groups, cloneGroup(priceGroup))
	for i := range specific {
		groups = append(groups, cloneGroup(specific[i]))
	}
	return groups
}

// Categories returns the categories that have specific filter groups.
func Categories() []string {
	return []string{"cpu", "gpu", "ram", "storage", "motherboard", "psu", "case", "cooling", "pc"}
}

func cloneGroup(g pkgcatalog.FilterGroup) pkgcatalog.FilterGroup {
	out := g
	if g.Range != nil {
		r := *g.Range
		out.Range = &r
	}
	if g.Options != nil {
		out.Options = make([]pkgcatalog.Option, len(g.Options))
		copy(out.Options, g.Options)
	}
	return out
}
