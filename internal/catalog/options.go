package catalog

import (
	pkgcatalog "github.com/HerbHall/rigforge/pkg/catalog"
)

// ExtractOptions returns the distinct values observed for dimension across
// items, in first-seen order. Multi-valued specs are split on ',' and ';'.
// Values are deduplicated case-sensitively, so "Samsung" and "samsung" are
// two options.
func ExtractOptions(items []pkgcatalog.Item, dimension string) []pkgcatalog.Option {
	aliases := Aliases(dimension)
	seen := make(map[string]struct{})
	options := make([]pkgcatalog.Option, 0)

	for i := range items {
		specs := items[i].Specs
		if len(specs) == 0 {
			continue
		}
		for _, alias := range aliases {
			for _, k := range keysMatching(specs, alias) {
				v := specs[k]
				if v == "" {
					continue
				}
				for _, part := range splitSpecValue(v) {
					if _, ok := seen[part]; ok {
						continue
					}
					seen[part] = struct{}{}
					options = append(options, pkgcatalog.Option{ID: part, Label: part})
				}
			}
		}
	}
	return options
}
