package catalog

import (
	"sort"
	"strings"
)

// keysMatching returns the keys of specs whose normalized form equals alias,
// sorted so that callers see a stable order regardless of map iteration.
func keysMatching(specs map[string]string, alias string) []string {
	var keys []string
	for k := range specs {
		if normalizeKey(k) == alias {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// lookupSpec resolves a dimension's value on one item: the first alias (in
// priority order) that matches any spec key wins, and among keys matching the
// same alias the lexically smallest one wins.
func lookupSpec(specs map[string]string, aliases []string) (string, bool) {
	if len(specs) == 0 {
		return "", false
	}
	for _, alias := range aliases {
		if keys := keysMatching(specs, alias); len(keys) > 0 {
			return specs[keys[0]], true
		}
	}
	return "", false
}

// splitSpecValue splits a multi-valued spec ("AM5, LGA1700" or "ATX; ITX")
// into trimmed, non-empty parts.
func splitSpecValue(v string) []string {
	fields := strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ';' })
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			parts = append(parts, f)
		}
	}
	return parts
}
