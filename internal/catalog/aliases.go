// Package catalog implements the shop's catalog query engine: specification
// key normalization, filter-group derivation, option extraction, and the
// search/filter/sort pipeline, plus the module that serves it over HTTP.
package catalog

import "strings"

// specAliases maps a canonical dimension to the spec keys that mean the same
// thing in catalog data, in priority order. The canonical name is always
// first.
var specAliases = map[string][]string{
	"cpu":         {"cpu", "processor", "prozessor", "chip"},
	"gpu":         {"gpu", "graphics", "graphicscard", "graphics card", "video card"},
	"ram":         {"ram", "memory", "arbeitsspeicher", "system memory"},
	"storage":     {"storage", "ssd", "hdd", "drive", "speicher"},
	"motherboard": {"motherboard", "mainboard", "mobo"},
	"psu":         {"psu", "power supply", "powersupply", "netzteil"},
	"case":        {"case", "chassis", "gehäuse", "tower"},
	"cooling":     {"cooling", "cooler", "cpu cooler", "kühlung"},
}

// Aliases returns the lower-cased spec keys equivalent to dimension. A
// dimension outside the canonical table maps to itself.
func Aliases(dimension string) []string {
	key := strings.ToLower(strings.TrimSpace(dimension))
	if aliases, ok := specAliases[key]; ok {
		out := make([]string, len(aliases))
		copy(out, aliases)
		return out
	}
	return []string{strings.ToLower(dimension)}
}

// normalizeKey is the form spec keys are compared in.
func normalizeKey(k string) string {
	return strings.ToLower(strings.TrimSpace(k))
}
