package catalog

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogRawData []byte

// catalogFile is the top-level structure of the embedded YAML.
type catalogFile struct {
	Items []Item `yaml:"items"`
}

// Catalog provides lazy-loaded access to the embedded seed catalog.
type Catalog struct {
	once  sync.Once
	items []Item
	err   error
}

// NewCatalog creates a new Catalog that will parse the embedded YAML on first access.
func NewCatalog() *Catalog {
	return &Catalog{}
}

// Items returns a copy of all seed items.
func (c *Catalog) Items() ([]Item, error) {
	c.once.Do(c.load)
	if c.err != nil {
		return nil, c.err
	}
	cp := make([]Item, len(c.items))
	copy(cp, c.items)
	return cp, nil
}

// load parses the embedded YAML catalog data and checks every entry.
func (c *Catalog) load() {
	var f catalogFile
	if err := yaml.Unmarshal(catalogRawData, &f); err != nil {
		c.err = fmt.Errorf("catalog: parse yaml: %w", err)
		return
	}
	seen := make(map[string]bool, len(f.Items))
	for i := range f.Items {
		it := f.Items[i]
		if it.ID == "" {
			c.err = fmt.Errorf("catalog: item %d (%s) has no id", i, it.Name)
			return
		}
		if seen[it.ID] {
			c.err = fmt.Errorf("catalog: duplicate id %q", it.ID)
			return
		}
		seen[it.ID] = true
		if err := it.Validate(); err != nil {
			c.err = fmt.Errorf("catalog: item %q: %w", it.ID, err)
			return
		}
	}
	c.items = f.Items
}
