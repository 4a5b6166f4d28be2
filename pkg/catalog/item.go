// Package catalog holds the shop's catalog data model: products, filter
// groups, and the query state the catalog engine consumes.
package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidItem is returned when an item violates the catalog invariants.
var ErrInvalidItem = errors.New("invalid catalog item")

// Item is a product-like record: a component or a prebuilt PC.
type Item struct {
	ID          string            `json:"id" yaml:"id"`
	Name        string            `json:"name" yaml:"name"`
	Category    string            `json:"category" yaml:"category"`
	Description string            `json:"description" yaml:"description"`
	Specs       map[string]string `json:"specs" yaml:"specs"`
	Price       float64           `json:"price" yaml:"price"`
	ImageURL    *string           `json:"imageUrl" yaml:"image_url"`
	Stock       int               `json:"stock" yaml:"stock"`
}

// Validate checks the invariants every stored item must hold.
func (it Item) Validate() error {
	switch {
	case strings.TrimSpace(it.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidItem)
	case it.Price < 0:
		return fmt.Errorf("%w: price must be >= 0, got %v", ErrInvalidItem, it.Price)
	case it.Stock < 0:
		return fmt.Errorf("%w: stock must be >= 0, got %d", ErrInvalidItem, it.Stock)
	}
	return nil
}

// InStock reports whether at least one unit is available.
func (it Item) InStock() bool {
	return it.Stock > 0
}
