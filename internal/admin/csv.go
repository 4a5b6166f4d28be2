package admin

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/HerbHall/rigforge/pkg/catalog"
)

// csvHeaders returns the column headers for product CSV export and import.
func csvHeaders() []string {
	return []string{
		"id", "name", "category", "description",
		"price", "stock", "image_url", "specs",
	}
}

const csvColumnCount = 8

// productToCSVRow converts a product to a CSV row (matching csvHeaders order).
// Specs are written as a JSON object since spec values may contain commas
// and semicolons.
func productToCSVRow(it catalog.Item) []string {
	specs := ""
	if len(it.Specs) > 0 {
		// map[string]string always marshals.
		b, _ := json.Marshal(it.Specs)
		specs = string(b)
	}
	imageURL := ""
	if it.ImageURL != nil {
		imageURL = *it.ImageURL
	}
	return []string{
		it.ID,
		it.Name,
		it.Category,
		it.Description,
		strconv.FormatFloat(it.Price, 'f', 2, 64),
		strconv.Itoa(it.Stock),
		imageURL,
		specs,
	}
}

// csvRowToProduct parses a CSV row into a product. The result is validated.
func csvRowToProduct(row []string) (catalog.Item, error) {
	if len(row) < csvColumnCount {
		return catalog.Item{}, fmt.Errorf("expected %d columns, got %d", csvColumnCount, len(row))
	}
	// Re-slice to exact length so gosec can verify bounds statically.
	r := row[:csvColumnCount]

	it := catalog.Item{
		ID:          strings.TrimSpace(r[0]),
		Name:        strings.TrimSpace(r[1]),
		Category:    strings.ToLower(strings.TrimSpace(r[2])),
		Description: strings.TrimSpace(r[3]),
	}

	if s := strings.TrimSpace(r[4]); s != "" {
		price, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return catalog.Item{}, fmt.Errorf("invalid price %q", s)
		}
		it.Price = price
	}
	if s := strings.TrimSpace(r[5]); s != "" {
		stock, err := strconv.Atoi(s)
		if err != nil {
			return catalog.Item{}, fmt.Errorf("invalid stock %q", s)
		}
		it.Stock = stock
	}
	if s := strings.TrimSpace(r[6]); s != "" {
		it.ImageURL = &s
	}
	if s := strings.TrimSpace(r[7]); s != "" {
		if err := json.Unmarshal([]byte(s), &it.Specs); err != nil {
			return catalog.Item{}, fmt.Errorf("invalid specs: %w", err)
		}
	}

	if err := it.Validate(); err != nil {
		return catalog.Item{}, err
	}
	return it, nil
}

// validateCSVHeader checks that the first import row names the expected
// columns in order. Header names are compared case-insensitively.
func validateCSVHeader(header []string) error {
	want := csvHeaders()
	if len(header) < len(want) {
		return fmt.Errorf("header has %d columns, want %d", len(header), len(want))
	}
	for i, name := range want {
		got := strings.TrimPrefix(header[i], "\ufeff")
		if !strings.EqualFold(strings.TrimSpace(got), name) {
			return fmt.Errorf("column %d is %q, want %q", i+1, header[i], name)
		}
	}
	return nil
}
