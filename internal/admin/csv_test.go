package admin

import (
	"errors"
	"testing"

	"github.com/HerbHall/rigforge/pkg/catalog"
)

func TestProductToCSVRow_ColumnCount(t *testing.T) {
	img := "https://img.example/990.png"
	it := catalog.Item{
		ID:          "storage-990-pro-2tb",
		Name:        "Samsung 990 Pro 2 TB",
		Category:    "storage",
		Description: "PCIe 4.0, NVMe SSD",
		Specs:       map[string]string{"type": "NVMe", "capacity": "2 TB"},
		Price:       169,
		ImageURL:    &img,
		Stock:       18,
	}

	row := productToCSVRow(it)

	if len(row) != len(csvHeaders()) {
		t.Fatalf("expected %d columns, got %d", len(csvHeaders()), len(row))
	}
	if row[0] != "storage-990-pro-2tb" {
		t.Errorf("id: got %q, want %q", row[0], "storage-990-pro-2tb")
	}
	if row[4] != "169.00" {
		t.Errorf("price: got %q, want %q", row[4], "169.00")
	}
	if row[6] != img {
		t.Errorf("image_url: got %q, want %q", row[6], img)
	}
	if row[7] != `{"capacity":"2 TB","type":"NVMe"}` {
		t.Errorf("specs: got %q", row[7])
	}
}

func TestProductToCSVRow_EmptySpecs(t *testing.T) {
	row := productToCSVRow(catalog.Item{ID: "x", Name: "X"})
	if row[6] != "" || row[7] != "" {
		t.Errorf("image_url/specs = %q/%q, want empty", row[6], row[7])
	}
}

func TestCSVRowToProduct_ValidRow(t *testing.T) {
	row := []string{
		"case-north", " North Mesh ", "Case", "Mid-tower.",
		"139.00", "8", "",
		`{"form factor":"ATX; Micro-ATX; Mini-ITX","color":"Charcoal"}`,
	}

	it, err := csvRowToProduct(row)
	if err != nil {
		t.Fatalf("csvRowToProduct: %v", err)
	}

	if it.Name != "North Mesh" {
		t.Errorf("Name: got %q, want %q", it.Name, "North Mesh")
	}
	if it.Category != "case" {
		t.Errorf("Category: got %q, want %q", it.Category, "case")
	}
	if it.Price != 139 {
		t.Errorf("Price: got %v, want 139", it.Price)
	}
	if it.Stock != 8 {
		t.Errorf("Stock: got %d, want 8", it.Stock)
	}
	if it.ImageURL != nil {
		t.Errorf("ImageURL: got %q, want nil", *it.ImageURL)
	}
	if got := it.Specs["form factor"]; got != "ATX; Micro-ATX; Mini-ITX" {
		t.Errorf("Specs[form factor]: got %q", got)
	}
}

func TestCSVRowToProduct_Errors(t *testing.T) {
	tests := []struct {
		name    string
		row     []string
		invalid bool
	}{
		{"too few columns", []string{"id-only", "name"}, false},
		{"bad price", []string{"a", "A", "cpu", "", "cheap", "1", "", ""}, false},
		{"bad stock", []string{"a", "A", "cpu", "", "10", "many", "", ""}, false},
		{"bad specs", []string{"a", "A", "cpu", "", "10", "1", "", "socket=AM5"}, false},
		{"missing name", []string{"a", "", "cpu", "", "10", "1", "", ""}, true},
		{"negative price", []string{"a", "A", "cpu", "", "-1", "1", "", ""}, true},
		{"negative stock", []string{"a", "A", "cpu", "", "1", "-3", "", ""}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := csvRowToProduct(tc.row)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.Is(err, catalog.ErrInvalidItem); got != tc.invalid {
				t.Errorf("errors.Is(err, ErrInvalidItem) = %v, want %v (err: %v)", got, tc.invalid, err)
			}
		})
	}
}

func TestCSVRoundTrip(t *testing.T) {
	img := "https://img.example/pc.png"
	original := catalog.Item{
		ID:          "pc-beta",
		Name:        "Beta PC",
		Category:    "gaming-pc",
		Description: "High-refresh 1440p gaming PC, \"quiet\" edition",
		Specs: map[string]string{
			"processor":     "AMD Ryzen 7",
			"graphics card": "RX 7800 XT",
		},
		Price:    1200,
		ImageURL: &img,
		Stock:    0,
	}

	parsed, err := csvRowToProduct(productToCSVRow(original))
	if err != nil {
		t.Fatalf("csvRowToProduct: %v", err)
	}

	if parsed.ID != original.ID {
		t.Errorf("ID: got %q, want %q", parsed.ID, original.ID)
	}
	if parsed.Description != original.Description {
		t.Errorf("Description: got %q, want %q", parsed.Description, original.Description)
	}
	if parsed.Price != original.Price {
		t.Errorf("Price: got %v, want %v", parsed.Price, original.Price)
	}
	if parsed.ImageURL == nil || *parsed.ImageURL != img {
		t.Errorf("ImageURL: got %v, want %q", parsed.ImageURL, img)
	}
	if len(parsed.Specs) != len(original.Specs) {
		t.Fatalf("Specs len: got %d, want %d", len(parsed.Specs), len(original.Specs))
	}
	for k, v := range original.Specs {
		if parsed.Specs[k] != v {
			t.Errorf("Specs[%q]: got %q, want %q", k, parsed.Specs[k], v)
		}
	}
}

func TestValidateCSVHeader(t *testing.T) {
	tests := []struct {
		name    string
		header  []string
		wantErr bool
	}{
		{"exact", csvHeaders(), false},
		{"upper case with BOM", []string{"\ufeffID", "Name", "CATEGORY", "Description", "Price", "Stock", "Image_URL", "Specs"}, false},
		{"short", []string{"id", "name"}, true},
		{"wrong order", []string{"name", "id", "category", "description", "price", "stock", "image_url", "specs"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validateCSVHeader(tc.header)
			if (err != nil) != tc.wantErr {
				t.Errorf("validateCSVHeader() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
