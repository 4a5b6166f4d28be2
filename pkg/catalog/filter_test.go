package catalog

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestSelection_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Selection
	}{
		{"string", `"AMD"`, Radio("AMD")},
		{"array", `["Intel","AMD"]`, Checkbox("Intel", "AMD")},
		{"range", `{"min":4,"max":16}`, Between(4, 16)},
		{"number", `16`, Radio("16")},
		{"mixed array", `["RTX", 7, true]`, Checkbox("RTX", "7")},
		{"null", `null`, Selection{}},
		{"bool", `true`, Selection{}},
		{"object without bounds", `{"lo":1}`, Selection{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Selection
			if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
				t.Fatalf("Unmarshal(%s) = %v", tt.in, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Unmarshal(%s) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSelection_UnmarshalJSON_Malformed(t *testing.T) {
	var s Selection
	if err := json.Unmarshal([]byte(`{"min":`), &s); err == nil {
		t.Error("Unmarshal(truncated) error = nil, want error")
	}
}

func TestSelection_MarshalJSON(t *testing.T) {
	filters := ActiveFilters{
		"cpu":      Checkbox("Intel"),
		"type":     Radio("DDR5"),
		"capacity": Between(16, 64),
		"empty":    {},
	}
	b, err := json.Marshal(filters)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"capacity":{"min":16,"max":64},"cpu":["Intel"],"empty":null,"type":"DDR5"}`
	if string(b) != want {
		t.Errorf("Marshal = %s, want %s", b, want)
	}
}

func TestSelection_Values(t *testing.T) {
	if got := Checkbox("a", "b").Values(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Checkbox.Values() = %v", got)
	}
	if got := Radio("x").Values(); !reflect.DeepEqual(got, []string{"x"}) {
		t.Errorf("Radio.Values() = %v", got)
	}
	if got := Between(1, 2).Values(); got != nil {
		t.Errorf("Between.Values() = %v, want nil", got)
	}
	if !(Selection{}).IsEmpty() {
		t.Error("zero Selection not empty")
	}
	if Checkbox().IsEmpty() != true {
		t.Error("Checkbox() with no ids not empty")
	}
}

func TestRange_ContainsInclusive(t *testing.T) {
	r := Range{Min: 800, Max: 1200}
	for _, v := range []float64{800, 1000, 1200} {
		if !r.Contains(v) {
			t.Errorf("Contains(%v) = false", v)
		}
	}
	for _, v := range []float64{799.99, 1200.01} {
		if r.Contains(v) {
			t.Errorf("Contains(%v) = true", v)
		}
	}
}

func TestQueryState_JSON(t *testing.T) {
	in := `{"searchText":"ryzen","activeFilters":{"cpu":["AMD"]},"sortOption":"price-asc","priceRange":{"min":0,"max":1500}}`
	var q QueryState
	if err := json.Unmarshal([]byte(in), &q); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if q.SearchText != "ryzen" || q.SortKey != SortPriceAsc {
		t.Errorf("QueryState = %+v", q)
	}
	if q.PriceRange == nil || q.PriceRange.Max != 1500 {
		t.Errorf("PriceRange = %+v, want max 1500", q.PriceRange)
	}
	if got := q.ActiveFilters["cpu"].Values(); !reflect.DeepEqual(got, []string{"AMD"}) {
		t.Errorf("cpu filter = %v, want [AMD]", got)
	}
}
