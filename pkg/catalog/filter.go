package catalog

import (
	"encoding/json"
	"strconv"
)

// FilterKind is the control type of a filter group.
type FilterKind string

const (
	KindRange    FilterKind = "range"
	KindCheckbox FilterKind = "checkbox"
	KindRadio    FilterKind = "radio"
)

// RangeBounds describes the slider of a range group.
type RangeBounds struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Step float64 `json:"step"`
	Unit string  `json:"unit,omitempty"`
}

// Option is one selectable value of a checkbox or radio group.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// FilterGroup is one filterable dimension of a category. Title doubles as
// the key of the group's entry in ActiveFilters.
type FilterGroup struct {
	Title   string       `json:"title"`
	Kind    FilterKind   `json:"kind"`
	Range   *RangeBounds `json:"range,omitempty"`
	Options []Option     `json:"options,omitempty"`
}

// Range is an inclusive numeric interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether min <= v <= max.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Selection is the user's choice for one filter group. Exactly one of the
// fields is meaningful: Range for range groups, Option for radio groups,
// Options for checkbox groups.
//
// On the wire a selection is a {min,max} object, a string, or an array of
// strings respectively.
type Selection struct {
	Range   *Range
	Option  string
	Options []string
}

// Checkbox returns a checkbox selection of the given option ids.
func Checkbox(ids ...string) Selection {
	return Selection{Options: ids}
}

// Radio returns a radio selection of one option id.
func Radio(id string) Selection {
	return Selection{Option: id}
}

// Between returns a range selection.
func Between(minV, maxV float64) Selection {
	return Selection{Range: &Range{Min: minV, Max: maxV}}
}

// IsEmpty reports whether nothing is selected.
func (s Selection) IsEmpty() bool {
	return s.Range == nil && s.Option == "" && len(s.Options) == 0
}

// Values returns the selected option ids (nil for range selections).
func (s Selection) Values() []string {
	if len(s.Options) > 0 {
		return s.Options
	}
	if s.Option != "" {
		return []string{s.Option}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (s Selection) MarshalJSON() ([]byte, error) {
	switch {
	case s.Range != nil:
		return json.Marshal(s.Range)
	case s.Options != nil:
		return json.Marshal(s.Options)
	case s.Option != "":
		return json.Marshal(s.Option)
	}
	return []byte("null"), nil
}

// UnmarshalJSON implements json.Unmarshaler. Well-formed JSON of an
// unexpected shape (booleans, nested arrays, objects without bounds) decodes
// to an empty selection rather than failing, so one odd filter cannot reject
// a whole query.
func (s *Selection) UnmarshalJSON(data []byte) error {
	*s = Selection{}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		s.Option = v
	case float64:
		s.Option = strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		opts := make([]string, 0, len(v))
		for _, e := range v {
			switch e := e.(type) {
			case string:
				opts = append(opts, e)
			case float64:
				opts = append(opts, strconv.FormatFloat(e, 'f', -1, 64))
			}
		}
		s.Options = opts
	case map[string]any:
		minV, okMin := v["min"].(float64)
		maxV, okMax := v["max"].(float64)
		if okMin && okMax {
			s.Range = &Range{Min: minV, Max: maxV}
		}
	}
	return nil
}

// ActiveFilters maps a filter group title to its current selection.
type ActiveFilters map[string]Selection
