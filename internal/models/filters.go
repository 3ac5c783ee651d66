// internal/models/filters.go
package models

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

const DefaultFormat = "csv"

// FilterSet is the parameter set sent to a dataset endpoint. Offset, Limit
// and Format are always present. Fields only holds names the dataset declares.
type FilterSet struct {
	Offset int
	Limit  int
	Format string
	Fields map[string]string
}

func NewFilterSet(limit int) FilterSet {
	return FilterSet{
		Offset: 0,
		Limit:  limit,
		Format: DefaultFormat,
		Fields: make(map[string]string),
	}
}

// Get returns the value of a dataset filter field, or "".
func (f FilterSet) Get(name string) string {
	return f.Fields[name]
}

func (f *FilterSet) Set(name, value string) {
	if f.Fields == nil {
		f.Fields = make(map[string]string)
	}
	f.Fields[name] = value
}

// Names returns the populated field names in sorted order.
func (f FilterSet) Names() []string {
	names := make([]string, 0, len(f.Fields))
	for k := range f.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// AsMap flattens the set into a single map, as sent to workflow variables.
func (f FilterSet) AsMap() map[string]interface{} {
	m := make(map[string]interface{}, len(f.Fields)+3)
	for k, v := range f.Fields {
		m[k] = v
	}
	m["offset"] = f.Offset
	m["limit"] = f.Limit
	m["format"] = f.Format
	return m
}

func (f FilterSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.AsMap())
}

// UnmarshalJSON accepts the flat form written by MarshalJSON. Numbers may
// arrive as JSON numbers or numeric strings.
func (f *FilterSet) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*f = FilterSet{Format: DefaultFormat, Fields: make(map[string]string)}
	for k, v := range raw {
		switch k {
		case "offset", "limit":
			n, err := toInt(v)
			if err != nil {
				return fmt.Errorf("filter %s: %w", k, err)
			}
			if k == "offset" {
				f.Offset = n
			} else {
				f.Limit = n
			}
		case "format":
			if s, ok := v.(string); ok && s != "" {
				f.Format = s
			}
		default:
			if v == nil {
				continue
			}
			f.Fields[k] = fmt.Sprint(v)
		}
	}
	return nil
}

// toInt reads a non-negative whole number.
func toInt(v interface{}) (int, error) {
	var n int
	switch x := v.(type) {
	case float64:
		if x != math.Trunc(x) || x > math.MaxInt32 {
			return 0, fmt.Errorf("not a whole number: %v", x)
		}
		n = int(x)
	case string:
		i, err := strconv.Atoi(x)
		if err != nil {
			return 0, err
		}
		n = i
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative value %d", n)
	}
	return n, nil
}
