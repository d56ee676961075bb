package admin

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Permit keeps only the keys the manifest allows to be written
func Permit(m Manifest, params map[string]any) map[string]any {
	permitted := make(map[string]any, len(params))
	for key, value := range params {
		if m.Permits(key) {
			permitted[key] = value
		}
	}
	return permitted
}

// FilterValues are filter inputs that passed the manifest whitelist
type FilterValues map[string]string

// InvalidFilterError names the filter whose value was rejected
type InvalidFilterError struct {
	Field string
	Value string
}

func (e *InvalidFilterError) Error() string {
	return fmt.Sprintf("invalid value %q for filter %s", e.Value, e.Field)
}

// ParseFilters validates raw query values against the manifest. Keys without a
// declared filter and blank values are dropped; select values outside the
// collection, malformed booleans and malformed dates are rejected.
func (m Manifest) ParseFilters(raw map[string]string) (FilterValues, error) {
	values := FilterValues{}
	for _, filter := range m.Filters {
		value := strings.TrimSpace(raw[filter.Field])
		if value == "" {
			continue
		}

		switch filter.Kind {
		case FilterSelect:
			if !slices.Contains(filter.Collection, value) {
				return nil, &InvalidFilterError{Field: filter.Field, Value: value}
			}
		case FilterBool:
			b, err := strconv.ParseBool(value)
			if err != nil {
				return nil, &InvalidFilterError{Field: filter.Field, Value: value}
			}
			value = strconv.FormatBool(b)
		case FilterDate:
			if _, err := time.Parse(time.DateOnly, value); err != nil {
				return nil, &InvalidFilterError{Field: filter.Field, Value: value}
			}
		}
		values[filter.Field] = value
	}
	return values, nil
}

// String returns the value of a filter and whether it is set
func (f FilterValues) String(field string) (*string, bool) {
	v, ok := f[field]
	if !ok {
		return nil, false
	}
	return &v, true
}

// Date returns the UTC midnight of a date filter
func (f FilterValues) Date(field string) (*time.Time, bool) {
	v, ok := f[field]
	if !ok {
		return nil, false
	}
	d, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return nil, false
	}
	return &d, true
}

// Bool returns the parsed value of a boolean filter
func (f FilterValues) Bool(field string) (*bool, bool) {
	v, ok := f[field]
	if !ok {
		return nil, false
	}
	b := v == "true"
	return &b, true
}
