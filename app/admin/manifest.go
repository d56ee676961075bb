// Package admin describes how each back office resource is listed, filtered, edited and exported.
// Manifests are plain values; the renderer and exporter read them without reflection.
package admin

import (
	"slices"
	"strings"
)

type FieldType string

const (
	FieldText     FieldType = "text"
	FieldTextArea FieldType = "textarea"
	FieldSelect   FieldType = "select"
	FieldBool     FieldType = "bool"
	FieldDateTime FieldType = "datetime"
)

// Field is one attribute of a resource as the back office sees it
type Field struct {
	Name       string
	Label      string
	Type       FieldType
	Editable   bool
	Filterable bool
	Listed     bool
	Collection []string // select options
}

type FilterKind string

const (
	FilterText   FilterKind = "text"
	FilterSelect FilterKind = "select"
	FilterDate   FilterKind = "date"
	FilterBool   FilterKind = "bool"
)

// Filter is a query control on the index page
type Filter struct {
	Field      string
	Label      string
	Kind       FilterKind
	Collection []string
}

type SortOrder struct {
	Expression string
	Direction  string // asc or desc
}

// SQL renders the ORDER BY clause body
func (s SortOrder) SQL() string {
	dir := "ASC"
	if strings.EqualFold(s.Direction, "desc") {
		dir = "DESC"
	}
	return s.Expression + " " + dir
}

type Manifest struct {
	Resource        string
	Title           string
	Fields          []Field
	PermittedParams []string
	Filters         []Filter
	ListColumns     []string
	SortOrder       SortOrder
}

// Field returns the field definition by name
func (m Manifest) Field(name string) (Field, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Label is the column heading of a field, falling back to a humanized name
func (m Manifest) Label(name string) string {
	if f, ok := m.Field(name); ok && f.Label != "" {
		return f.Label
	}
	return humanize(name)
}

// Filter returns the filter declared on field
func (m Manifest) Filter(field string) (Filter, bool) {
	for _, f := range m.Filters {
		if f.Field == field {
			return f, true
		}
	}
	return Filter{}, false
}

// Permits reports whether key may be written through the back office
func (m Manifest) Permits(key string) bool {
	return slices.Contains(m.PermittedParams, key)
}

func humanize(name string) string {
	s := strings.ReplaceAll(name, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
