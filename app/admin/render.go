package admin

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"
)

//go:embed templates/*.html
var templateFS embed.FS

var indexTemplate = template.Must(template.New("index.html").Funcs(template.FuncMap{
	"cells": func(r Row, columns []string) []string { return r.Cells(columns) },
}).ParseFS(templateFS, "templates/index.html"))

type filterView struct {
	Filter
	Value string
}

type indexView struct {
	Title      string
	Resource   string
	Resources  []string
	Columns    []string
	Header     []string
	Rows       []Row
	Filters    []filterView
	Total      int64
	Page       int
	TotalPages int
	PrevURL    string
	NextURL    string
	ExportURL  string
	BasePath   string
}

// RenderHTML writes the index page of a table. basePath is where the admin is mounted.
func RenderHTML(w io.Writer, basePath string, t Table, filters FilterValues) error {
	view := indexView{
		Title:      t.Manifest.Title,
		Resource:   t.Manifest.Resource,
		Resources:  Resources(),
		Columns:    t.Manifest.ListColumns,
		Header:     t.Header(),
		Rows:       t.Rows,
		Total:      t.Total,
		Page:       t.Page,
		TotalPages: t.TotalPages(),
		BasePath:   basePath,
	}
	for _, f := range t.Manifest.Filters {
		view.Filters = append(view.Filters, filterView{Filter: f, Value: filters[f.Field]})
	}

	resourcePath := basePath + "/" + t.Manifest.Resource
	view.ExportURL = resourcePath + "/export" + query(filters, 0)
	if t.Page > 1 {
		view.PrevURL = resourcePath + query(filters, t.Page-1)
	}
	if t.Page < view.TotalPages {
		view.NextURL = resourcePath + query(filters, t.Page+1)
	}

	if err := indexTemplate.Execute(w, view); err != nil {
		return fmt.Errorf("render %s index: %w", t.Manifest.Resource, err)
	}
	return nil
}

func query(filters FilterValues, page int) string {
	q := url.Values{}
	for k, v := range filters {
		q.Set(k, v)
	}
	if page > 0 {
		q.Set("page", fmt.Sprint(page))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}
