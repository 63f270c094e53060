// Package web содержит страницу дашборда. Графики рисует ECharts в браузере по JSON API.
package web

import (
	_ "embed"
	"html/template"
	"io"
)

//go:embed index.html
var indexHTML string

var indexTmpl = template.Must(template.New("index").Parse(indexHTML))

// PageData — параметры поля ввода дней.
type PageData struct {
	DefaultDays int
	MaxDays     int
}

// RenderIndex пишет страницу дашборда.
func RenderIndex(w io.Writer, data PageData) error {
	return indexTmpl.Execute(w, data)
}
