// Package view holds the dashboard's embedded HTML templates and static assets.
package view

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static/*.css static/*.js
var staticFS embed.FS

var funcs = template.FuncMap{
	"since": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return humanize.Time(t)
	},
	"stamp": func(t time.Time) string {
		return t.Local().Format("02/01/2006 15:04")
	},
}

var templates = template.Must(template.New("").Funcs(funcs).ParseFS(templatesFS, "templates/*.html"))

// Static serves the embedded assets; mount it under /static/.
func Static() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}

// Render executes the page template into a buffer first so a template error
// never leaves a half-written response.
func Render(w http.ResponseWriter, status int, page string, data any) error {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, page+".html", data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Has reports whether a page template exists.
func Has(page string) bool {
	return templates.Lookup(page+".html") != nil
}
