// Package web holds the embedded server-rendered views and static assets.
package web

import (
	"embed"
	"html/template"
	"io/fs"
)

//go:embed templates
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Templates parses every embedded view. Panics on a malformed template,
// which can only happen at build time.
func Templates() *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))
}

// Static exposes the embedded assets rooted at the static directory.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
