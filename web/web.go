// Package web holds the HTML templates and browser assets served by the
// dashboard.
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.html static
var FS embed.FS

// Static is the static/ subtree alone, so /static/* cannot reach the
// templates.
func Static() fs.FS {
	sub, err := fs.Sub(FS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
