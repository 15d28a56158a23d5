package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"

	"emergency-response/internal/middleware"
)

// Renderer executes the HTML views parsed from templates/*.html.
type Renderer struct {
	tmpl *template.Template
}

func NewRenderer(fsys fs.FS) (*Renderer, error) {
	tmpl, err := template.ParseFS(fsys, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render buffers the view so a template error never leaves a half-written page.
func (p *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		log.Printf("[%s] render %s: %v", r.Header.Get(middleware.RequestIDHeader), name, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
