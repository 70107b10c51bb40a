package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/windfall/spellcheck_service/internal/repository"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"spells", "spell", "login", "register", "profile", "error"}

// View is the data passed to every page.
type View struct {
	User    *repository.User
	Message string
	Data    any
}

// Renderer renders the embedded HTML pages.
type Renderer struct {
	pages map[string]*template.Template
	log   zerolog.Logger
}

// NewRenderer parses every page together with the shared layout.
func NewRenderer(log zerolog.Logger) (*Renderer, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.New(name).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	return &Renderer{pages: pages, log: log}, nil
}

// Render writes page with status, or a bare 500 if the template fails.
func (rd *Renderer) Render(w http.ResponseWriter, status int, page string, view View) {
	tmpl, ok := rd.pages[page]
	if !ok {
		rd.log.Error().Str("page", page).Msg("Unknown page")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", view); err != nil {
		rd.log.Error().Err(err).Str("page", page).Msg("Template execution failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

type errorPage struct {
	Status  int
	Message string
}

// RenderError renders the error page.
func (rd *Renderer) RenderError(w http.ResponseWriter, status int, user *repository.User, message string) {
	rd.Render(w, status, "error", View{User: user, Data: errorPage{Status: status, Message: message}})
}
