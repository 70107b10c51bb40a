package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/windfall/spellcheck_service/internal/errors"
	"github.com/windfall/spellcheck_service/internal/middleware"
	"github.com/windfall/spellcheck_service/internal/repository"
	"github.com/windfall/spellcheck_service/internal/service"
	"github.com/windfall/spellcheck_service/pkg/response"
)

// SpellHandler serves the catalog pages and spell JSON.
type SpellHandler struct {
	log      zerolog.Logger
	spells   *service.SpellService
	renderer *Renderer
}

// NewSpellHandler creates a new SpellHandler.
func NewSpellHandler(log zerolog.Logger, spells *service.SpellService, renderer *Renderer) *SpellHandler {
	return &SpellHandler{
		log:      log,
		spells:   spells,
		renderer: renderer,
	}
}

type catalogData struct {
	Filter       service.SpellFilter
	Spells       []*repository.Spell
	Types        []string
	Difficulties []string
	Selected     *repository.Spell
}

// Index handles GET /?q=&t=&p=. With ?spell=X it also shows the recording form for X.
func (h *SpellHandler) Index(w http.ResponseWriter, r *http.Request) {
	var selected *repository.Spell
	if name := r.URL.Query().Get("spell"); name != "" {
		spell, err := h.spells.Get(r.Context(), name)
		if err != nil && !errors.IsNotFound(err) {
			h.pageError(w, middleware.CurrentUser(r.Context()), err)
			return
		}
		selected = spell
	}
	h.renderCatalog(w, r, selected)
}

// Catalog handles GET /spells?q=&t=&p=
func (h *SpellHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	h.renderCatalog(w, r, nil)
}

func (h *SpellHandler) renderCatalog(w http.ResponseWriter, r *http.Request, selected *repository.Spell) {
	user := middleware.CurrentUser(r.Context())
	q := r.URL.Query()
	filter := service.SpellFilter{
		Query:      q.Get("q"),
		Type:       q.Get("t"),
		Difficulty: q.Get("p"),
	}

	spells, err := h.spells.List(r.Context(), filter)
	if err != nil {
		h.pageError(w, user, err)
		return
	}
	types, difficulties, err := h.spells.Facets(r.Context())
	if err != nil {
		h.pageError(w, user, err)
		return
	}

	h.renderer.Render(w, http.StatusOK, "spells", View{
		User: user,
		Data: catalogData{
			Filter:       filter,
			Spells:       spells,
			Types:        types,
			Difficulties: difficulties,
			Selected:     selected,
		},
	})
}

// Detail handles GET /spells/{name}
func (h *SpellHandler) Detail(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())

	spell, err := h.spells.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.pageError(w, user, err)
		return
	}

	h.renderer.Render(w, http.StatusOK, "spell", View{User: user, Data: spell})
}

// List handles GET /api/spells
func (h *SpellHandler) List(w http.ResponseWriter, r *http.Request) {
	spells, err := h.spells.All(r.Context())
	if err != nil {
		writeDetailError(h.log, w, err)
		return
	}
	response.Raw(w, http.StatusOK, spells)
}

func (h *SpellHandler) pageError(w http.ResponseWriter, user *repository.User, err error) {
	status := errors.StatusOf(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("Page failed")
		h.renderer.RenderError(w, status, user, "Something went wrong")
		return
	}
	message := err.Error()
	if appErr, ok := errors.As(err); ok {
		message = appErr.Message
	}
	h.renderer.RenderError(w, status, user, message)
}
