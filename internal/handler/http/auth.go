package http

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/windfall/spellcheck_service/internal/errors"
	"github.com/windfall/spellcheck_service/internal/middleware"
	"github.com/windfall/spellcheck_service/internal/service"
)

// AuthHandler handles the account pages.
type AuthHandler struct {
	log           zerolog.Logger
	authService   *service.AuthService
	renderer      *Renderer
	secureCookies bool
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(log zerolog.Logger, authService *service.AuthService, renderer *Renderer, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		log:           log,
		authService:   authService,
		renderer:      renderer,
		secureCookies: secureCookies,
	}
}

type loginForm struct {
	Email string
	Next  string
}

type registerForm struct {
	Username string
	Email    string
}

// RegisterPage handles GET /register
func (h *AuthHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, "register", View{
		User: middleware.CurrentUser(r.Context()),
		Data: registerForm{},
	})
}

// Register handles POST /register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	req := service.RegisterReq{
		Username: r.PostFormValue("username"),
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}

	result, err := h.authService.Register(r.Context(), req)
	if err != nil {
		h.renderFormError(w, "register", err, registerForm{Username: req.Username, Email: req.Email})
		return
	}

	h.startSession(w, result.Token)
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

// LoginPage handles GET /login. A "next" parameter means a protected page redirected here.
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	next := r.URL.Query().Get("next")
	view := View{
		User: middleware.CurrentUser(r.Context()),
		Data: loginForm{Next: next},
	}
	if next != "" {
		view.Message = service.MsgLoginRequired
	}
	h.renderer.Render(w, http.StatusOK, "login", view)
}

// Login handles POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req := service.LoginReq{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	next := r.PostFormValue("next")

	result, err := h.authService.Login(r.Context(), req)
	if err != nil {
		h.renderFormError(w, "login", err, loginForm{Email: req.Email, Next: next})
		return
	}

	h.startSession(w, result.Token)
	http.Redirect(w, r, safeRedirect(next, "/profile"), http.StatusSeeOther)
}

// Logout handles POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	middleware.ClearSession(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Profile handles GET /profile. Mounted behind middleware.RequireUser.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, "profile", View{User: middleware.CurrentUser(r.Context())})
}

func (h *AuthHandler) startSession(w http.ResponseWriter, token string) {
	middleware.SetSession(w, token, int(h.authService.SessionTTL().Seconds()), h.secureCookies)
}

func (h *AuthHandler) renderFormError(w http.ResponseWriter, page string, err error, form any) {
	appErr, ok := errors.As(err)
	if !ok || appErr.HTTPStatus() >= http.StatusInternalServerError {
		h.log.Error().Err(err).Str("page", page).Msg("Account request failed")
		h.renderer.RenderError(w, http.StatusInternalServerError, nil, "Something went wrong")
		return
	}
	h.renderer.Render(w, appErr.HTTPStatus(), page, View{Message: appErr.Message, Data: form})
}

// safeRedirect only allows local absolute paths.
func safeRedirect(target, fallback string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return fallback
	}
	return target
}
