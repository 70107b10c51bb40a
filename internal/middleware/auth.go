package middleware

import (
	"context"
	"net/http"
	"net/url"

	"github.com/windfall/spellcheck_service/internal/repository"
	"github.com/windfall/spellcheck_service/internal/service"
)

type contextKey string

const userKey contextKey = "user"

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "session"

// Session resolves the session cookie to a user and stores it in the request
// context. Requests without a valid session pass through anonymously.
func Session(authService *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookie)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := authService.CurrentUser(r.Context(), cookie.Value)
			if err != nil {
				ClearSession(w)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireUser redirects anonymous requests to loginPath.
func RequireUser(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if CurrentUser(r.Context()) == nil {
				target := loginPath + "?next=" + url.QueryEscape(r.URL.Path)
				http.Redirect(w, r, target, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CurrentUser returns the user attached by Session, or nil.
func CurrentUser(ctx context.Context) *repository.User {
	if u, ok := ctx.Value(userKey).(*repository.User); ok {
		return u
	}
	return nil
}

// WithUser returns a context carrying user.
func WithUser(ctx context.Context, user *repository.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// SetSession writes the session cookie.
func SetSession(w http.ResponseWriter, token string, maxAge int, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSession expires the session cookie.
func ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
