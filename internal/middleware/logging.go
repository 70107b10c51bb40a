package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

var probePaths = map[string]bool{
	"/health": true,
	"/ready":  true,
	"/live":   true,
}

// Logger returns a request logging middleware. Probe requests log at debug,
// client errors at warn and server errors at error.
func Logger(log zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			var event *zerolog.Event
			switch {
			case status >= 500:
				event = log.Error()
			case status >= 400:
				event = log.Warn()
			case probePaths[r.URL.Path]:
				event = log.Debug()
			default:
				event = log.Info()
			}

			event = event.
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("remote_addr", r.RemoteAddr).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start))
			if user := CurrentUser(r.Context()); user != nil {
				event = event.Str("user_id", user.ID.String())
			}
			event.Msg("HTTP request")
		})
	}
}
