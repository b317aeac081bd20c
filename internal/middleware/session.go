package middleware

import (
	"log/slog"
	"net/http"

	"github.com/hongminglow/herodex/internal/http/respond"
	"github.com/hongminglow/herodex/internal/session"
)

// sessionWriter saves the session right before the response headers go out,
// which is the last moment a cookie can still be set.
type sessionWriter struct {
	http.ResponseWriter
	r       *http.Request
	manager *session.Manager
	sess    *session.Session
	logger  *slog.Logger
	saved   bool
}

func (w *sessionWriter) save() {
	if w.saved {
		return
	}
	w.saved = true
	if err := w.manager.Save(w.r.Context(), w.ResponseWriter, w.sess); err != nil {
		w.logger.ErrorContext(w.r.Context(), "save session", "error", err)
	}
}

func (w *sessionWriter) WriteHeader(code int) {
	w.save()
	w.ResponseWriter.WriteHeader(code)
}

func (w *sessionWriter) Write(b []byte) (int, error) {
	w.save()
	return w.ResponseWriter.Write(b)
}

func (w *sessionWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Sessions loads the caller's session into the request context and persists it
// when the handler responds.
func Sessions(manager *session.Manager, logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := manager.Load(r)
			r = r.WithContext(session.WithSession(r.Context(), sess))
			sw := &sessionWriter{ResponseWriter: w, r: r, manager: manager, sess: sess, logger: logger}
			next.ServeHTTP(sw, r)
			sw.save()
		})
	}
}

// RequireLogin redirects anonymous visitors of a page to the login form.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !session.FromContext(r.Context()).Authenticated() {
			http.Redirect(w, r, "/auth/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireIdentity answers 401 to anonymous callers of a mutating action.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !session.FromContext(r.Context()).Authenticated() {
			respond.Error(w, http.StatusUnauthorized, "You must be logged in to do that")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GuestOnly sends logged-in users away from the login and register forms.
func GuestOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if session.FromContext(r.Context()).Authenticated() {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}
