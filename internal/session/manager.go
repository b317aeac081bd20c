package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hongminglow/herodex/internal/auth"
)

// CookieName is the name of the session cookie.
const CookieName = "herodex_session"

// Manager moves sessions between the store and the cookie.
type Manager struct {
	store  Store
	tokens *auth.TokenManager
	ttl    time.Duration
	secure bool
	logger *slog.Logger
}

// NewManager wires a store and signer. The signer's TTL is used for both the cookie
// and the stored record.
func NewManager(store Store, tokens *auth.TokenManager, secure bool, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	ttl := tokens.TTL()
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{store: store, tokens: tokens, ttl: ttl, secure: secure, logger: logger}
}

// Load returns the session named by the request cookie, or a fresh unsaved one when
// the cookie is missing, forged, or points at an expired record.
func (m *Manager) Load(r *http.Request) *Session {
	cookie, err := r.Cookie(CookieName)
	if err != nil || strings.TrimSpace(cookie.Value) == "" {
		return m.fresh()
	}
	id, err := m.tokens.Parse(cookie.Value)
	if err != nil {
		m.logger.DebugContext(r.Context(), "discarding session cookie", "error", err)
		return m.fresh()
	}
	sess, err := m.store.Get(r.Context(), id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			m.logger.ErrorContext(r.Context(), "load session", "error", err)
		}
		return m.fresh()
	}
	return sess
}

// Save persists the session if anything changed. A session that was never stored
// and holds nothing is not written and no cookie is set.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	if sess == nil || !sess.dirty {
		return nil
	}
	if !sess.stored && sess.Identity == nil && sess.Flash.Empty() {
		return nil
	}
	if err := m.store.Put(ctx, sess, m.ttl); err != nil {
		return err
	}
	token, err := m.tokens.Generate(sess.ID)
	if err != nil {
		return err
	}
	sess.stored = true
	sess.dirty = false
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl / time.Second),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Regenerate moves the session's contents to a new ID and removes the old record,
// so a pre-login session ID cannot be reused after login.
func (m *Manager) Regenerate(ctx context.Context, sess *Session) error {
	if sess.stored {
		if err := m.store.Delete(ctx, sess.ID); err != nil {
			return err
		}
	}
	sess.ID = uuid.NewString()
	sess.stored = false
	sess.dirty = true
	return nil
}

// Destroy removes the stored session, empties sess so it is not written back, and
// expires the cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	if sess != nil && sess.stored {
		if err := m.store.Delete(ctx, sess.ID); err != nil {
			return err
		}
	}
	if sess != nil {
		*sess = Session{ID: sess.ID}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (m *Manager) fresh() *Session {
	return &Session{ID: uuid.NewString()}
}
