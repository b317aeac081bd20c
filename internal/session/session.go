// Package session keeps per-browser state (login identity and one-shot flash
// messages) in a server-side store keyed by a signed cookie.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/hongminglow/herodex/internal/models"
)

// DefaultTTL is how long an idle session survives.
const DefaultTTL = 24 * time.Hour

// ErrNotFound is returned by stores for unknown or expired sessions.
var ErrNotFound = errors.New("session not found")

// Flash holds messages shown once on the next rendered page.
type Flash struct {
	Success string `json:"success,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Empty reports whether no message is pending.
func (f Flash) Empty() bool { return f.Success == "" && f.Error == "" }

// Session is the state attached to one browser.
type Session struct {
	ID       string           `json:"id"`
	Identity *models.Identity `json:"identity,omitempty"`
	Flash    Flash            `json:"flash"`

	stored bool
	dirty  bool
}

// Authenticated reports whether a user is logged in on this session.
func (s *Session) Authenticated() bool { return s != nil && s.Identity != nil }

// Login attaches identity to the session.
func (s *Session) Login(identity models.Identity) {
	s.Identity = &identity
	s.dirty = true
}

// Logout clears the identity.
func (s *Session) Logout() {
	if s.Identity != nil {
		s.Identity = nil
		s.dirty = true
	}
}

// FlashSuccess queues a success message.
func (s *Session) FlashSuccess(msg string) {
	s.Flash.Success = msg
	s.dirty = true
}

// FlashError queues an error message.
func (s *Session) FlashError(msg string) {
	s.Flash.Error = msg
	s.dirty = true
}

// PopFlash returns and clears any pending messages.
func (s *Session) PopFlash() Flash {
	f := s.Flash
	if !f.Empty() {
		s.Flash = Flash{}
		s.dirty = true
	}
	return f
}

// Store persists sessions by ID.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Put(ctx context.Context, sess *Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

type ctxKey struct{}

// WithSession stores sess on the context.
func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, sess)
}

// FromContext returns the session loaded for the request, if any.
func FromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(ctxKey{}).(*Session)
	return sess
}
