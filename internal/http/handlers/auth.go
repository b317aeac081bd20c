package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hongminglow/herodex/internal/accounts"
	"github.com/hongminglow/herodex/internal/http/views"
	"github.com/hongminglow/herodex/internal/middleware"
	"github.com/hongminglow/herodex/internal/models"
	"github.com/hongminglow/herodex/internal/models/dto"
	"github.com/hongminglow/herodex/internal/session"
)

// AuthHandler owns the register, login and logout pages.
type AuthHandler struct {
	base
	accounts *accounts.Service
	sessions *session.Manager
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(accts *accounts.Service, sessions *session.Manager, v *views.Renderer, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{base: newBase(v, logger), accounts: accts, sessions: sessions}
}

// Register attaches auth routes to the mux.
func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.Handle("GET /auth/login", middleware.GuestOnly(http.HandlerFunc(h.showLogin)))
	mux.Handle("POST /auth/login", middleware.GuestOnly(http.HandlerFunc(h.handleLogin)))
	mux.Handle("GET /auth/register", middleware.GuestOnly(http.HandlerFunc(h.showRegister)))
	mux.Handle("POST /auth/register", middleware.GuestOnly(http.HandlerFunc(h.handleRegister)))
	mux.HandleFunc("GET /auth/logout", h.handleLogout)
}

func (h *AuthHandler) showLogin(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, views.PageLogin, h.page(r, "Log in", views.FormData{}))
}

func (h *AuthHandler) showRegister(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, views.PageRegister, h.page(r, "Register", views.FormData{}))
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	req := dto.LoginRequestFromForm(r)
	account, err := h.accounts.Authenticate(r.Context(), req)
	if err != nil {
		status, msg := http.StatusUnauthorized, "Invalid email/username or password"
		if !errors.Is(err, accounts.ErrInvalidCredentials) {
			h.logger.ErrorContext(r.Context(), "login", "error", err)
			status, msg = http.StatusInternalServerError, "Login failed, please try again"
		}
		h.render(w, r, status, views.PageLogin, h.page(r, "Log in", views.FormData{
			Values: map[string]string{"email": req.Identifier},
			Error:  msg,
		}))
		return
	}
	if err := h.startSession(r, account); err != nil {
		h.logger.ErrorContext(r.Context(), "start session", "error", err)
		h.ServerError(w, r)
		return
	}
	flashSuccess(r, "Welcome back, "+account.Username+"!")
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	req := dto.RegisterRequestFromForm(r)
	account, err := h.accounts.Register(r.Context(), req)
	if err != nil {
		status, msg := http.StatusInternalServerError, "Registration failed, please try again"
		var verr *accounts.ValidationError
		if errors.As(err, &verr) {
			status, msg = http.StatusBadRequest, verr.Message
		} else {
			h.logger.ErrorContext(r.Context(), "register", "error", err)
		}
		h.render(w, r, status, views.PageRegister, h.page(r, "Register", views.FormData{
			Values: map[string]string{"username": req.Username, "email": req.Email},
			Error:  msg,
		}))
		return
	}
	if err := h.startSession(r, account); err != nil {
		h.logger.ErrorContext(r.Context(), "start session", "error", err)
		h.ServerError(w, r)
		return
	}
	flashSuccess(r, "Welcome to HeroDex, "+account.Username+"!")
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess != nil {
		if err := h.sessions.Destroy(r.Context(), w, sess); err != nil {
			h.logger.ErrorContext(r.Context(), "destroy session", "error", err)
		}
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// startSession swaps the session ID before attaching the identity.
func (h *AuthHandler) startSession(r *http.Request, account models.Account) error {
	sess := session.FromContext(r.Context())
	if sess == nil {
		return errors.New("no session on request")
	}
	if err := h.sessions.Regenerate(r.Context(), sess); err != nil {
		return err
	}
	sess.Login(account.Identity())
	return nil
}
