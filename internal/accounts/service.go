// Package accounts registers and authenticates users.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/hongminglow/herodex/internal/models"
	"github.com/hongminglow/herodex/internal/models/dto"
	"github.com/hongminglow/herodex/internal/storage"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// MaxPasswordBytes is the longest password bcrypt will hash.
const MaxPasswordBytes = 72

// ErrInvalidCredentials is returned for an unknown identifier or a wrong password.
var ErrInvalidCredentials = errors.New("invalid email/username or password")

// ValidationError carries a message meant to be shown on the form.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(msg string) error { return &ValidationError{Message: msg} }

// Service owns account creation and credential checks.
type Service struct {
	store  storage.AccountStore
	logger *slog.Logger
	cost   int
}

// NewService builds the service with bcrypt's default cost.
func NewService(store storage.AccountStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger, cost: bcrypt.DefaultCost}
}

// Register validates the form and creates the account. Nothing is persisted on a
// validation failure.
func (s *Service) Register(ctx context.Context, req dto.RegisterRequest) (models.Account, error) {
	username := strings.TrimSpace(req.Username)
	email := NormalizeEmail(req.Email)
	if err := validateRegistration(username, email, req.Password, req.ConfirmPassword); err != nil {
		return models.Account{}, err
	}

	if _, err := s.store.FindByEmailOrUsername(ctx, email, username); err == nil {
		return models.Account{}, invalid("Username or email already exists")
	} else if !errors.Is(err, storage.ErrNotFound) {
		return models.Account{}, fmt.Errorf("lookup account: %w", err)
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return models.Account{}, fmt.Errorf("hash password: %w", err)
	}
	account, err := s.store.CreateAccount(ctx, models.Account{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Favorites:    []models.FavoriteEntry{},
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return models.Account{}, invalid("Username or email already exists")
		}
		return models.Account{}, fmt.Errorf("create account: %w", err)
	}
	s.logger.InfoContext(ctx, "account registered", "account_id", account.ID, "username", account.Username)
	return account, nil
}

// Authenticate checks a password against the account matching identifier, which may be
// an email (case-insensitive) or a username (exact).
func (s *Service) Authenticate(ctx context.Context, req dto.LoginRequest) (models.Account, error) {
	identifier := strings.TrimSpace(req.Identifier)
	if identifier == "" || req.Password == "" {
		return models.Account{}, ErrInvalidCredentials
	}
	account, err := s.store.FindByEmailOrUsername(ctx, NormalizeEmail(identifier), identifier)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.InfoContext(ctx, "login failed: no such account")
			return models.Account{}, ErrInvalidCredentials
		}
		return models.Account{}, fmt.Errorf("lookup account: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.InfoContext(ctx, "login failed: password mismatch", "account_id", account.ID)
		return models.Account{}, ErrInvalidCredentials
	}
	return account, nil
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(email))
}

func validateRegistration(username, email, password, confirm string) error {
	if username == "" || email == "" || password == "" {
		return invalid("Username, email, and password are required")
	}
	if password != confirm {
		return invalid("Passwords do not match")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return invalid("Please enter a valid email address")
	}
	if utf8.RuneCountInString(password) < MinPasswordLength || !utf8.ValidString(password) {
		return invalid(fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	}
	if len(password) > MaxPasswordBytes {
		return invalid(fmt.Sprintf("Password must be at most %d bytes", MaxPasswordBytes))
	}
	return nil
}

func (s *Service) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
