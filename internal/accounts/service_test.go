package accounts

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/herodex/internal/models/dto"
	"github.com/hongminglow/herodex/internal/storage"
	"github.com/hongminglow/herodex/internal/storage/memory"
)

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	svc := NewService(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.cost = bcrypt.MinCost
	return svc, store
}

func validRequest() dto.RegisterRequest {
	return dto.RegisterRequest{
		Username:        "bruce",
		Email:           "Bruce@Wayne.Example",
		Password:        "i-am-vengeance",
		ConfirmPassword: "i-am-vengeance",
	}
}

func TestRegisterCreatesAccount(t *testing.T) {
	svc, store := newTestService(t)

	acc, err := svc.Register(context.Background(), validRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, acc.ID)
	assert.Equal(t, "bruce@wayne.example", acc.Email)
	assert.NotEqual(t, "i-am-vengeance", acc.PasswordHash)
	assert.Empty(t, acc.Favorites)

	stored, err := store.FindAccount(context.Background(), acc.ID)
	require.NoError(t, err)
	assert.Equal(t, "bruce", stored.Username)
}

func TestRegisterPasswordMismatchCreatesNothing(t *testing.T) {
	svc, store := newTestService(t)
	req := validRequest()
	req.ConfirmPassword = "something-else"

	_, err := svc.Register(context.Background(), req)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Passwords do not match", verr.Message)

	_, err = store.FindByEmailOrUsername(context.Background(), "bruce@wayne.example", "bruce")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, validRequest())
	require.NoError(t, err)

	sameName := validRequest()
	sameName.Email = "other@example.com"
	_, err = svc.Register(ctx, sameName)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Username or email already exists", verr.Message)

	sameEmail := validRequest()
	sameEmail.Username = "batman"
	sameEmail.Email = "BRUCE@wayne.example"
	_, err = svc.Register(ctx, sameEmail)
	require.ErrorAs(t, err, &verr)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)
	tests := map[string]func(*dto.RegisterRequest){
		"missing username": func(r *dto.RegisterRequest) { r.Username = " " },
		"bad email":        func(r *dto.RegisterRequest) { r.Email = "not-an-email" },
		"short password":   func(r *dto.RegisterRequest) { r.Password, r.ConfirmPassword = "short", "short" },
		"long password": func(r *dto.RegisterRequest) {
			long := strings.Repeat("é", 37)
			r.Password, r.ConfirmPassword = long, long
		},
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			req := validRequest()
			mutate(&req)
			_, err := svc.Register(context.Background(), req)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestAuthenticateByEmailOrUsername(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	created, err := svc.Register(ctx, validRequest())
	require.NoError(t, err)

	byEmail, err := svc.Authenticate(ctx, dto.LoginRequest{Identifier: "BRUCE@wayne.example", Password: "i-am-vengeance"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	byName, err := svc.Authenticate(ctx, dto.LoginRequest{Identifier: "bruce", Password: "i-am-vengeance"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, byName.ID)
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, validRequest())
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, dto.LoginRequest{Identifier: "bruce", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, dto.LoginRequest{Identifier: "joker", Password: "i-am-vengeance"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, dto.LoginRequest{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
