package dto

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func formRequest(values url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func TestFavoriteRequestFromForm(t *testing.T) {
	req := FavoriteRequestFromForm(formRequest(url.Values{
		"reason":      {"  flies  "},
		"fromProfile": {"on"},
		"fromHome":    {"nope"},
	}))
	assert.Equal(t, FavoriteRequest{Reason: "flies", FromProfile: true}, req)
}

func TestReasonRequestFromForm(t *testing.T) {
	req := ReasonRequestFromForm(formRequest(url.Values{"heroId": {" 69 "}, "reason": {"detective"}}))
	assert.Equal(t, ReasonRequest{HeroID: "69", Reason: "detective"}, req)
}

func TestLoginRequestReadsEmailField(t *testing.T) {
	req := LoginRequestFromForm(formRequest(url.Values{"email": {" bruce "}, "password": {" pw "}}))
	assert.Equal(t, LoginRequest{Identifier: "bruce", Password: " pw "}, req)
}

func TestRegisterRequestFromForm(t *testing.T) {
	req := RegisterRequestFromForm(formRequest(url.Values{
		"username":        {"bruce"},
		"email":           {"b@example.com"},
		"password":        {"secret123"},
		"confirmPassword": {"secret124"},
	}))
	assert.Equal(t, "bruce", req.Username)
	assert.Equal(t, "secret124", req.ConfirmPassword)
}
