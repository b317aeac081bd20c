package dto

import (
	"net/http"
	"strings"
)

// RegisterRequest mirrors the registration form.
type RegisterRequest struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// LoginRequest mirrors the login form. Identifier accepts an email or a username.
type LoginRequest struct {
	Identifier string
	Password   string
}

// RegisterRequestFromForm reads a RegisterRequest from a parsed form.
func RegisterRequestFromForm(r *http.Request) RegisterRequest {
	return RegisterRequest{
		Username:        strings.TrimSpace(r.PostFormValue("username")),
		Email:           strings.TrimSpace(r.PostFormValue("email")),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirmPassword"),
	}
}

// LoginRequestFromForm reads a LoginRequest from a parsed form. The login form names its
// identifier field "email" even though usernames are accepted too.
func LoginRequestFromForm(r *http.Request) LoginRequest {
	return LoginRequest{
		Identifier: strings.TrimSpace(r.PostFormValue("email")),
		Password:   r.PostFormValue("password"),
	}
}
