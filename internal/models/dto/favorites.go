package dto

import (
	"net/http"
	"strings"
)

// FavoriteRequest carries the toggle form: an optional reason plus redirect hints.
type FavoriteRequest struct {
	Reason      string
	FromProfile bool
	FromHome    bool
}

// ReasonRequest carries the reason update form.
type ReasonRequest struct {
	HeroID string
	Reason string
}

func FavoriteRequestFromForm(r *http.Request) FavoriteRequest {
	return FavoriteRequest{
		Reason:      strings.TrimSpace(r.PostFormValue("reason")),
		FromProfile: truthy(r.PostFormValue("fromProfile")),
		FromHome:    truthy(r.PostFormValue("fromHome")),
	}
}

func ReasonRequestFromForm(r *http.Request) ReasonRequest {
	return ReasonRequest{
		HeroID: strings.TrimSpace(r.PostFormValue("heroId")),
		Reason: strings.TrimSpace(r.PostFormValue("reason")),
	}
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
