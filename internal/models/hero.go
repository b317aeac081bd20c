package models

import "time"

// Hero is the cached representation of a superhero, keyed by the provider id.
type Hero struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Image       string      `json:"image"`
	Powerstats  Powerstats  `json:"powerstats"`
	Biography   Biography   `json:"biography"`
	Appearance  Appearance  `json:"appearance"`
	Work        Work        `json:"work"`
	Connections Connections `json:"connections"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// Powerstats holds the six provider statistics. Values are stored as reported, without clamping.
type Powerstats struct {
	Intelligence int `json:"intelligence"`
	Strength     int `json:"strength"`
	Speed        int `json:"speed"`
	Durability   int `json:"durability"`
	Power        int `json:"power"`
	Combat       int `json:"combat"`
}

type Biography struct {
	FullName     string   `json:"fullName"`
	AlterEgos    string   `json:"alterEgos"`
	Aliases      []string `json:"aliases"`
	PlaceOfBirth string   `json:"placeOfBirth"`
	Publisher    string   `json:"publisher"`
	Alignment    string   `json:"alignment"`
}

type Appearance struct {
	Gender    string   `json:"gender"`
	Race      string   `json:"race"`
	Height    []string `json:"height"`
	Weight    []string `json:"weight"`
	EyeColor  string   `json:"eyeColor"`
	HairColor string   `json:"hairColor"`
}

type Work struct {
	Occupation string `json:"occupation"`
	Base       string `json:"base"`
}

type Connections struct {
	GroupAffiliation string `json:"groupAffiliation"`
	Relatives        string `json:"relatives"`
}

// Stats returns the power statistics as ordered label/value pairs for display.
func (p Powerstats) Stats() []Stat {
	return []Stat{
		{Label: "Intelligence", Value: p.Intelligence},
		{Label: "Strength", Value: p.Strength},
		{Label: "Speed", Value: p.Speed},
		{Label: "Durability", Value: p.Durability},
		{Label: "Power", Value: p.Power},
		{Label: "Combat", Value: p.Combat},
	}
}

type Stat struct {
	Label string
	Value int
}
