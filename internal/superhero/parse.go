package superhero

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/hongminglow/herodex/internal/models"
)

// apiHero is the provider wire shape. Every scalar arrives as a string and the provider
// uses the literal "null" for unknown values, so fields go through text/stat decoders.
type apiHero struct {
	ID         text `json:"id"`
	Name       text `json:"name"`
	Powerstats struct {
		Intelligence stat `json:"intelligence"`
		Strength     stat `json:"strength"`
		Speed        stat `json:"speed"`
		Durability   stat `json:"durability"`
		Power        stat `json:"power"`
		Combat       stat `json:"combat"`
	} `json:"powerstats"`
	Biography struct {
		FullName     text  `json:"full-name"`
		AlterEgos    text  `json:"alter-egos"`
		Aliases      texts `json:"aliases"`
		PlaceOfBirth text  `json:"place-of-birth"`
		Publisher    text  `json:"publisher"`
		Alignment    text  `json:"alignment"`
	} `json:"biography"`
	Appearance struct {
		Gender    text  `json:"gender"`
		Race      text  `json:"race"`
		Height    texts `json:"height"`
		Weight    texts `json:"weight"`
		EyeColor  text  `json:"eye-color"`
		HairColor text  `json:"hair-color"`
	} `json:"appearance"`
	Work struct {
		Occupation text `json:"occupation"`
		Base       text `json:"base"`
	} `json:"work"`
	Connections struct {
		GroupAffiliation text `json:"group-affiliation"`
		Relatives        text `json:"relatives"`
	} `json:"connections"`
	Image struct {
		URL text `json:"url"`
	} `json:"image"`
}

type envelope struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

type searchEnvelope struct {
	envelope
	Results []json.RawMessage `json:"results"`
}

var errMissingID = errors.New("hero record has no id")

// decodeHero converts one provider record into the canonical hero shape.
func decodeHero(raw []byte) (models.Hero, error) {
	var in apiHero
	if err := json.Unmarshal(raw, &in); err != nil {
		return models.Hero{}, err
	}
	return in.toModel()
}

func (in apiHero) toModel() (models.Hero, error) {
	id := string(in.ID)
	if id == "" {
		return models.Hero{}, errMissingID
	}
	return models.Hero{
		ID:    id,
		Name:  string(in.Name),
		Image: string(in.Image.URL),
		Powerstats: models.Powerstats{
			Intelligence: int(in.Powerstats.Intelligence),
			Strength:     int(in.Powerstats.Strength),
			Speed:        int(in.Powerstats.Speed),
			Durability:   int(in.Powerstats.Durability),
			Power:        int(in.Powerstats.Power),
			Combat:       int(in.Powerstats.Combat),
		},
		Biography: models.Biography{
			FullName:     string(in.Biography.FullName),
			AlterEgos:    string(in.Biography.AlterEgos),
			Aliases:      in.Biography.Aliases.values(),
			PlaceOfBirth: string(in.Biography.PlaceOfBirth),
			Publisher:    string(in.Biography.Publisher),
			Alignment:    string(in.Biography.Alignment),
		},
		Appearance: models.Appearance{
			Gender:    string(in.Appearance.Gender),
			Race:      string(in.Appearance.Race),
			Height:    in.Appearance.Height.values(),
			Weight:    in.Appearance.Weight.values(),
			EyeColor:  string(in.Appearance.EyeColor),
			HairColor: string(in.Appearance.HairColor),
		},
		Work: models.Work{
			Occupation: string(in.Work.Occupation),
			Base:       string(in.Work.Base),
		},
		Connections: models.Connections{
			GroupAffiliation: string(in.Connections.GroupAffiliation),
			Relatives:        string(in.Connections.Relatives),
		},
	}, nil
}

// text accepts a JSON string or number; null and the provider's "null"/"-" become empty.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	if b[0] != '"' {
		// numeric ids
		*t = text(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "null" || s == "-" {
		s = ""
	}
	*t = text(s)
	return nil
}

// texts accepts an array of strings, a single string, or null.
type texts []string

func (t *texts) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = nil
		return nil
	}
	if b[0] == '[' {
		var items []text
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			if item != "" {
				out = append(out, string(item))
			}
		}
		*t = out
		return nil
	}
	var single text
	if err := json.Unmarshal(b, &single); err != nil {
		return err
	}
	if single == "" {
		*t = nil
		return nil
	}
	*t = texts{string(single)}
	return nil
}

func (t texts) values() []string {
	if len(t) == 0 {
		return []string{}
	}
	return append([]string(nil), t...)
}

// stat accepts a number or a numeric string; anything unparseable is zero.
type stat int

func (s *stat) UnmarshalJSON(b []byte) error {
	var raw text
	if err := raw.UnmarshalJSON(b); err != nil {
		return err
	}
	n, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		*s = 0
		return nil
	}
	*s = stat(int(n))
	return nil
}
