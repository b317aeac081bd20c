// Package superhero is the HTTP client for the superheroapi.com provider. It owns the parse
// boundary that turns the provider's loosely typed JSON into models.Hero.
package superhero

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hongminglow/herodex/internal/models"
)

// DefaultBaseURL is the public provider endpoint.
const DefaultBaseURL = "https://superheroapi.com/api"

// MaxHeroID is the highest id the provider serves.
const MaxHeroID = 731

// PopularHeroIDs are well-known ids: Batman, Spider-Man, Superman, Iron Man, and friends.
var PopularHeroIDs = []string{"69", "620", "644", "346", "149", "659", "106", "213", "717", "720"}

var (
	// ErrProvider reports a transport failure, a non-2xx status or an unreadable payload.
	ErrProvider = errors.New("superhero provider unavailable")
	// ErrNotFound reports that the provider has no hero for the requested id.
	ErrNotFound = errors.New("superhero not found")
)

// Options configures a Client. Zero values fall back to sensible defaults.
type Options struct {
	BaseURL       string
	APIKey        string
	Timeout       time.Duration
	MaxRetries    uint
	RetryInterval time.Duration
	HTTPClient    *http.Client
	Logger        *slog.Logger
}

// Client fetches heroes from the provider.
type Client struct {
	baseURL       string
	apiKey        string
	http          *http.Client
	maxRetries    uint
	retryInterval time.Duration
	logger        *slog.Logger
	tracer        trace.Tracer
}

// NewClient builds a provider client.
func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	interval := opts.RetryInterval
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:       baseURL,
		apiKey:        opts.APIKey,
		http:          httpClient,
		maxRetries:    opts.MaxRetries,
		retryInterval: interval,
		logger:        logger,
		tracer:        otel.Tracer("github.com/hongminglow/herodex/internal/superhero"),
	}
}

// Hero fetches a single hero by provider id.
func (c *Client) Hero(ctx context.Context, id string) (models.Hero, error) {
	ctx, span := c.tracer.Start(ctx, "superhero.Hero", trace.WithAttributes(attribute.String("hero.id", id)))
	defer span.End()

	body, err := c.get(ctx, url.PathEscape(id))
	if err != nil {
		recordError(span, err)
		c.logger.WarnContext(ctx, "fetch hero failed", "hero_id", id, "error", err)
		return models.Hero{}, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		err = fmt.Errorf("%w: decode hero %s: %v", ErrProvider, id, err)
		recordError(span, err)
		return models.Hero{}, err
	}
	if env.Response == "error" {
		msg := env.Error
		if msg == "" {
			msg = "superhero not found"
		}
		return models.Hero{}, fmt.Errorf("%w: id %s: %s", ErrNotFound, id, msg)
	}

	hero, err := decodeHero(body)
	if err != nil {
		err = fmt.Errorf("%w: decode hero %s: %v", ErrProvider, id, err)
		recordError(span, err)
		return models.Hero{}, err
	}
	return hero, nil
}

// Search returns every provider hero whose name matches. A provider "error" response
// means no match and yields an empty slice.
func (c *Client) Search(ctx context.Context, name string) ([]models.Hero, error) {
	ctx, span := c.tracer.Start(ctx, "superhero.Search", trace.WithAttributes(attribute.String("hero.query", name)))
	defer span.End()

	body, err := c.get(ctx, "search/"+url.PathEscape(name))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return []models.Hero{}, nil
		}
		recordError(span, err)
		c.logger.WarnContext(ctx, "search heroes failed", "query", name, "error", err)
		return nil, err
	}

	var env searchEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		err = fmt.Errorf("%w: decode search %q: %v", ErrProvider, name, err)
		recordError(span, err)
		return nil, err
	}
	if env.Response == "error" {
		return []models.Hero{}, nil
	}

	heroes := make([]models.Hero, 0, len(env.Results))
	for _, raw := range env.Results {
		hero, err := decodeHero(raw)
		if err != nil {
			c.logger.WarnContext(ctx, "skip malformed search result", "query", name, "error", err)
			continue
		}
		heroes = append(heroes, hero)
	}
	span.SetAttributes(attribute.Int("hero.results", len(heroes)))
	return heroes, nil
}

// get performs GET {base}/{key}/{path}, retrying transport failures, 429 and 5xx responses.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	endpoint := c.baseURL + "/" + url.PathEscape(c.apiKey) + "/" + path

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInterval

	operation := func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("%w: build request: %v", ErrProvider, err))
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(fmt.Errorf("%w: %v", ErrProvider, ctx.Err()))
			}
			return nil, fmt.Errorf("%w: %v", ErrProvider, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return nil, fmt.Errorf("%w: read body: %v", ErrProvider, err)
		}

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return nil, backoff.Permanent(fmt.Errorf("%w: HTTP %d", ErrNotFound, resp.StatusCode))
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return nil, fmt.Errorf("%w: HTTP %d", ErrProvider, resp.StatusCode)
		case resp.StatusCode < 200 || resp.StatusCode > 299:
			return nil, backoff.Permanent(fmt.Errorf("%w: HTTP %d", ErrProvider, resp.StatusCode))
		}
		return body, nil
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(c.maxRetries+1),
	)
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
