// Package geocode resolves free-text localities to coordinates through
// a Nominatim-compatible endpoint, with a persistent cache in front so
// a locality is queried at most once across runs.
package geocode

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/ivasko/courtline/internal/domain/model"
	"github.com/ivasko/courtline/pkg/logger"
	"github.com/ivasko/courtline/pkg/metrics"
)

// Default resolver configuration constants.
const (
	defaultEndpoint = "https://nominatim.openstreetmap.org/search"
	defaultTimeout  = 5 * time.Second
	userAgent       = "courtline-pipeline/1.0"
)

// Resolver maps a normalized locality query to a geographic fix.
// A locality that cannot be resolved yields a negative fix, not an
// error; errors mean the service itself was unreachable.
type Resolver interface {
	Resolve(ctx context.Context, query string) (model.GeoFix, error)
}

// Option applies a configuration option to the NominatimResolver.
type Option func(*NominatimResolver)

// WithEndpoint sets the search endpoint URL.
func WithEndpoint(endpoint string) Option {
	return func(r *NominatimResolver) {
		if endpoint != "" {
			r.endpoint = endpoint
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *NominatimResolver) {
		if d > 0 {
			r.client.Timeout = d
		}
	}
}

// WithCountryCode restricts results to one ISO 3166-1 alpha-2 country.
func WithCountryCode(code string) Option {
	return func(r *NominatimResolver) {
		r.countryCode = code
	}
}

// WithHTTPClient replaces the underlying HTTP client; tests use this.
func WithHTTPClient(c *http.Client) Option {
	return func(r *NominatimResolver) {
		if c != nil {
			r.client = c
		}
	}
}

// WithLogger sets the resolver logger.
func WithLogger(log logger.Logger) Option {
	return func(r *NominatimResolver) {
		r.log = log
	}
}

// NominatimResolver implements Resolver against the Nominatim search
// API.
type NominatimResolver struct {
	endpoint    string
	countryCode string
	client      *http.Client
	log         logger.Logger
}

// NewNominatim creates a resolver with configuration options.
func NewNominatim(opts ...Option) *NominatimResolver {
	r := &NominatimResolver{
		endpoint:    defaultEndpoint,
		countryCode: "hr",
		client:      &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logger.Named("geocode")
	}
	return r
}

// nominatimHit is one element of the Nominatim search response.
// Coordinates arrive as strings.
type nominatimHit struct {
	Lat        string  `json:"lat"`
	Lon        string  `json:"lon"`
	Importance float64 `json:"importance"`
}

// Resolve queries the endpoint for the given locality. An empty result
// set produces a negative fix so the caller can cache the miss and
// never retry it.
func (r *NominatimResolver) Resolve(ctx context.Context, query string) (model.GeoFix, error) {
	started := time.Now()
	defer func() { metrics.RecordGeocodeLatency(float64(time.Since(started).Milliseconds())) }()

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")
	if r.countryCode != "" {
		params.Set("countrycodes", r.countryCode)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return model.GeoFix{}, fmt.Errorf("%w: %w", ErrResolverUnavailable, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return model.GeoFix{}, fmt.Errorf("%w: %w", ErrResolverUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.GeoFix{}, fmt.Errorf("%w: status %d", ErrResolverUnavailable, resp.StatusCode)
	}

	var hits []nominatimHit
	if err := json.NewDecoder(resp.Body).Decode(&hits); err != nil {
		return model.GeoFix{}, fmt.Errorf("%w: decode: %w", ErrResolverUnavailable, err)
	}

	fix := model.GeoFix{Query: query, ResolvedAt: time.Now().UTC()}
	if len(hits) == 0 {
		r.log.Debug(ctx, "locality unresolved", logger.String("query", query))
		return fix, nil
	}

	lat, latErr := strconv.ParseFloat(hits[0].Lat, 64)
	lng, lngErr := strconv.ParseFloat(hits[0].Lon, 64)
	if latErr != nil || lngErr != nil {
		return fix, nil
	}

	fix.Coords = &model.Coordinate{Lat: lat, Lng: lng}
	fix.Confidence = hits[0].Importance
	if fix.Confidence <= 0 {
		fix.Confidence = 0.5
	}
	return fix, nil
}
