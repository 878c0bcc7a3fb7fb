// Package elevation queries the USGS Elevation Point Query Service (EPQS).
package elevation

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/sells-group/gnis-cli/internal/resilience"
)

// DefaultEndpoint is the production EPQS endpoint.
const DefaultEndpoint = "https://epqs.nationalmap.gov/v1/json"

// Units selects the measurement system for returned elevations.
type Units string

const (
	Feet   Units = "Feet"
	Meters Units = "Meters"
)

// ParseUnits normalizes a units string. It accepts any case plus the common
// short forms ft/m.
func ParseUnits(s string) (Units, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "feet", "ft":
		return Feet, nil
	case "meters", "metres", "m":
		return Meters, nil
	default:
		return "", &ConfigError{Field: "units", Reason: fmt.Sprintf("unknown units %q (want Feet or Meters)", s)}
	}
}

// Elevation is a single elevation reading.
type Elevation struct {
	Value float64
	Units Units

	// Valid is false when the point lies outside service coverage. EPQS
	// reports that as a null or -1000000 value.
	Valid bool
}

// Rounded returns the value rounded to the nearest whole unit.
func (e Elevation) Rounded() int64 {
	return int64(math.Round(e.Value))
}

// Client looks up ground elevations from EPQS.
type Client interface {
	// Lookup returns the elevation at a WGS84 coordinate. A point outside
	// service coverage yields a result with Valid false, not an error.
	Lookup(ctx context.Context, lat, lon float64) (*Elevation, error)

	// Units reports the measurement system this client requests.
	Units() Units
}

// ConfigError reports a lookup input that can never succeed, such as
// out-of-range coordinates or unknown units. It is never retried.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("elevation: invalid %s: %s", e.Field, e.Reason)
}

// LookupError kinds.
const (
	KindNetwork   = "network"
	KindMalformed = "malformed"
)

// LookupError reports a failed elevation lookup after retries.
type LookupError struct {
	Kind string // "network" or "malformed"
	Lat  float64
	Lon  float64
	Err  error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("elevation: lookup (%.4f, %.4f): %s: %v", e.Lat, e.Lon, e.Kind, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// Option configures the client.
type Option func(*epqsClient)

// WithEndpoint overrides the EPQS endpoint URL.
func WithEndpoint(u string) Option {
	return func(c *epqsClient) {
		c.endpoint = u
	}
}

// WithUnits sets the measurement system for lookups.
func WithUnits(u Units) Option {
	return func(c *epqsClient) {
		c.units = u
	}
}

// WithHTTPClient sets a custom HTTP client for EPQS requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *epqsClient) {
		c.httpClient = hc
	}
}

// WithRateLimit sets the requests-per-second rate limit for EPQS calls.
func WithRateLimit(rps float64) Option {
	return func(c *epqsClient) {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRetry overrides the retry policy for failed lookups.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *epqsClient) {
		c.retry = cfg
	}
}

type epqsClient struct {
	httpClient *http.Client
	endpoint   string
	units      Units
	limiter    *rate.Limiter
	retry      resilience.RetryConfig
}

// NewClient creates an EPQS Client with the given options.
func NewClient(opts ...Option) Client {
	c := &epqsClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		endpoint:   DefaultEndpoint,
		units:      Feet,
		limiter:    rate.NewLimiter(2, 2), // EPQS is a shared federal service
		retry:      resilience.LinearRetryConfig(3, 2*time.Second),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retry.OnRetry == nil {
		c.retry.OnRetry = resilience.RetryLogger("epqs", "lookup_elevation")
	}
	return c
}

func (c *epqsClient) Units() Units {
	return c.units
}
