package elevation

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/gnis-cli/internal/resilience"
)

// noDataValue is the sentinel EPQS returns for points it has no data for,
// alongside plain null.
const noDataValue = -1000000.0

// epqsResponse is the JSON response from the point query service. The value
// field arrives as a number, a quoted numeric string, or null depending on
// coverage and service version.
type epqsResponse struct {
	Value json.RawMessage `json:"value"`
}

// Lookup queries EPQS for the elevation at lat/lon, retrying transient
// failures per the client's retry policy.
func (c *epqsClient) Lookup(ctx context.Context, lat, lon float64) (*Elevation, error) {
	if err := validateCoords(lat, lon); err != nil {
		return nil, err
	}

	return resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*Elevation, error) {
		return c.lookupOnce(ctx, lat, lon)
	})
}

func (c *epqsClient) lookupOnce(ctx context.Context, lat, lon float64) (*Elevation, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "elevation: rate limit")
	}

	params := url.Values{
		"x":           {strconv.FormatFloat(lon, 'f', -1, 64)},
		"y":           {strconv.FormatFloat(lat, 'f', -1, 64)},
		"units":       {string(c.units)},
		"wkid":        {"4326"},
		"includeDate": {"false"},
	}

	reqURL := c.endpoint + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "elevation: build request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &LookupError{Kind: KindNetwork, Lat: lat, Lon: lon,
			Err: resilience.NewTransientError(err, 0)}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		var statusErr error = eris.Errorf("service returned status %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			statusErr = resilience.NewTransientError(statusErr, resp.StatusCode)
		}
		return nil, &LookupError{Kind: KindNetwork, Lat: lat, Lon: lon, Err: statusErr}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &LookupError{Kind: KindNetwork, Lat: lat, Lon: lon,
			Err: resilience.NewTransientError(err, 0)}
	}

	var epqs epqsResponse
	if err := json.Unmarshal(body, &epqs); err != nil {
		return nil, &LookupError{Kind: KindMalformed, Lat: lat, Lon: lon,
			Err: eris.Wrap(err, "parse response")}
	}

	value, covered, err := parseValue(epqs.Value)
	if err != nil {
		return nil, &LookupError{Kind: KindMalformed, Lat: lat, Lon: lon, Err: err}
	}
	if !covered || value == noDataValue {
		return &Elevation{Units: c.units, Valid: false}, nil
	}
	return &Elevation{Value: value, Units: c.units, Valid: true}, nil
}

// parseValue extracts the elevation from the value field. A missing or null
// value means the point is outside coverage.
func parseValue(raw json.RawMessage) (value float64, covered bool, err error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return 0, false, nil
	}

	var num float64
	if err := json.Unmarshal(trimmed, &num); err == nil {
		return num, true, nil
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return 0, false, eris.Errorf("unexpected value %s", trimmed)
	}
	num, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false, eris.Errorf("non-numeric value %q", s)
	}
	return num, true, nil
}

func validateCoords(lat, lon float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return &ConfigError{Field: "latitude", Reason: strconv.FormatFloat(lat, 'f', -1, 64) + " is outside [-90, 90]"}
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return &ConfigError{Field: "longitude", Reason: strconv.FormatFloat(lon, 'f', -1, 64) + " is outside [-180, 180]"}
	}
	return nil
}
