package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/geohazard-map-service/internal/domain"
	"github.com/couchcryptid/geohazard-map-service/internal/observability"
)

const (
	defaultBaseURL = "https://api.mapbox.com/geocoding/v5/mapbox.places"

	// placeTypes restricts reverse lookups to names that read well in a map
	// title; street addresses and POIs are skipped.
	placeTypes = "place,locality,region"

	maxErrorBody = 1024
)

// APIError is returned when Mapbox answers with a non-200 status.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mapbox API error: status %d: %s", e.Status, e.Body)
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at a different geocoding endpoint.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = u }
}

// Client implements domain.Geocoder using the Mapbox Geocoding API.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Mapbox reverse geocoding client.
func NewClient(token string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics, opts ...ClientOption) *Client {
	c := &Client{
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
		metrics:    metrics,
		logger:     logger,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ReverseGeocode names the populated place at a coordinate. An empty result
// with a nil error means Mapbox knows no place there (open ocean, say).
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.GeocodingResult, error) {
	endpoint, err := c.endpoint(lat, lon)
	if err != nil {
		return domain.GeocodingResult{}, err
	}

	start := time.Now()
	result, err := c.fetch(ctx, endpoint)
	c.metrics.GeocodeAPIDuration.Observe(time.Since(start).Seconds())
	c.metrics.GeocodeRequests.WithLabelValues(outcome(result, err)).Inc()

	if err == nil && result.FormattedAddress == "" {
		c.logger.Debug("no place found", "lat", lat, "lon", lon)
	}
	return result, err
}

// endpoint builds the lookup URL. Mapbox takes coordinates as lon,lat.
func (c *Client) endpoint(lat, lon float64) (string, error) {
	coord := strconv.FormatFloat(lon, 'f', 6, 64) + "," + strconv.FormatFloat(lat, 'f', 6, 64)
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse mapbox base URL: %w", err)
	}
	u = u.JoinPath(coord + ".json")
	u.RawQuery = url.Values{
		"access_token": {c.token},
		"limit":        {"1"},
		"types":        {placeTypes},
	}.Encode()
	return u.String(), nil
}

func (c *Client) fetch(ctx context.Context, endpoint string) (domain.GeocodingResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("reverse geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return domain.GeocodingResult{}, &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("decode response: %w", err)
	}
	if len(r.Features) == 0 {
		return domain.GeocodingResult{}, nil
	}
	return r.Features[0].result(), nil
}

func outcome(r domain.GeocodingResult, err error) string {
	switch {
	case err != nil:
		return "error"
	case r.FormattedAddress == "" && r.PlaceName == "":
		return "empty"
	default:
		return "success"
	}
}

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	Center    []float64 `json:"center"` // [lon, lat]
	PlaceName string    `json:"place_name"`
	Text      string    `json:"text"`
	Relevance float64   `json:"relevance"`
}

func (f feature) result() domain.GeocodingResult {
	r := domain.GeocodingResult{
		FormattedAddress: f.PlaceName,
		PlaceName:        f.Text,
		Confidence:       f.Relevance,
	}
	if len(f.Center) == 2 {
		r.Lon, r.Lat = f.Center[0], f.Center[1]
	}
	return r
}
