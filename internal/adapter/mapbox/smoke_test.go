//go:build mapbox

package mapbox

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/geohazard-map-service/internal/observability"
)

// These tests hit the real Mapbox API and require a valid MAPBOX_TOKEN env var.
// Run with: go test -tags=mapbox ./internal/adapter/mapbox/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	token := os.Getenv("MAPBOX_TOKEN")
	if token == "" {
		t.Fatal("MAPBOX_TOKEN must be set to run smoke tests")
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(token, 10*time.Second, logger, observability.NewMetricsForTesting())
}

func TestSmoke_ReverseGeocode(t *testing.T) {
	c := smokeClient(t)

	// South Napa epicenter.
	result, err := c.ReverseGeocode(context.Background(), 38.215, -122.312)
	require.NoError(t, err)

	assert.Contains(t, result.FormattedAddress, "California")
	assert.NotEmpty(t, result.PlaceName)
	assert.Greater(t, result.Confidence, 0.0)
}

func TestSmoke_ReverseGeocode_Ocean(t *testing.T) {
	c := smokeClient(t)

	// Mid-Pacific: no populated place. The client must not error.
	_, err := c.ReverseGeocode(context.Background(), 0, -140)
	require.NoError(t, err)
}

func TestSmoke_CachedGeocoder(t *testing.T) {
	c := smokeClient(t)
	cached, err := NewCachedGeocoder(c, 10, observability.NewMetricsForTesting())
	require.NoError(t, err)

	// First call: cache miss, real API call.
	r1, err := cached.ReverseGeocode(context.Background(), 35.6762, 139.6503)
	require.NoError(t, err)
	assert.NotEmpty(t, r1.FormattedAddress)

	// Second call: cache hit, no API call.
	r2, err := cached.ReverseGeocode(context.Background(), 35.6762, 139.6503)
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
}
