package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/geohazard-map-service/internal/raster"
)

const testEventID = "nc72282711"

func testGrid(v float64) *raster.Raster {
	g := raster.New(2, 3, raster.Bounds{XMin: -122.5, XMax: -122, YMin: 38, YMax: 38.5})
	for i := range g.Data {
		g.Data[i] = v
	}
	return g
}

func testRequest() RenderRequest {
	return RenderRequest{
		Event: EventMetadata{
			ID:        testEventID,
			Magnitude: 6.0,
			Time:      time.Date(2014, 8, 24, 10, 20, 44, 0, time.UTC),
			Location:  "South Napa, California",
			Lat:       38.22,
			Lon:       -122.31,
		},
		Topography:   testGrid(120),
		Liquefaction: testGrid(0.05),
		Landslide:    testGrid(0.01),
	}
}

func marshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestParseRenderRequest(t *testing.T) {
	want := testRequest()
	raw := RawEvent{Key: []byte("ignored"), Value: marshal(t, want)}

	got, err := ParseRenderRequest(raw)
	require.NoError(t, err)

	assert.Equal(t, want.Event, got.Event)
	assert.Equal(t, want.Topography, got.Topography)
	assert.Equal(t, want.Liquefaction.Data, got.Liquefaction.Data)
	assert.Equal(t, want.Landslide.Bounds, got.Landslide.Bounds)
}

func TestParseRenderRequest_Defaults(t *testing.T) {
	clk := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	req := testRequest()
	req.Event.ID = ""
	req.Event.Time = time.Time{}
	req.Event.Lat, req.Event.Lon = 0, 0
	raw := RawEvent{Key: []byte("from-key"), Value: marshal(t, req), Timestamp: clk.Now()}

	got, err := ParseRenderRequest(raw)
	require.NoError(t, err)

	assert.Equal(t, "from-key", got.Event.ID)
	assert.Equal(t, clk.Now(), got.Event.Time)
	assert.InDelta(t, 38.25, got.Event.Lat, 1e-12)
	assert.InDelta(t, -122.25, got.Event.Lon, 1e-12)
}

func TestParseRenderRequest_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RenderRequest)
	}{
		{"missing id", func(r *RenderRequest) { r.Event.ID = "" }},
		{"path in id", func(r *RenderRequest) { r.Event.ID = "../etc/passwd" }},
		{"missing topography", func(r *RenderRequest) { r.Topography = nil }},
		{"short data", func(r *RenderRequest) { r.Liquefaction.Data = r.Liquefaction.Data[:2] }},
		{"inverted bounds", func(r *RenderRequest) {
			r.Landslide.Bounds.YMin, r.Landslide.Bounds.YMax = r.Landslide.Bounds.YMax, r.Landslide.Bounds.YMin
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testRequest()
			tt.mutate(&req)

			_, err := ParseRenderRequest(RawEvent{Value: marshal(t, req)})
			require.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestParseRenderRequest_BadJSON(t *testing.T) {
	_, err := ParseRenderRequest(RawEvent{Value: []byte(`{not json`)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse render request")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestTitle(t *testing.T) {
	event := testRequest().Event
	assert.Equal(t, "M6.0 Aug 24 2014\n South Napa, California", Title(event))

	event.Scenario = true
	assert.Equal(t, "South Napa, California", Title(event))
}

func TestNow_UsesClock(t *testing.T) {
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixed))
	t.Cleanup(func() { SetClock(nil) })

	assert.Equal(t, fixed, Now())
}
