package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/geohazard-map-service/internal/composite"
	"github.com/couchcryptid/geohazard-map-service/internal/domain"
	"github.com/couchcryptid/geohazard-map-service/internal/hazardmap"
	"github.com/couchcryptid/geohazard-map-service/internal/mockdata"
	"github.com/couchcryptid/geohazard-map-service/internal/pipeline"
	"github.com/couchcryptid/geohazard-map-service/internal/plot"
	"github.com/couchcryptid/geohazard-map-service/internal/projection"
	"github.com/couchcryptid/geohazard-map-service/internal/relief"
)

type titleSurface struct {
	titles []string
}

func (s *titleSurface) Render(_ context.Context, scene plot.Scene, w io.Writer) error {
	s.titles = append(s.titles, scene.Title)
	_, err := io.WriteString(w, "png")
	return err
}

type stubGeocoder struct {
	result domain.GeocodingResult
	err    error
	calls  int
}

func (g *stubGeocoder) ReverseGeocode(context.Context, float64, float64) (domain.GeocodingResult, error) {
	g.calls++
	return g.result, g.err
}

func newMaker(t *testing.T, surface plot.Surface) (*hazardmap.Maker, string) {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m, err := hazardmap.New(surface, projection.NewFactory(8), composite.DefaultOptions(), dir, logger, newTestMetrics())
	require.NoError(t, err)
	return m, dir
}

func TestMapTransformer_MockData(t *testing.T) {
	surface := &titleSurface{}
	maker, dir := newMaker(t, surface)
	tfm := pipeline.NewTransformer(maker, nil, slog.Default(), newTestMetrics())

	cases := []struct {
		name     string
		scenario bool
		title    string
	}{
		{name: "event", title: "M6.0 Aug 24 2014\n South Napa, California"},
		{name: "scenario", scenario: true, title: "South Napa, California"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o := mockdata.DefaultOptions()
			o.ID = "napa-" + tc.name
			o.Scenario = tc.scenario

			out, err := tfm.Transform(context.Background(), rawFromRequest(t, mockdata.Request(o)))
			require.NoError(t, err)
			assert.Equal(t, o.ID, out.EventID)
			assert.Equal(t, tc.title, out.Title)
			assert.Equal(t, tc.scenario, out.Scenario)
			assert.Equal(t, []string{relief.LayerName, composite.Liquefaction, composite.Landslide}, out.Layers)
			assert.Equal(t, mockdata.NapaBounds, out.Bounds)
			assert.FileExists(t, filepath.Join(dir, o.ID+".png"))
		})
	}
	assert.Len(t, surface.titles, 2)
}

func TestMapTransformer_ReverseGeocodesMissingLocation(t *testing.T) {
	surface := &titleSurface{}
	maker, _ := newMaker(t, surface)
	geo := &stubGeocoder{result: domain.GeocodingResult{FormattedAddress: "American Canyon, California"}}
	tfm := pipeline.NewTransformer(maker, geo, slog.Default(), newTestMetrics())

	o := mockdata.DefaultOptions()
	o.Location = ""
	out, err := tfm.Transform(context.Background(), rawFromRequest(t, mockdata.Request(o)))
	require.NoError(t, err)
	assert.Equal(t, 1, geo.calls)
	assert.Equal(t, "M6.0 Aug 24 2014\n American Canyon, California", out.Title)
}

func TestMapTransformer_GeocoderFailureFallsBackToCoordinates(t *testing.T) {
	maker, _ := newMaker(t, &titleSurface{})
	geo := &stubGeocoder{err: errors.New("timeout")}
	tfm := pipeline.NewTransformer(maker, geo, slog.New(slog.NewTextHandler(io.Discard, nil)), newTestMetrics())

	o := mockdata.DefaultOptions()
	o.Location = ""
	o.Scenario = true
	out, err := tfm.Transform(context.Background(), rawFromRequest(t, mockdata.Request(o)))
	require.NoError(t, err)
	assert.Equal(t, "38.25° N, 121.95° W", out.Title)
}

func TestMapTransformer_BadPayload(t *testing.T) {
	maker, dir := newMaker(t, &titleSurface{})
	metrics := newTestMetrics()
	tfm := pipeline.NewTransformer(maker, nil, slog.Default(), metrics)

	_, err := tfm.Transform(context.Background(), domain.RawEvent{Key: []byte("x"), Value: []byte("not json")})
	require.ErrorIs(t, err, domain.ErrInvalidRequest)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RenderErrors.WithLabelValues("invalid_request")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
