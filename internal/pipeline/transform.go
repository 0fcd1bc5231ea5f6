package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/geohazard-map-service/internal/domain"
	"github.com/couchcryptid/geohazard-map-service/internal/hazardmap"
	"github.com/couchcryptid/geohazard-map-service/internal/observability"
)

// MapMaker renders a parsed request.
type MapMaker interface {
	Make(ctx context.Context, req domain.RenderRequest) (domain.MapProduct, error)
}

// MapTransformer implements Transformer: it parses the request, resolves
// the event location for the title, and renders the map.
type MapTransformer struct {
	maker    MapMaker
	geocoder domain.Geocoder
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewTransformer creates a MapTransformer. Pass a nil geocoder to disable
// reverse geocoding of map titles.
func NewTransformer(maker MapMaker, geocoder domain.Geocoder, logger *slog.Logger, metrics *observability.Metrics) *MapTransformer {
	return &MapTransformer{
		maker:    maker,
		geocoder: geocoder,
		logger:   logger,
		metrics:  metrics,
	}
}

func (t *MapTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.MapProduct, error) {
	req, err := domain.ParseRenderRequest(raw)
	if err != nil {
		t.metrics.RenderErrors.WithLabelValues(hazardmap.ErrorKind(err)).Inc()
		return domain.MapProduct{}, err
	}

	req.Event = domain.ResolveLocation(ctx, req.Event, t.geocoder, t.logger)

	return t.maker.Make(ctx, req)
}
