package domain

import (
	"context"
	"time"

	"github.com/couchcryptid/geohazard-map-service/internal/raster"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// EventMetadata describes the earthquake (or scenario) a map is drawn for.
type EventMetadata struct {
	ID        string    `json:"id"`
	Magnitude float64   `json:"magnitude"`
	Time      time.Time `json:"time"`
	Location  string    `json:"location,omitempty"`
	Lat       float64   `json:"lat,omitempty"`
	Lon       float64   `json:"lon,omitempty"`
	Scenario  bool      `json:"scenario,omitempty"`

	// LocationSource records where Location came from:
	// "request", "reverse", "coordinates".
	LocationSource string `json:"location_source,omitempty"`
}

// RenderRequest is the payload on the source topic: event metadata plus the
// topography and the two ground-failure probability grids.
type RenderRequest struct {
	Event        EventMetadata  `json:"event"`
	Topography   *raster.Raster `json:"topography"`
	Liquefaction *raster.Raster `json:"liquefaction"`
	Landslide    *raster.Raster `json:"landslide"`
}

// MapProduct describes a rendered map. It is the message written to the
// sink topic.
type MapProduct struct {
	EventID    string        `json:"event_id"`
	Path       string        `json:"path"`
	Title      string        `json:"title"`
	Scenario   bool          `json:"scenario"`
	Layers     []string      `json:"layers"`
	Bounds     raster.Bounds `json:"bounds"`
	RenderedAt time.Time     `json:"rendered_at"`
	Duration   time.Duration `json:"duration_ns"`
}
