package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/couchcryptid/geohazard-map-service/internal/raster"
)

// ErrInvalidRequest is returned for requests that cannot be rendered.
var ErrInvalidRequest = errors.New("invalid render request")

// ParseRenderRequest deserializes a RawEvent's value into a RenderRequest.
// Missing metadata is filled from the message: the ID from the key, the
// event time from the message timestamp, and the event coordinates from the
// center of the topography.
func ParseRenderRequest(raw RawEvent) (RenderRequest, error) {
	var req RenderRequest
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return RenderRequest{}, fmt.Errorf("%w: parse render request: %w", ErrInvalidRequest, err)
	}

	if strings.TrimSpace(req.Event.ID) == "" {
		req.Event.ID = string(raw.Key)
	}
	if req.Event.Time.IsZero() {
		req.Event.Time = raw.Timestamp
	}
	if err := req.Validate(); err != nil {
		return RenderRequest{}, err
	}
	if req.Event.Lat == 0 && req.Event.Lon == 0 {
		req.Event.Lat = req.Topography.Bounds.CenterLat()
		req.Event.Lon = req.Topography.Bounds.CenterLon()
	}
	return req, nil
}

// Validate checks that the request names an event and carries three usable
// rasters.
func (r RenderRequest) Validate() error {
	id := strings.TrimSpace(r.Event.ID)
	if id == "" {
		return fmt.Errorf("%w: missing event id", ErrInvalidRequest)
	}
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return fmt.Errorf("%w: event id %q is not a valid file name", ErrInvalidRequest, id)
	}
	grids := []struct {
		name string
		g    *raster.Raster
	}{
		{"topography", r.Topography},
		{"liquefaction", r.Liquefaction},
		{"landslide", r.Landslide},
	}
	for _, g := range grids {
		if err := g.g.Validate(); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidRequest, g.name, err)
		}
	}
	return nil
}
