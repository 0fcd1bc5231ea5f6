package domain

import (
	"context"
	"log/slog"
	"strings"

	"github.com/couchcryptid/geohazard-map-service/internal/gridlines"
)

// Location sources recorded on EventMetadata.
const (
	LocationFromRequest     = "request"
	LocationFromReverse     = "reverse"
	LocationFromCoordinates = "coordinates"
)

// ResolveLocation fills in the event's location string when the request
// did not carry one. It asks the geocoder for the place at the event
// coordinates and falls back to the coordinates themselves when geocoding
// is disabled, fails, or finds nothing (graceful degradation).
func ResolveLocation(ctx context.Context, event EventMetadata, geocoder Geocoder, logger *slog.Logger) EventMetadata {
	if strings.TrimSpace(event.Location) != "" {
		event.LocationSource = LocationFromRequest
		return event
	}

	if geocoder != nil {
		result, err := geocoder.ReverseGeocode(ctx, event.Lat, event.Lon)
		switch {
		case err != nil:
			logger.Warn("reverse geocoding failed",
				"event_id", event.ID,
				"lat", event.Lat,
				"lon", event.Lon,
				"error", err,
			)
		case result.FormattedAddress != "":
			event.Location = result.FormattedAddress
			event.LocationSource = LocationFromReverse
			return event
		case result.PlaceName != "":
			event.Location = result.PlaceName
			event.LocationSource = LocationFromReverse
			return event
		}
	}

	event.Location = gridlines.LatLabel(event.Lat) + ", " + gridlines.LonLabel(event.Lon)
	event.LocationSource = LocationFromCoordinates
	return event
}
