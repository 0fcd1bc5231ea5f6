// Package domain models ground-failure map requests and the map products
// rendered from them.
//
// # Requests
//
// Each message on the source topic is one RenderRequest: event metadata and
// three rasters sharing a geographic (longitude/latitude, WGS-84) coordinate
// system but not necessarily a grid:
//
//	topography    elevation in meters; negative values are water
//	liquefaction  probability of liquefaction, fraction 0–1
//	landslide     probability of landsliding, fraction 0–1
//
// Rasters are gridline-registered: the bounds name the first and last cell
// centers, and row 0 is the northern edge.
//
// # Events and scenarios
//
// A real event is titled by magnitude, UTC date and location, e.g.
//
//	M6.9 Oct 18 1989
//	 Loma Prieta, California
//
// A scenario (a hypothetical rupture) is titled by location only and is
// stamped with a translucent SCENARIO watermark so it cannot be mistaken
// for a real event.
//
// When a request omits the location, [ResolveLocation] reverse geocodes the
// event coordinates, falling back to a formatted latitude/longitude pair.
//
// # Products
//
// A MapProduct is published to the sink topic once the image is on disk. The
// file is named by the event ID, so re-rendering an event replaces its map
// and replays are idempotent.
package domain
