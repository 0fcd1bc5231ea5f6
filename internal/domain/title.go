package domain

import "fmt"

// ScenarioWatermark is stamped across maps of hypothetical events.
const ScenarioWatermark = "SCENARIO"

// Title returns the map title. Scenarios are titled by location alone;
// real events by magnitude, UTC date and location on a second line,
// e.g. "M6.9 Oct 18 1989\n Loma Prieta, California".
func Title(e EventMetadata) string {
	if e.Scenario {
		return e.Location
	}
	return fmt.Sprintf("M%.1f %s\n %s", e.Magnitude, e.Time.UTC().Format("Jan 02 2006"), e.Location)
}
