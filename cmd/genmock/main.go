// Command genmock writes a synthetic render request fixture: a coastal
// terrain around the 2014 South Napa earthquake with liquefaction and
// landslide probability grids. It uses the same generator as the test
// suites, so fixtures match what the tests exercise.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock/napa_request.json
//	go run ./cmd/genmock -out data/mock/napa_scenario.json -scenario -id napa-scenario
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/couchcryptid/geohazard-map-service/internal/composite"
	"github.com/couchcryptid/geohazard-map-service/internal/domain"
	"github.com/couchcryptid/geohazard-map-service/internal/mockdata"
	"github.com/couchcryptid/geohazard-map-service/internal/raster"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	defaults := mockdata.DefaultOptions()

	out := flag.String("out", "", "output path for the request JSON fixture")
	id := flag.String("id", defaults.ID, "event id")
	rows := flag.Int("rows", defaults.Rows, "topography rows")
	cols := flag.Int("cols", defaults.Cols, "topography columns")
	seed := flag.Uint64("seed", defaults.Seed, "random seed")
	scenario := flag.Bool("scenario", false, "mark the event as a scenario")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	o := defaults
	o.ID, o.Rows, o.Cols, o.Seed, o.Scenario = *id, *rows, *cols, *seed, *scenario
	req := mockdata.Request(o)
	if err := req.Validate(); err != nil {
		return fmt.Errorf("generated request is invalid: %w", err)
	}

	if err := writeJSON(*out, req); err != nil {
		return fmt.Errorf("writing fixture: %w", err)
	}
	log.Printf("wrote fixture: %s", *out)

	printStats(req)
	return nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(req domain.RenderRequest) {
	threshold := composite.DefaultOptions().ThresholdPct / 100

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Event: %s (scenario=%t) %q\n", req.Event.ID, req.Event.Scenario, domain.Title(req.Event))
	fmt.Printf("Bounds: %+v\n", req.Topography.Bounds)

	lo, hi := req.Topography.Range()
	water := 0
	for _, z := range req.Topography.Data {
		if z < 0 {
			water++
		}
	}
	fmt.Printf("Topography: %dx%d, elevation %.0f..%.0f m, %d water cells\n",
		req.Topography.Rows, req.Topography.Cols, lo, hi, water)

	printHazard("Liquefaction", req.Liquefaction, threshold)
	printHazard("Landslide", req.Landslide, threshold)
}

func printHazard(name string, g *raster.Raster, threshold float64) {
	lo, hi := g.Range()
	visible := 0
	for _, p := range g.Data {
		if p >= threshold {
			visible++
		}
	}
	fmt.Printf("%s: %dx%d, probability %.3f..%.3f, %d of %d cells at or above %.0f%%\n",
		name, g.Rows, g.Cols, lo, hi, visible, len(g.Data), threshold*100)
}
