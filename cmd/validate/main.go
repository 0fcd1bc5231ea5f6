// Command validate checks render request fixtures before they are fed to
// the mapper: raster integrity, grid overlap, latitude support, gridline
// generation and projection. Each file is run through every phase and the
// results are reported per phase.
//
// Usage:
//
//	go run ./cmd/validate data/mock/napa_request.json data/mock/napa_scenario.json
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/geohazard-map-service/internal/domain"
	"github.com/couchcryptid/geohazard-map-service/internal/gridlines"
	"github.com/couchcryptid/geohazard-map-service/internal/projection"
	"github.com/couchcryptid/geohazard-map-service/internal/raster"
	"github.com/couchcryptid/geohazard-map-service/internal/relief"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// fixture is a parsed request and the file it came from.
type fixture struct {
	path string
	req  domain.RenderRequest
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s request.json...\n", os.Args[0])
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}
	os.Exit(run(flag.Args()))
}

func run(paths []string) int {
	fmt.Println("=== Render Request Validation ===")
	fmt.Println()

	parse := &phase{name: "Phase 1: Parse and raster integrity"}
	fixtures := loadFixtures(parse, paths)

	phases := []*phase{
		parse,
		validateOverlap(fixtures),
		validateLatitude(fixtures),
		validateGridlines(fixtures),
		validateProjection(fixtures),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Requests: %d files, %d parsed\n", len(paths), len(fixtures))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadFixtures(p *phase, paths []string) []fixture {
	var out []fixture
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			p.errorf("%s: %v", path, err)
			continue
		}
		key := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		req, err := domain.ParseRenderRequest(domain.RawEvent{Key: []byte(key), Value: data})
		if err != nil {
			p.errorf("%s: %v", path, err)
			continue
		}
		out = append(out, fixture{path: path, req: req})
	}
	return out
}

// ── Phase 2: Grid overlap ──
// Each hazard grid must overlap the topography so the water mask can be
// resampled onto it.

func validateOverlap(fixtures []fixture) *phase {
	p := &phase{name: "Phase 2: Hazard grids overlap topography"}
	for _, f := range fixtures {
		for name, hz := range map[string]*raster.Raster{"liquefaction": f.req.Liquefaction, "landslide": f.req.Landslide} {
			if _, err := raster.ResampleLike(f.req.Topography, hz); err != nil {
				p.errorf("%s: %s: %v", f.path, name, err)
			}
		}
	}
	return p
}

// ── Phase 3: Latitude support ──

func validateLatitude(fixtures []fixture) *phase {
	p := &phase{name: "Phase 3: Relief latitude support"}
	for _, f := range fixtures {
		if _, err := relief.ExaggerationFactor(f.req.Topography.Bounds.CenterLat()); err != nil {
			p.errorf("%s: %v", f.path, err)
		}
	}
	return p
}

// ── Phase 4: Gridlines ──
// Both axes need at least two labelled gridlines for a readable map.

func validateGridlines(fixtures []fixture) *phase {
	p := &phase{name: "Phase 4: Gridlines"}
	for _, f := range fixtures {
		b := f.req.Topography.Bounds
		checkAxis(p, f.path, "meridians", b.XMin, b.XMax, gridlines.Meridians)
		checkAxis(p, f.path, "parallels", b.YMin, b.YMax, gridlines.Parallels)
	}
	return p
}

func checkAxis(p *phase, path, axis string, lo, hi float64, gen func(float64, float64) (gridlines.Set, error)) {
	set, err := gen(lo, hi)
	if err != nil {
		p.errorf("%s: %s: %v", path, axis, err)
		return
	}
	if len(set) < 2 {
		p.errorf("%s: %s: only %d gridline(s) in [%g, %g]", path, axis, len(set), lo, hi)
	}
	for _, t := range set.Values() {
		if t < lo || t > hi {
			p.errorf("%s: %s: gridline %g outside [%g, %g]", path, axis, t, lo, hi)
		}
	}
}

// ── Phase 5: Projection ──

func validateProjection(fixtures []fixture) *phase {
	p := &phase{name: "Phase 5: Lambert conformal projection"}
	factory := projection.NewFactory(len(fixtures))
	for _, f := range fixtures {
		proj, err := factory.ForBounds(f.req.Topography.Bounds)
		if err != nil {
			p.errorf("%s: %v", f.path, err)
			continue
		}
		ext, err := projection.MapExtent(f.req.Topography.Bounds, proj)
		if err != nil {
			p.errorf("%s: %v", f.path, err)
			continue
		}
		if !(ext.Width() > 0) || !(ext.Height() > 0) {
			p.errorf("%s: degenerate map extent %+v", f.path, ext)
		}
	}
	return p
}
