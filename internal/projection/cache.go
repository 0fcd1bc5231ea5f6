package projection

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/couchcryptid/geohazard-map-service/internal/raster"
)

// Factory builds Lambert conformal projectors and keeps the most recently
// used ones, since consecutive requests for one event share their bounds.
// It is safe for concurrent use.
type Factory struct {
	cache *lru.Cache[string, *LambertConformal]
}

// NewFactory creates a factory holding at most maxEntries projectors.
// A non-positive size disables caching.
func NewFactory(maxEntries int) *Factory {
	f := &Factory{}
	if maxEntries > 0 {
		// lru.New only fails for non-positive sizes.
		f.cache, _ = lru.New[string, *LambertConformal](maxEntries)
	}
	return f
}

// ForBounds returns a projector centered on b.
func (f *Factory) ForBounds(b raster.Bounds) (Projector, error) {
	key := fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", b.XMin, b.XMax, b.YMin, b.YMax)
	if f.cache != nil {
		if p, ok := f.cache.Get(key); ok {
			return p, nil
		}
	}
	p, err := NewLambertConformal(b)
	if err != nil {
		return nil, err
	}
	if f.cache != nil {
		f.cache.Add(key, p)
	}
	return p, nil
}

// Len returns the number of cached projectors.
func (f *Factory) Len() int {
	if f.cache == nil {
		return 0
	}
	return f.cache.Len()
}
