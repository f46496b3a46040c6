package online

import "fmt"

// preset is a pre-built, destination-only overlay: the (more expensive)
// destination-side proximity search has already run, so each query only
// has to layer its own origin on top.
type preset struct {
	destinations []Location
	base         *AugmentedFeed
}

// Presets holds named, pre-augmented destination sets. Register builds the
// destination overlay once; OneToManyPreset queries layer a second,
// per-query overlay for the origin on top via preset.base.IndexedFeed(),
// keeping the same "overlay, then base" read precedence one level deeper.
type Presets struct {
	router *Router
	named  map[string]*preset
}

func newPresets(r *Router) *Presets {
	return &Presets{router: r, named: make(map[string]*preset)}
}

// Register builds and names a preset destination set for later use with
// Router.OneToManyPreset. radiusKm bounds the destination-side proximity
// search; it should match (or exceed) every query's max_walking_distance_km,
// since a query radius wider than the registered preset's can't discover
// edges the preset never built.
func (p *Presets) Register(name string, destinations []Location, radiusKm float64) error {
	aug, err := Augment(p.router.base, nil, destinations, radiusKm, p.router.waterFilter)
	if err != nil {
		return fmt.Errorf("registering preset %q: %w", name, err)
	}
	p.named[name] = &preset{destinations: destinations, base: aug}
	return nil
}

// augmentFor layers origin onto the registered preset's destination
// overlay, returning a fresh two-level AugmentedFeed for this single query.
func (p *Presets) augmentFor(name string, origin Location, radiusKm float64) (*AugmentedFeed, error) {
	pr, ok := p.named[name]
	if !ok {
		return nil, fmt.Errorf("online: unknown preset %q", name)
	}
	return Augment(pr.base.IndexedFeed(), &origin, nil, radiusKm, p.router.waterFilter)
}
