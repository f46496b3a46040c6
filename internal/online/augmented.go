// Package online implements the query-time entry points: augmenting an
// indexed feed with ephemeral origin/destination locations, running RAPTOR
// against the result, and reconstructing step-by-step itineraries.
// AugmentedFeed is a layered view: a borrow of the immutable base
// IndexedFeed plus an owned per-query overlay, with explicit "overlay,
// then base" lookup precedence and no mutation of the base.
package online

import (
	"fmt"

	"transitrouter.dev/raptor/internal/feed"
	"transitrouter.dev/raptor/internal/geo"
	"transitrouter.dev/raptor/internal/index"
	"transitrouter.dev/raptor/internal/spatial"
	"transitrouter.dev/raptor/internal/water"
)

// Location is a query endpoint or preset destination.
type Location struct {
	ID  string
	Lat float64
	Lng float64
}

// AugmentedFeed overlays ephemeral stops and walking edges on top of an
// immutable base IndexedFeed. It never mutates base; every method reads
// the overlay first, falling back to base.
type AugmentedFeed struct {
	base *index.IndexedFeed

	overlayStops     map[string]feed.Stop
	overlayTransfers map[string][]index.WalkingTransfer
	spatial          *spatial.Index
}

// newOverlay returns an empty AugmentedFeed layered on base, with its own
// spatial index cloned from base's so augmentation never mutates the
// shared, concurrently-read base index.
func newOverlay(base *index.IndexedFeed) *AugmentedFeed {
	return &AugmentedFeed{
		base:             base,
		overlayStops:     make(map[string]feed.Stop),
		overlayTransfers: make(map[string][]index.WalkingTransfer),
		spatial:          base.Spatial.Clone(),
	}
}

// Stop returns the stop record for id, checking the overlay before the
// base feed.
func (a *AugmentedFeed) Stop(id string) (feed.Stop, bool) {
	if s, ok := a.overlayStops[id]; ok {
		return s, true
	}
	s, ok := a.base.StopIDToStop[id]
	return s, ok
}

// StopTimes returns the stop-times scheduled at id. Ephemeral stops never
// have any, so this always falls through to the base feed.
func (a *AugmentedFeed) StopTimes(id string) []feed.StopTime {
	return a.base.StopIDToStopTimes[id]
}

// TripStopTimes returns the stop-times of tripID, in sequence order.
func (a *AugmentedFeed) TripStopTimes(tripID string) []feed.StopTime {
	return a.base.TripIDToStopTimes[tripID]
}

// Trip returns the trip record for tripID.
func (a *AugmentedFeed) Trip(tripID string) (feed.Trip, bool) {
	t, ok := a.base.TripIDToTrip[tripID]
	return t, ok
}

// Route returns the route record for routeID.
func (a *AugmentedFeed) Route(routeID string) (feed.Route, bool) {
	r, ok := a.base.RouteIDToRoute[routeID]
	return r, ok
}

// WalkingTransfers returns the walking-transfer edges from id: base edges
// followed by overlay edges (an ephemeral stop's edges live only in the
// overlay; a real stop's edges are base-only unless augmentation added
// edges from it to a destination).
func (a *AugmentedFeed) WalkingTransfers(id string) []index.WalkingTransfer {
	overlay := a.overlayTransfers[id]
	if len(overlay) == 0 {
		return a.base.WalkingTransfers[id]
	}
	return append(append([]index.WalkingTransfer{}, a.base.WalkingTransfers[id]...), overlay...)
}

// IndexedFeed adapts an AugmentedFeed back into the *index.IndexedFeed
// shape the raptor package reads, so Router.Run never needs to know
// whether it is routing against a base or augmented feed.
func (a *AugmentedFeed) IndexedFeed() *index.IndexedFeed {
	return &index.IndexedFeed{
		Feed:              a.base.Feed,
		StopIDToStopTimes: a.base.StopIDToStopTimes,
		TripIDToStopTimes: a.base.TripIDToStopTimes,
		TripIDToTrip:      a.base.TripIDToTrip,
		StopIDToStop:      mergedStopMap(a),
		RouteIDToRoute:    a.base.RouteIDToRoute,
		ShapeIDToPoints:   a.base.ShapeIDToPoints,
		ParentToChildren:  a.base.ParentToChildren,
		ShapeHints:        a.base.ShapeHints,
		WalkingTransfers:  mergedTransferMap(a),
		Spatial:           a.spatial,
	}
}

func mergedStopMap(a *AugmentedFeed) map[string]feed.Stop {
	if len(a.overlayStops) == 0 {
		return a.base.StopIDToStop
	}
	merged := make(map[string]feed.Stop, len(a.base.StopIDToStop)+len(a.overlayStops))
	for k, v := range a.base.StopIDToStop {
		merged[k] = v
	}
	for k, v := range a.overlayStops {
		merged[k] = v
	}
	return merged
}

func mergedTransferMap(a *AugmentedFeed) map[string][]index.WalkingTransfer {
	if len(a.overlayTransfers) == 0 {
		return a.base.WalkingTransfers
	}
	merged := make(map[string][]index.WalkingTransfer, len(a.base.WalkingTransfers)+len(a.overlayTransfers))
	for k, v := range a.base.WalkingTransfers {
		merged[k] = v
	}
	for id, extra := range a.overlayTransfers {
		merged[id] = append(append([]index.WalkingTransfer{}, a.base.WalkingTransfers[id]...), extra...)
	}
	return merged
}

// Augment builds an AugmentedFeed carrying origin (if non-nil) and
// destinations as ephemeral stops, plus the walking edges connecting them
// to the base feed within radiusKm. Id collisions between a
// location and an existing stopId are rejected.
func Augment(base *index.IndexedFeed, origin *Location, destinations []Location, radiusKm float64, waterFilter *water.Filter) (*AugmentedFeed, error) {
	a := newOverlay(base)

	allLocations := destinations
	if origin != nil {
		allLocations = append([]Location{*origin}, destinations...)
	}
	for _, loc := range allLocations {
		if _, exists := base.StopIDToStop[loc.ID]; exists {
			return nil, fmt.Errorf("augmentation: location id %q collides with an existing stop id", loc.ID)
		}
		a.overlayStops[loc.ID] = feed.Stop{StopID: loc.ID, StopName: loc.ID, Lat: loc.Lat, Lng: loc.Lng}
		a.spatial.Add([]spatial.IndexedPoint{{ID: loc.ID, Pos: geo.Point{Lat: loc.Lat, Lng: loc.Lng}}})
	}

	if origin != nil {
		for _, hit := range base.Spatial.Search(geo.Point{Lat: origin.Lat, Lng: origin.Lng}, radiusKm) {
			if blocked(base, waterFilter, origin.Lat, origin.Lng, hit.ID) {
				continue
			}
			a.overlayTransfers[origin.ID] = append(a.overlayTransfers[origin.ID], index.WalkingTransfer{ToStopID: hit.ID, Km: hit.Km})
		}
	}

	for _, dest := range destinations {
		for _, hit := range base.Spatial.Search(geo.Point{Lat: dest.Lat, Lng: dest.Lng}, radiusKm) {
			if blocked(base, waterFilter, dest.Lat, dest.Lng, hit.ID) {
				continue
			}
			a.overlayTransfers[hit.ID] = append(a.overlayTransfers[hit.ID], index.WalkingTransfer{ToStopID: dest.ID, Km: hit.Km})
		}
	}

	if origin != nil {
		for _, dest := range destinations {
			km := geo.HaversineKm(geo.Point{Lat: origin.Lat, Lng: origin.Lng}, geo.Point{Lat: dest.Lat, Lng: dest.Lng})
			if km > radiusKm || waterFilter.Blocked(geo.Point{Lat: origin.Lat, Lng: origin.Lng}, geo.Point{Lat: dest.Lat, Lng: dest.Lng}) {
				continue
			}
			a.overlayTransfers[origin.ID] = append(a.overlayTransfers[origin.ID], index.WalkingTransfer{ToStopID: dest.ID, Km: km})
		}
	}

	return a, nil
}

func blocked(base *index.IndexedFeed, waterFilter *water.Filter, lat, lng float64, stopID string) bool {
	s, ok := base.StopIDToStop[stopID]
	if !ok {
		return true
	}
	return waterFilter.Blocked(geo.Point{Lat: lat, Lng: lng}, geo.Point{Lat: s.Lat, Lng: s.Lng})
}
