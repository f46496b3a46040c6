// Package index builds the derived, queryable structure RAPTOR runs
// against: per-stop and per-trip stop-time lookups, parent/child station
// groups, shape hints, a spatial index of stops, and the walking-transfer
// graph combining intra-station, explicit and proximity-derived footpaths.
package index

import (
	"fmt"
	"sort"

	"transitrouter.dev/raptor/internal/appconf"
	"transitrouter.dev/raptor/internal/feed"
	"transitrouter.dev/raptor/internal/geo"
	"transitrouter.dev/raptor/internal/spatial"
	"transitrouter.dev/raptor/internal/water"
)

// WalkingTransfer is a directed footpath edge. Exactly one of Km
// (a walked distance) or Secs (an explicit fixed-time transfer) applies;
// HasSecs distinguishes the two since 0 is a valid fixed time.
type WalkingTransfer struct {
	ToStopID string
	Km       float64
	Secs     int
	HasSecs  bool
}

// IndexedFeed is a raw Feed plus the derived maps and walking-transfer
// graph RAPTOR and the online router read. It owns its Feed and indices
// and is built once per process; AugmentedFeed layers on top of it without
// mutation.
type IndexedFeed struct {
	Feed *feed.Feed

	StopIDToStopTimes map[string][]feed.StopTime
	TripIDToStopTimes map[string][]feed.StopTime
	TripIDToTrip      map[string]feed.Trip
	StopIDToStop      map[string]feed.Stop
	RouteIDToRoute    map[string]feed.Route
	ShapeIDToPoints   map[string][]feed.ShapePoint
	ParentToChildren  map[string][]string
	ShapeHints        map[string]string

	WalkingTransfers map[string][]WalkingTransfer

	Spatial *spatial.Index

	MaxWalkBetweenStopsKm float64
}

// Build constructs an IndexedFeed from f, applying waterFilter and opts's
// walking-distance ceiling to the proximity-footpath pass.
func Build(f *feed.Feed, opts appconf.LoadOptions, waterFilter *water.Filter) (*IndexedFeed, error) {
	idx := &IndexedFeed{
		Feed:                  f,
		StopIDToStopTimes:     make(map[string][]feed.StopTime),
		TripIDToStopTimes:     make(map[string][]feed.StopTime),
		TripIDToTrip:          make(map[string]feed.Trip, len(f.Trips)),
		StopIDToStop:          make(map[string]feed.Stop, len(f.Stops)),
		RouteIDToRoute:        make(map[string]feed.Route, len(f.Routes)),
		ShapeIDToPoints:       make(map[string][]feed.ShapePoint),
		ParentToChildren:      make(map[string][]string),
		ShapeHints:            make(map[string]string),
		Spatial:               spatial.New(),
		MaxWalkBetweenStopsKm: opts.MaxAllowableBetweenStopWalkKm,
	}

	for _, s := range f.Stops {
		idx.StopIDToStop[s.StopID] = s
		if s.ParentStation != "" {
			idx.ParentToChildren[s.ParentStation] = append(idx.ParentToChildren[s.ParentStation], s.StopID)
		}
		idx.Spatial.Add([]spatial.IndexedPoint{{ID: s.StopID, Pos: geo.Point{Lat: s.Lat, Lng: s.Lng}}})
	}
	for _, t := range f.Trips {
		idx.TripIDToTrip[t.TripID] = t
	}
	for _, r := range f.Routes {
		idx.RouteIDToRoute[r.RouteID] = r
	}
	for _, sp := range f.Shapes {
		idx.ShapeIDToPoints[sp.ShapeID] = append(idx.ShapeIDToPoints[sp.ShapeID], sp)
	}
	for shapeID := range idx.ShapeIDToPoints {
		pts := idx.ShapeIDToPoints[shapeID]
		sort.Slice(pts, func(i, j int) bool { return pts[i].Sequence < pts[j].Sequence })
	}
	for parent := range idx.ParentToChildren {
		sort.Strings(idx.ParentToChildren[parent])
	}

	for _, st := range f.StopTimes {
		if st.DepartureTime == "" {
			return nil, fmt.Errorf("stop_time for trip %q stop %q missing departure_time", st.TripID, st.StopID)
		}
		idx.StopIDToStopTimes[st.StopID] = append(idx.StopIDToStopTimes[st.StopID], st)
		idx.TripIDToStopTimes[st.TripID] = append(idx.TripIDToStopTimes[st.TripID], st)
	}
	for stopID := range idx.StopIDToStopTimes {
		sts := idx.StopIDToStopTimes[stopID]
		sort.Slice(sts, func(i, j int) bool { return sts[i].TimeOfDaySec < sts[j].TimeOfDaySec })
	}
	for tripID := range idx.TripIDToStopTimes {
		sts := idx.TripIDToStopTimes[tripID]
		sort.Slice(sts, func(i, j int) bool { return sts[i].StopSequence < sts[j].StopSequence })
	}

	idx.buildShapeHints(opts.ShapeHints)

	transfers, err := buildWalkingTransfers(idx, f.Transfers, opts, waterFilter)
	if err != nil {
		return nil, err
	}
	idx.WalkingTransfers = transfers

	return idx, nil
}

// buildShapeHints picks, for each (directionId, routeId), the longest shape
// actually seen among that route's trips as a fallback for trips missing
// shape_id, then layers user-supplied hints on top.
func (idx *IndexedFeed) buildShapeHints(userHints []appconf.ShapeHint) {
	type key struct {
		routeID     string
		directionID int
	}
	longest := make(map[key]string)
	longestLen := make(map[key]int)

	for _, t := range idx.Feed.Trips {
		if t.ShapeID == "" {
			continue
		}
		k := key{routeID: t.RouteID, directionID: t.DirectionID}
		n := len(idx.ShapeIDToPoints[t.ShapeID])
		if n > longestLen[k] {
			longestLen[k] = n
			longest[k] = t.ShapeID
		}
	}
	for k, shapeID := range longest {
		idx.ShapeHints[shapeHintKey(k.directionID, k.routeID)] = shapeID
	}
	for _, h := range userHints {
		idx.ShapeHints[shapeHintKey(h.DirectionID, h.RouteID)] = h.ShapeID
	}
}

func shapeHintKey(directionID int, routeID string) string {
	return fmt.Sprintf("%d%s", directionID, routeID)
}

// ShapeHint looks up the fallback shapeId for a trip missing one.
func (idx *IndexedFeed) ShapeHint(directionID int, routeID string) (string, bool) {
	shapeID, ok := idx.ShapeHints[shapeHintKey(directionID, routeID)]
	return shapeID, ok
}
