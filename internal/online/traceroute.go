package online

import (
	"fmt"

	"github.com/twpayne/go-polyline"

	"transitrouter.dev/raptor/internal/geo"
	"transitrouter.dev/raptor/internal/index"
	"transitrouter.dev/raptor/internal/raptor"
)

// Step is one leg of a reconstructed itinerary. TripID and
// RouteID are set only for Transit steps; NumStops counts intermediate
// stop-time rows skipped en route. DistanceKm is set only for Walk steps
// and is derived at reconstruction time, never stored in the ReachMap.
type Step struct {
	FromStopID  string  `json:"fromStopId"`
	ToStopID    string  `json:"toStopId"`
	Mode        string  `json:"mode"`
	DepartTime  int     `json:"departTimeSecs"`
	ArriveTime  int     `json:"arriveTimeSecs"`
	TravelSecs  int     `json:"travelSecs"`
	TripID      string  `json:"tripId,omitempty"`
	RouteID     string  `json:"routeId,omitempty"`
	NumStops    int     `json:"numStops,omitempty"`
	DistanceKm  float64 `json:"distanceKm,omitempty"`
	Geometry    string  `json:"geometry,omitempty"`
	Description string  `json:"description"`
}

// TraceRoute walks the PrevK/PreviousStopID chain backward from
// (k, destStopID) and returns the forward-ordered steps. It
// reads stop/trip/route metadata from base, which must be the same
// IndexedFeed that produced tau (for an augmented query, the
// AugmentedFeed's IndexedFeed() view), since ephemeral stop ids only
// resolve through the query's overlay.
func TraceRoute(base *index.IndexedFeed, tau raptor.Tau, k int, destStopID string) ([]Step, error) {
	type hop struct {
		k      int
		stopID string
		info   raptor.ReachInfo
	}
	var hops []hop

	curK, curStop := k, destStopID
	for {
		info, ok := tau[curK][curStop]
		if !ok {
			return nil, fmt.Errorf("traceroute: round %d has no entry for stop %q", curK, curStop)
		}
		if info.Mode == raptor.Origin {
			break
		}
		hops = append(hops, hop{k: curK, stopID: curStop, info: info})
		curK, curStop = info.PrevK, info.PreviousStopID
	}

	steps := make([]Step, 0, len(hops))
	for i := len(hops) - 1; i >= 0; i-- {
		h := hops[i]
		step := Step{
			FromStopID: h.info.PreviousStopID,
			ToStopID:   h.stopID,
			Mode:       h.info.Mode.String(),
			ArriveTime: h.info.TimeOfDaySec,
		}

		switch h.info.Mode {
		case raptor.Transit:
			step.TripID = h.info.TripID
			if trip, ok := base.TripIDToTrip[h.info.TripID]; ok {
				step.RouteID = trip.RouteID
			}
			depart, numStops := boardingDetails(base, h.info.TripID, h.info.PreviousStopID, h.stopID)
			step.DepartTime = depart
			step.NumStops = numStops
			step.TravelSecs = step.ArriveTime - step.DepartTime
			step.Geometry = transitGeometry(base, h.info.TripID, h.info.PreviousStopID, h.stopID)
			step.Description = describeTransit(base, step)
		case raptor.Walk:
			from, fromOK := base.StopIDToStop[h.info.PreviousStopID]
			to, toOK := base.StopIDToStop[h.stopID]
			if fromOK && toOK {
				step.DistanceKm = geo.HaversineKm(geo.Point{Lat: from.Lat, Lng: from.Lng}, geo.Point{Lat: to.Lat, Lng: to.Lng})
			}
			// A walk departs the instant the previous round arrived at its
			// starting stop.
			if prev, ok := tau[h.info.PrevK][h.info.PreviousStopID]; ok {
				step.DepartTime = prev.TimeOfDaySec
			} else {
				step.DepartTime = step.ArriveTime
			}
			step.TravelSecs = step.ArriveTime - step.DepartTime
			step.Description = describeWalk(step)
		}

		steps = append(steps, step)
	}
	return steps, nil
}

// boardingDetails finds the stop-time the rider boarded tripID at (the one
// at fromStopID) and returns its departure time plus the number of
// intermediate stop-time rows between boarding and alighting.
func boardingDetails(base *index.IndexedFeed, tripID, fromStopID, toStopID string) (depart int, numStops int) {
	sts := base.TripIDToStopTimes[tripID]
	boardIdx, alightIdx := -1, -1
	for i, st := range sts {
		if st.StopID == fromStopID && boardIdx == -1 {
			boardIdx = i
		}
		if st.StopID == toStopID {
			alightIdx = i
		}
	}
	if boardIdx == -1 || alightIdx == -1 {
		return 0, 0
	}
	return sts[boardIdx].TimeOfDaySec, alightIdx - boardIdx - 1
}

// transitGeometry returns the ridden portion of the trip's shape as an
// encoded polyline, trimming it to the projections of the boarding and
// alighting stops. Trips without a shape_id fall back to the indexed
// shape hint for their (direction, route); an empty string means no shape
// data was available.
func transitGeometry(base *index.IndexedFeed, tripID, fromStopID, toStopID string) string {
	trip, ok := base.TripIDToTrip[tripID]
	if !ok {
		return ""
	}
	shapeID := trip.ShapeID
	if shapeID == "" {
		shapeID, _ = base.ShapeHint(trip.DirectionID, trip.RouteID)
	}
	pts := base.ShapeIDToPoints[shapeID]
	if len(pts) < 2 {
		return ""
	}

	poly := make([]geo.Point, len(pts))
	for i, p := range pts {
		poly[i] = geo.Point{Lat: p.Lat, Lng: p.Lng}
	}
	from, okFrom := base.StopIDToStop[fromStopID]
	to, okTo := base.StopIDToStop[toStopID]
	if !okFrom || !okTo {
		return ""
	}

	start := geo.ClosestPointOnLineString(geo.Point{Lat: from.Lat, Lng: from.Lng}, poly)
	end := geo.ClosestPointOnLineString(geo.Point{Lat: to.Lat, Lng: to.Lng}, poly)
	if end.BeforeIndex < start.BeforeIndex {
		// The shape runs opposite to this trip's travel direction.
		return ""
	}

	coords := [][]float64{{start.Point.Lat, start.Point.Lng}}
	for i := start.AfterIndex; i <= end.BeforeIndex; i++ {
		coords = append(coords, []float64{poly[i].Lat, poly[i].Lng})
	}
	coords = append(coords, []float64{end.Point.Lat, end.Point.Lng})
	return string(polyline.EncodeCoords(coords))
}

func describeTransit(base *index.IndexedFeed, s Step) string {
	routeName := s.RouteID
	if route, ok := base.RouteIDToRoute[s.RouteID]; ok && route.ShortName != "" {
		routeName = route.ShortName
	}
	return fmt.Sprintf("Ride route %s from %s to %s", routeName, s.FromStopID, s.ToStopID)
}

func describeWalk(s Step) string {
	return fmt.Sprintf("Walk %.2f km from %s to %s", s.DistanceKm, s.FromStopID, s.ToStopID)
}
