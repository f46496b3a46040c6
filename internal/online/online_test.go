package online

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-polyline"

	"transitrouter.dev/raptor/internal/appconf"
	"transitrouter.dev/raptor/internal/feed"
	"transitrouter.dev/raptor/internal/index"
	"transitrouter.dev/raptor/internal/raptor"
)

// buildLineFeed is a three-stop line A->B->C, one trip, departing A at
// 06:00:00 with five minute legs.
func buildLineFeed(t *testing.T) *index.IndexedFeed {
	t.Helper()
	f := &feed.Feed{
		Stops: []feed.Stop{
			{StopID: "A", StopName: "A", Lat: 0, Lng: 0},
			{StopID: "B", StopName: "B", Lat: 0.01, Lng: 0},
			{StopID: "C", StopName: "C", Lat: 0.02, Lng: 0},
		},
		Routes: []feed.Route{{RouteID: "R1", RouteType: feed.Bus, ShortName: "1"}},
		Trips:  []feed.Trip{{TripID: "T1", RouteID: "R1", ServiceID: "S1"}},
		StopTimes: []feed.StopTime{
			{TripID: "T1", StopID: "A", StopSequence: 1, DepartureTime: "06:00:00", ArrivalTime: "06:00:00", TimeOfDaySec: 6 * 3600},
			{TripID: "T1", StopID: "B", StopSequence: 2, DepartureTime: "06:05:00", ArrivalTime: "06:05:00", TimeOfDaySec: 6*3600 + 300},
			{TripID: "T1", StopID: "C", StopSequence: 3, DepartureTime: "06:10:00", ArrivalTime: "06:10:00", TimeOfDaySec: 6*3600 + 600},
		},
	}
	idx, err := index.Build(f, appconf.LoadDefaults(), nil)
	require.NoError(t, err)
	return idx
}

func TestAugment_RejectsIDCollisionWithExistingStop(t *testing.T) {
	base := buildLineFeed(t)
	_, err := Augment(base, &Location{ID: "A", Lat: 0.001, Lng: 0.001}, nil, 1.5, nil)
	assert.Error(t, err)
}

func TestAugment_ConnectsOriginToNearbyStopsOnly(t *testing.T) {
	base := buildLineFeed(t)
	origin := Location{ID: "origin", Lat: 0.0005, Lng: 0} // ~55m from A, ~1050m from B
	aug, err := Augment(base, &origin, nil, 0.2, nil)
	require.NoError(t, err)

	edges := aug.WalkingTransfers("origin")
	require.Len(t, edges, 1)
	assert.Equal(t, "A", edges[0].ToStopID)
}

func TestAugment_DoesNotMutateBaseIndex(t *testing.T) {
	base := buildLineFeed(t)
	origin := Location{ID: "origin", Lat: 0.0005, Lng: 0}
	_, err := Augment(base, &origin, nil, 5, nil)
	require.NoError(t, err)

	_, exists := base.StopIDToStop["origin"]
	assert.False(t, exists, "augmentation must not mutate the base feed")
	assert.Equal(t, 3, base.Spatial.Len(), "base spatial index must not grow")
}

func TestRouter_OneToOne_WalksThenRidesThenWalks(t *testing.T) {
	base := buildLineFeed(t)
	r := New(base, nil, appconf.LoadDefaults(), nil, nil)

	origin := Location{ID: "origin", Lat: 0.0005, Lng: 0}
	dest := Location{ID: "dest", Lat: 0.0205, Lng: 0}

	it, err := r.OneToOne(origin, dest, 6*3600-300, appconf.QueryOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, it.Steps)

	assert.Equal(t, raptor.Walk.String(), it.Steps[0].Mode)
	assert.Equal(t, raptor.Transit.String(), it.Steps[1].Mode)
	assert.Equal(t, "T1", it.Steps[1].TripID)
	assert.Equal(t, raptor.Walk.String(), it.Steps[len(it.Steps)-1].Mode)
}

func TestRouter_ClampsWalkingDistanceToLoadCeiling(t *testing.T) {
	base := buildLineFeed(t)
	load := appconf.LoadDefaults()
	load.MaxAllowableWalkingDistanceKm = 0.01
	r := New(base, nil, load, nil, nil)

	origin := Location{ID: "origin", Lat: 0.0005, Lng: 0} // ~55m from A
	dest := Location{ID: "dest", Lat: 0.0205, Lng: 0}

	wide := 50.0
	_, err := r.OneToOne(origin, dest, 6*3600-300, appconf.QueryOptions{MaxWalkingDistanceKm: &wide})
	assert.Error(t, err, "a user radius above the load ceiling must be clamped, leaving the origin unconnected")
}

func TestRouter_FeedOptionsOverrideDefaults(t *testing.T) {
	base := buildLineFeed(t)
	load := appconf.LoadDefaults()
	negative := -1.0
	load.FeedOptions = &appconf.QueryOptions{BusMultiplier: &negative}
	r := New(base, nil, load, nil, nil)

	_, err := r.StopToStop("A", "C", 6*3600, appconf.QueryOptions{})
	assert.Error(t, err, "feed options disabling bus should apply to every query")
}

func TestRouter_StopToStop_NoAugmentationNeeded(t *testing.T) {
	base := buildLineFeed(t)
	r := New(base, nil, appconf.LoadDefaults(), nil, nil)

	it, err := r.StopToStop("A", "C", 6*3600, appconf.QueryOptions{})
	require.NoError(t, err)
	assert.Equal(t, 6*3600+600, it.ArrivalTimeSec)
	assert.Equal(t, 0, it.NumTransfers)
}

// buildForkFeed offers two transfer chains from A to D: the quick one
// changes at B (arrive 08:25), the slow one at C (arrive 08:40). Stops are
// spaced far enough apart that no proximity footpaths join them.
func buildForkFeed(t *testing.T) *index.IndexedFeed {
	t.Helper()
	f := &feed.Feed{
		Stops: []feed.Stop{
			{StopID: "A", StopName: "A", Lat: 0, Lng: 0},
			{StopID: "B", StopName: "B", Lat: 0.1, Lng: 0},
			{StopID: "C", StopName: "C", Lat: 0.1, Lng: 0.1},
			{StopID: "D", StopName: "D", Lat: 0.2, Lng: 0},
		},
		Routes: []feed.Route{
			{RouteID: "R1", RouteType: feed.Bus},
			{RouteID: "R2", RouteType: feed.Bus},
			{RouteID: "R3", RouteType: feed.Bus},
			{RouteID: "R4", RouteType: feed.Bus},
		},
		Trips: []feed.Trip{
			{TripID: "T1", RouteID: "R1", ServiceID: "S1"},
			{TripID: "T2", RouteID: "R2", ServiceID: "S1"},
			{TripID: "T3", RouteID: "R3", ServiceID: "S1"},
			{TripID: "T4", RouteID: "R4", ServiceID: "S1"},
		},
		StopTimes: []feed.StopTime{
			{TripID: "T1", StopID: "A", StopSequence: 1, DepartureTime: "08:00:00", TimeOfDaySec: 8 * 3600},
			{TripID: "T1", StopID: "B", StopSequence: 2, DepartureTime: "08:10:00", TimeOfDaySec: 8*3600 + 600},
			{TripID: "T2", StopID: "B", StopSequence: 1, DepartureTime: "08:15:00", TimeOfDaySec: 8*3600 + 900},
			{TripID: "T2", StopID: "D", StopSequence: 2, DepartureTime: "08:25:00", TimeOfDaySec: 8*3600 + 1500},
			{TripID: "T3", StopID: "A", StopSequence: 1, DepartureTime: "08:00:00", TimeOfDaySec: 8 * 3600},
			{TripID: "T3", StopID: "C", StopSequence: 2, DepartureTime: "08:20:00", TimeOfDaySec: 8*3600 + 1200},
			{TripID: "T4", StopID: "C", StopSequence: 1, DepartureTime: "08:25:00", TimeOfDaySec: 8*3600 + 1500},
			{TripID: "T4", StopID: "D", StopSequence: 2, DepartureTime: "08:40:00", TimeOfDaySec: 8*3600 + 2400},
		},
	}
	idx, err := index.Build(f, appconf.LoadDefaults(), nil)
	require.NoError(t, err)
	return idx
}

func TestRouter_ExcludeStopsForcesReroute(t *testing.T) {
	r := New(buildForkFeed(t), nil, appconf.LoadDefaults(), nil, nil)

	it, err := r.StopToStop("A", "D", 8*3600, appconf.QueryOptions{})
	require.NoError(t, err)
	assert.Equal(t, 8*3600+1500, it.ArrivalTimeSec)
	require.Len(t, it.Steps, 2)
	assert.Equal(t, "B", it.Steps[0].ToStopID, "unconstrained, the quicker change at B wins")

	it, err = r.StopToStop("A", "D", 8*3600, appconf.QueryOptions{ExcludeStops: []string{"B"}})
	require.NoError(t, err)
	assert.Equal(t, 8*3600+2400, it.ArrivalTimeSec)
	require.Len(t, it.Steps, 2)
	assert.Equal(t, "C", it.Steps[0].ToStopID, "excluding B must reroute through C")
	assert.Equal(t, "T4", it.Steps[1].TripID)
}

func TestRouter_OneToMany_OmitsUnreachableDestinations(t *testing.T) {
	base := buildLineFeed(t)
	r := New(base, nil, appconf.LoadDefaults(), nil, nil)

	origin := Location{ID: "origin", Lat: 0, Lng: 0}
	reachable := Location{ID: "near-c", Lat: 0.0205, Lng: 0}
	unreachable := Location{ID: "far-away", Lat: 10, Lng: 10}

	results, err := r.OneToMany(origin, []Location{reachable, unreachable}, 6*3600, appconf.QueryOptions{})
	require.NoError(t, err)
	assert.Contains(t, results, "near-c")
	assert.NotContains(t, results, "far-away")
}

func TestRouter_Presets_RoutesToRegisteredDestinations(t *testing.T) {
	base := buildLineFeed(t)
	r := New(base, nil, appconf.LoadDefaults(), nil, nil)
	require.NoError(t, r.presets.Register("downtown", []Location{{ID: "near-c", Lat: 0.0205, Lng: 0}}, 1.5))

	origin := Location{ID: "origin", Lat: 0, Lng: 0}
	results, err := r.OneToManyPreset(origin, "downtown", 6*3600, appconf.QueryOptions{})
	require.NoError(t, err)
	assert.Contains(t, results, "near-c")
}

func TestRouter_ManyToMany_CoversEveryOrigin(t *testing.T) {
	base := buildLineFeed(t)
	r := New(base, nil, appconf.LoadDefaults(), nil, nil)

	origins := []Location{{ID: "o1", Lat: 0, Lng: 0}}
	dests := []Location{{ID: "near-c", Lat: 0.0205, Lng: 0}}

	results, err := r.ManyToMany(origins, dests, 6*3600, appconf.QueryOptions{})
	require.NoError(t, err)
	require.Contains(t, results, "o1")
	assert.Contains(t, results["o1"], "near-c")
}

func TestTraceRoute_TransitStepCarriesShapeGeometry(t *testing.T) {
	f := &feed.Feed{
		Stops: []feed.Stop{
			{StopID: "A", StopName: "A", Lat: 0, Lng: 0},
			{StopID: "B", StopName: "B", Lat: 0.01, Lng: 0},
			{StopID: "C", StopName: "C", Lat: 0.02, Lng: 0},
		},
		Routes: []feed.Route{{RouteID: "R1", RouteType: feed.Bus}},
		Trips:  []feed.Trip{{TripID: "T1", RouteID: "R1", ServiceID: "S1", ShapeID: "SH1"}},
		StopTimes: []feed.StopTime{
			{TripID: "T1", StopID: "A", StopSequence: 1, DepartureTime: "06:00:00", TimeOfDaySec: 6 * 3600},
			{TripID: "T1", StopID: "B", StopSequence: 2, DepartureTime: "06:05:00", TimeOfDaySec: 6*3600 + 300},
			{TripID: "T1", StopID: "C", StopSequence: 3, DepartureTime: "06:10:00", TimeOfDaySec: 6*3600 + 600},
		},
		Shapes: []feed.ShapePoint{
			{ShapeID: "SH1", Sequence: 1, Lat: 0, Lng: 0},
			{ShapeID: "SH1", Sequence: 2, Lat: 0.01, Lng: 0},
			{ShapeID: "SH1", Sequence: 3, Lat: 0.02, Lng: 0},
		},
	}
	base, err := index.Build(f, appconf.LoadDefaults(), nil)
	require.NoError(t, err)

	rr := raptor.New(nil)
	q := appconf.Resolve(nil, appconf.QueryOptions{}, appconf.LoadDefaults())
	tau := rr.Run(base, "A", 6*3600, q)
	best, found := raptor.FindBestK(tau, "C", q)
	require.True(t, found)

	steps, err := TraceRoute(base, tau, best.K, "C")
	require.NoError(t, err)
	require.Len(t, steps, 1)
	require.NotEmpty(t, steps[0].Geometry)

	coords, _, err := polyline.DecodeCoords([]byte(steps[0].Geometry))
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(coords), 2)
	assert.InDelta(t, 0, coords[0][0], 1e-4)
	assert.InDelta(t, 0.02, coords[len(coords)-1][0], 1e-4)
}

func TestTraceRoute_ReconstructsForwardOrderedSteps(t *testing.T) {
	base := buildLineFeed(t)
	rr := raptor.New(nil)
	q := appconf.Resolve(nil, appconf.QueryOptions{}, appconf.LoadDefaults())
	tau := rr.Run(base, "A", 6*3600, q)

	best, found := raptor.FindBestK(tau, "C", q)
	require.True(t, found)

	steps, err := TraceRoute(base, tau, best.K, "C")
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, "A", steps[0].FromStopID)
	assert.Equal(t, "C", steps[0].ToStopID)
	assert.Equal(t, 6*3600, steps[0].DepartTime)
	assert.Equal(t, 6*3600+600, steps[0].ArriveTime)
	assert.Equal(t, 1, steps[0].NumStops)
}
