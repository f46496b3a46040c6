package raptor

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transitrouter.dev/raptor/internal/appconf"
	"transitrouter.dev/raptor/internal/feed"
	"transitrouter.dev/raptor/internal/index"
)

// buildLineFeed constructs a single-route, single-direction trip over the
// given stops, departing stop i at baseSecs + i*legSecs.
func buildLineFeed(t *testing.T, stopIDs []string, baseSecs, legSecs int) *index.IndexedFeed {
	t.Helper()

	f := &feed.Feed{
		Routes: []feed.Route{{RouteID: "R1", RouteType: feed.Bus}},
		Trips:  []feed.Trip{{TripID: "T1", RouteID: "R1", ServiceID: "S1"}},
	}
	for i, id := range stopIDs {
		f.Stops = append(f.Stops, feed.Stop{StopID: id, StopName: id, Lat: float64(i) * 0.01, Lng: 0})
		secs := baseSecs + i*legSecs
		f.StopTimes = append(f.StopTimes, feed.StopTime{
			TripID:        "T1",
			StopID:        id,
			StopSequence:  i + 1,
			DepartureTime: feed.FormatClockTime(secs),
			ArrivalTime:   feed.FormatClockTime(secs),
			TimeOfDaySec:  secs,
		})
	}

	idx, err := index.Build(f, appconf.LoadDefaults(), nil)
	require.NoError(t, err)
	return idx
}

func TestRun_SimpleLine_ReachesDownstreamStops(t *testing.T) {
	idx := buildLineFeed(t, []string{"A", "B", "C", "D"}, 6*3600, 300)

	q := defaultQuery()
	r := New(nil)
	tau := r.Run(idx, "A", 6*3600, q)

	best, found := FindBestK(tau, "D", q)
	require.True(t, found)
	assert.Equal(t, 6*3600+900, best.Info.TimeOfDaySec)
	assert.Equal(t, 0, best.Transfers)
}

func TestRun_NoWormholes(t *testing.T) {
	idx := buildLineFeed(t, []string{"A", "B", "C", "D", "E"}, 8*3600, 240)
	q := defaultQuery()
	q.MaxNumberOfTransfers = 3

	r := New(nil)
	depSecs := 8 * 3600
	tau := r.Run(idx, "A", depSecs, q)

	const eps = 1e-9
	for _, round := range tau {
		for _, info := range round {
			assert.GreaterOrEqual(t, info.Cost, float64(info.TimeOfDaySec-depSecs)-eps,
				"cost must be at least the elapsed wall time (no wormholes): %s", spew.Sdump(info))
		}
	}
}

func TestRun_UnreachableDestination(t *testing.T) {
	idx := buildLineFeed(t, []string{"A", "B"}, 6*3600, 300)
	q := defaultQuery()

	r := New(nil)
	tau := r.Run(idx, "A", 6*3600, q)

	_, found := FindBestK(tau, "ZZZ", q)
	assert.False(t, found)
}

func TestRun_NegativeMultiplierExcludesMode(t *testing.T) {
	idx := buildLineFeed(t, []string{"A", "B"}, 6*3600, 300)
	q := defaultQuery()
	q.BusMultiplier = -1

	r := New(nil)
	tau := r.Run(idx, "A", 6*3600, q)

	_, found := FindBestK(tau, "B", q)
	assert.False(t, found, "negative bus_multiplier should exclude bus trips entirely")
}

func TestRun_WaitAddsCost(t *testing.T) {
	idx := buildLineFeed(t, []string{"A", "B"}, 6*3600, 300)
	q := defaultQuery()

	r := New(nil)
	// Depart 10 minutes before the trip's scheduled departure at A.
	tau := r.Run(idx, "A", 6*3600-600, q)

	best, found := FindBestK(tau, "B", q)
	require.True(t, found)
	assert.InDelta(t, 600+300, best.Info.Cost, 1e-6, "cost should include both the wait and the ride")
}

// buildBusRailFeed offers two competing trips from A to B: a 10-minute bus
// and a 15-minute train, both departing at 08:00.
func buildBusRailFeed(t *testing.T) *index.IndexedFeed {
	t.Helper()
	f := &feed.Feed{
		Stops: []feed.Stop{
			{StopID: "A", StopName: "A", Lat: 0, Lng: 0},
			{StopID: "B", StopName: "B", Lat: 0.1, Lng: 0},
		},
		Routes: []feed.Route{
			{RouteID: "BUS", RouteType: feed.Bus},
			{RouteID: "RAIL", RouteType: feed.Rail},
		},
		Trips: []feed.Trip{
			{TripID: "TBUS", RouteID: "BUS", ServiceID: "S1"},
			{TripID: "TRAIL", RouteID: "RAIL", ServiceID: "S1"},
		},
		StopTimes: []feed.StopTime{
			{TripID: "TBUS", StopID: "A", StopSequence: 1, DepartureTime: "08:00:00", TimeOfDaySec: 8 * 3600},
			{TripID: "TBUS", StopID: "B", StopSequence: 2, DepartureTime: "08:10:00", TimeOfDaySec: 8*3600 + 600},
			{TripID: "TRAIL", StopID: "A", StopSequence: 1, DepartureTime: "08:00:00", TimeOfDaySec: 8 * 3600},
			{TripID: "TRAIL", StopID: "B", StopSequence: 2, DepartureTime: "08:15:00", TimeOfDaySec: 8*3600 + 900},
		},
	}
	idx, err := index.Build(f, appconf.LoadDefaults(), nil)
	require.NoError(t, err)
	return idx
}

func TestRun_BusMultiplierSwitchesChoiceToRail(t *testing.T) {
	idx := buildBusRailFeed(t)
	r := New(nil)

	q := defaultQuery()
	tau := r.Run(idx, "A", 8*3600, q)
	best, found := FindBestK(tau, "B", q)
	require.True(t, found)
	assert.Equal(t, "TBUS", best.Info.TripID, "at equal multipliers the faster bus wins")

	// Above the 900/600 time ratio the weighted bus costs more than rail.
	q.BusMultiplier = 2
	tau = r.Run(idx, "A", 8*3600, q)
	best, found = FindBestK(tau, "B", q)
	require.True(t, found)
	assert.Equal(t, "TRAIL", best.Info.TripID)

	q.BusMultiplier = 1
	q.RailMultiplier = -1
	tau = r.Run(idx, "A", 8*3600, q)
	best, found = FindBestK(tau, "B", q)
	require.True(t, found)
	assert.Equal(t, "TBUS", best.Info.TripID, "a negative rail multiplier excludes rail entirely")
}

func TestAddConnection_KeepsCheaperEntry(t *testing.T) {
	round := ReachMap{}
	addConnection(round, "A", ReachInfo{Cost: 100})
	addConnection(round, "A", ReachInfo{Cost: 50})
	assert.Equal(t, 50.0, round["A"].Cost)

	addConnection(round, "A", ReachInfo{Cost: 200})
	assert.Equal(t, 50.0, round["A"].Cost, "a costlier candidate must never replace the cheaper entry")
}

func defaultQuery() appconf.Query {
	return appconf.Resolve(nil, appconf.QueryOptions{}, appconf.LoadDefaults())
}
