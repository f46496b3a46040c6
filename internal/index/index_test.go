package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transitrouter.dev/raptor/internal/appconf"
	"transitrouter.dev/raptor/internal/feed"
)

func sampleFeed() *feed.Feed {
	return &feed.Feed{
		Stops: []feed.Stop{
			{StopID: "PARENT", StopName: "Union Station"},
			{StopID: "PLATFORM_1", StopName: "Platform 1", ParentStation: "PARENT", Lat: 0, Lng: 0},
			{StopID: "PLATFORM_2", StopName: "Platform 2", ParentStation: "PARENT", Lat: 0.0001, Lng: 0.0001},
			{StopID: "FAR", StopName: "Far stop", Lat: 5, Lng: 5},
		},
		Routes: []feed.Route{{RouteID: "R1", RouteType: feed.Bus}},
		Trips:  []feed.Trip{{TripID: "T1", RouteID: "R1", ServiceID: "S1"}},
		StopTimes: []feed.StopTime{
			{TripID: "T1", StopID: "PLATFORM_1", StopSequence: 1, DepartureTime: "08:00:00", TimeOfDaySec: 8 * 3600},
			{TripID: "T1", StopID: "PLATFORM_2", StopSequence: 2, DepartureTime: "08:05:00", TimeOfDaySec: 8*3600 + 300},
		},
	}
}

func TestBuild_IntraStationTransfersAreFreeAndSymmetric(t *testing.T) {
	idx, err := Build(sampleFeed(), appconf.LoadDefaults(), nil)
	require.NoError(t, err)

	toParent := findTransfer(idx.WalkingTransfers["PLATFORM_1"], "PARENT")
	require.NotNil(t, toParent)
	assert.True(t, toParent.HasSecs)
	assert.Equal(t, 0, toParent.Secs)

	toSibling := findTransfer(idx.WalkingTransfers["PLATFORM_1"], "PLATFORM_2")
	require.NotNil(t, toSibling)
	assert.Equal(t, 0, toSibling.Secs)

	backSibling := findTransfer(idx.WalkingTransfers["PLATFORM_2"], "PLATFORM_1")
	require.NotNil(t, backSibling, "sibling transfers must be symmetric")
}

func TestBuild_WalkingTransfersHaveNoSelfLoopsOrDuplicates(t *testing.T) {
	idx, err := Build(sampleFeed(), appconf.LoadDefaults(), nil)
	require.NoError(t, err)

	for from, edges := range idx.WalkingTransfers {
		seen := make(map[string]bool)
		for _, e := range edges {
			assert.NotEqual(t, from, e.ToStopID, "no self-loops")
			assert.False(t, seen[e.ToStopID], "no duplicate destinations for a given origin")
			seen[e.ToStopID] = true
		}
	}
}

func TestBuild_ExplicitMinTimeAppliesToChildPairs(t *testing.T) {
	f := sampleFeed()
	f.Stops = append(f.Stops,
		feed.Stop{StopID: "OTHER_PARENT", StopName: "Other Station"},
		feed.Stop{StopID: "OTHER_CHILD", StopName: "Other Child", ParentStation: "OTHER_PARENT", Lat: 0, Lng: 0},
	)
	f.Transfers = []feed.Transfer{
		{FromStopID: "PARENT", ToStopID: "OTHER_PARENT", Type: feed.MinTime, MinTransferTime: 120, HasMinTime: true},
	}

	idx, err := Build(f, appconf.LoadDefaults(), nil)
	require.NoError(t, err)

	edge := findTransfer(idx.WalkingTransfers["PLATFORM_1"], "OTHER_CHILD")
	require.NotNil(t, edge, "explicit MIN_TIME transfer must apply to child-of-from x child-of-to pairs")
	assert.Equal(t, 120, edge.Secs)
}

func TestBuild_ProximityDefersToFeedDeclaredTransfers(t *testing.T) {
	f := &feed.Feed{
		Stops: []feed.Stop{
			{StopID: "X", StopName: "X", Lat: 0, Lng: 0, FeedName: "f1"},
			{StopID: "Y", StopName: "Y", Lat: 0.001, Lng: 0, FeedName: "f1"},
		},
		Routes: []feed.Route{
			{RouteID: "R1", RouteType: feed.Bus},
			{RouteID: "R2", RouteType: feed.Bus},
		},
		Trips: []feed.Trip{
			{TripID: "T1", RouteID: "R1", ServiceID: "S1"},
			{TripID: "T2", RouteID: "R2", ServiceID: "S1"},
		},
		StopTimes: []feed.StopTime{
			{TripID: "T1", StopID: "X", StopSequence: 1, DepartureTime: "08:00:00", TimeOfDaySec: 8 * 3600},
			{TripID: "T2", StopID: "Y", StopSequence: 1, DepartureTime: "08:00:00", TimeOfDaySec: 8 * 3600},
		},
	}

	idx, err := Build(f, appconf.LoadDefaults(), nil)
	require.NoError(t, err)
	require.NotNil(t, findTransfer(idx.WalkingTransfers["X"], "Y"),
		"nearby served stops on different routes get a proximity footpath")

	f.Transfers = []feed.Transfer{
		{FromStopID: "X", ToStopID: "Y", Type: feed.Recommended},
	}
	idx, err = Build(f, appconf.LoadDefaults(), nil)
	require.NoError(t, err)
	assert.Nil(t, findTransfer(idx.WalkingTransfers["X"], "Y"),
		"a feed that declares its own transfers is trusted; no proximity footpaths within it")
}

func TestBuild_ProximityFootpathRejectsDistantStops(t *testing.T) {
	idx, err := Build(sampleFeed(), appconf.LoadDefaults(), nil)
	require.NoError(t, err)

	// FAR has no stop-times at all, so it never enters the served-stops
	// proximity pass in the first place.
	assert.Empty(t, idx.WalkingTransfers["FAR"])
}

func findTransfer(edges []WalkingTransfer, to string) *WalkingTransfer {
	for i := range edges {
		if edges[i].ToStopID == to {
			return &edges[i]
		}
	}
	return nil
}
