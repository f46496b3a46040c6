package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge_NoFeedsReturnsEmpty(t *testing.T) {
	out, err := Merge()
	require.NoError(t, err)
	assert.Empty(t, out.Stops)
}

func TestMerge_SingleFeedReturnedUnchanged(t *testing.T) {
	f := &Feed{Name: "agency-a", Stops: []Stop{{StopID: "A", Lat: 1, Lng: 1}}}
	out, err := Merge(f)
	require.NoError(t, err)
	assert.Same(t, f, out)
}

func TestMerge_CollapsesIdenticalStopAcrossFeeds(t *testing.T) {
	a := &Feed{Name: "a", Stops: []Stop{{StopID: "SHARED", Lat: 1, Lng: 1}}}
	b := &Feed{Name: "b", Stops: []Stop{{StopID: "SHARED", Lat: 1, Lng: 1}}}

	out, err := Merge(a, b)
	require.NoError(t, err)

	var shared []Stop
	for _, s := range out.Stops {
		if s.StopID == "SHARED" {
			shared = append(shared, s)
		}
	}
	assert.Len(t, shared, 1)
}

func TestMerge_RenamesConflictingStopIDs(t *testing.T) {
	a := &Feed{
		Name:      "a",
		Stops:     []Stop{{StopID: "X", Lat: 1, Lng: 1}},
		StopTimes: []StopTime{{TripID: "T1", StopID: "X", StopSequence: 1}},
	}
	b := &Feed{
		Name:      "b",
		Stops:     []Stop{{StopID: "X", Lat: 99, Lng: 99}},
		StopTimes: []StopTime{{TripID: "T2", StopID: "X", StopSequence: 1}},
	}

	out, err := Merge(a, b)
	require.NoError(t, err)

	byID := make(map[string]Stop)
	for _, s := range out.Stops {
		byID[s.StopID] = s
	}
	assert.Contains(t, byID, "a_X")
	assert.Contains(t, byID, "b_X")
	assert.NotContains(t, byID, "X")

	var stopIDsForStopTimes []string
	for _, st := range out.StopTimes {
		stopIDsForStopTimes = append(stopIDsForStopTimes, st.StopID)
	}
	assert.ElementsMatch(t, []string{"a_X", "b_X"}, stopIDsForStopTimes)
}

func TestMerge_RenamesParentStationReference(t *testing.T) {
	a := &Feed{
		Name: "a",
		Stops: []Stop{
			{StopID: "P", Lat: 1, Lng: 1},
			{StopID: "child", ParentStation: "P", Lat: 1.001, Lng: 1},
		},
	}
	b := &Feed{
		Name:  "b",
		Stops: []Stop{{StopID: "P", Lat: 99, Lng: 99}},
	}

	out, err := Merge(a, b)
	require.NoError(t, err)

	byID := make(map[string]Stop)
	for _, s := range out.Stops {
		byID[s.StopID] = s
	}
	require.Contains(t, byID, "child")
	assert.Equal(t, "a_P", byID["child"].ParentStation)
}

func TestMerge_ConcatenatesOtherEntityKinds(t *testing.T) {
	a := &Feed{Name: "a", Trips: []Trip{{TripID: "T1"}}, Routes: []Route{{RouteID: "R1"}}}
	b := &Feed{Name: "b", Trips: []Trip{{TripID: "T2"}}, Routes: []Route{{RouteID: "R2"}}}

	out, err := Merge(a, b)
	require.NoError(t, err)
	assert.Len(t, out.Trips, 2)
	assert.Len(t, out.Routes, 2)
}
