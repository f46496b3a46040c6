package feed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGTFSDir(t *testing.T, name string, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.MkdirAll(dir, 0755))
	for fn, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, fn), []byte(content), 0644))
	}
	return dir
}

func minimalFeedFiles() map[string]string {
	return map[string]string{
		"stops.txt":      "stop_id,stop_name,stop_lat,stop_lon\nA,Stop A,0,0\nB,Stop B,0.01,0\n",
		"stop_times.txt": "trip_id,stop_id,stop_sequence,arrival_time,departure_time\nT1,A,1,06:00:00,06:00:00\nT1,B,2,06:05:00,06:05:00\n",
		"trips.txt":      "trip_id,route_id,service_id,direction_id\nT1,R1,S1,0\n",
		"routes.txt":     "route_id,route_type,route_short_name\nR1,3,1\n",
		"calendar.txt":   "service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date\nS1,1,1,1,1,1,0,0,20240101,20241231\n",
	}
}

func TestLoad_ReadsDirectoryFeed(t *testing.T) {
	dir := writeGTFSDir(t, "agency", minimalFeedFiles())

	f, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "agency", f.Name)
	require.Len(t, f.Stops, 2)
	require.Len(t, f.StopTimes, 2)
	require.Len(t, f.Trips, 1)
	require.Len(t, f.Routes, 1)
	require.Len(t, f.Calendars, 1)

	assert.Equal(t, 6*3600, f.StopTimes[0].TimeOfDaySec)
	assert.Equal(t, Bus, f.Routes[0].RouteType)
	assert.True(t, f.Calendars[0].Weekdays[0])
	assert.False(t, f.Calendars[0].Weekdays[5])
}

func TestLoad_MissingRequiredFileErrors(t *testing.T) {
	files := minimalFeedFiles()
	delete(files, "stop_times.txt")
	dir := writeGTFSDir(t, "agency", files)

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestLoad_OptionalFilesDefaultEmpty(t *testing.T) {
	dir := writeGTFSDir(t, "agency", minimalFeedFiles())

	f, err := Load(dir)
	require.NoError(t, err)
	assert.Empty(t, f.Shapes)
	assert.Empty(t, f.Transfers)
	assert.Empty(t, f.CalendarDates)
}

func TestLoad_NonexistentPathErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Error(t, err)
}

func TestLoadAll_LoadsEveryPathInOrder(t *testing.T) {
	dirA := writeGTFSDir(t, "a", minimalFeedFiles())
	dirB := writeGTFSDir(t, "b", minimalFeedFiles())

	feeds, err := LoadAll([]string{dirA, dirB})
	require.NoError(t, err)
	require.Len(t, feeds, 2)
	assert.Equal(t, "a", feeds[0].Name)
	assert.Equal(t, "b", feeds[1].Name)
}
