package feed

import (
	"archive/zip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// requiredFiles are the GTFS tables without which a feed cannot be routed.
// Everything else is optional and treated as empty if absent.
var requiredFiles = []string{"stops.txt", "stop_times.txt"}

// Load reads a single GTFS feed from either a directory or a .zip archive
// and derives Feed.Name from the base name of path, for use as Merge's
// rename prefix.
func Load(path string) (*Feed, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat gtfs feed %q: %w", path, err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var f *Feed
	if info.IsDir() {
		f, err = loadFromFS(os.DirFS(path), name)
	} else {
		f, err = loadFromZip(path, name)
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// LoadAll loads each of paths with Load and returns the slice in order,
// for callers that will Merge them themselves.
func LoadAll(paths []string) ([]*Feed, error) {
	feeds := make([]*Feed, 0, len(paths))
	for _, p := range paths {
		f, err := Load(p)
		if err != nil {
			return nil, err
		}
		feeds = append(feeds, f)
	}
	return feeds, nil
}

func loadFromZip(path, name string) (*Feed, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open gtfs zip %q: %w", path, err)
	}
	defer r.Close()
	return loadFromFS(r, name)
}

func loadFromFS(fsys fs.FS, name string) (*Feed, error) {
	for _, fn := range requiredFiles {
		if _, err := fs.Stat(fsys, fn); err != nil {
			return nil, fmt.Errorf("gtfs feed %q missing required file %s", name, fn)
		}
	}

	f := &Feed{Name: name}

	stops, err := readStops(fsys, name)
	if err != nil {
		return nil, err
	}
	f.Stops = stops

	stopTimes, err := readStopTimes(fsys)
	if err != nil {
		return nil, err
	}
	f.StopTimes = stopTimes

	f.Trips, err = readTrips(fsys)
	if err != nil {
		return nil, err
	}
	f.Routes, err = readRoutes(fsys)
	if err != nil {
		return nil, err
	}
	f.Calendars, err = readCalendars(fsys)
	if err != nil {
		return nil, err
	}
	f.CalendarDates, err = readCalendarDates(fsys)
	if err != nil {
		return nil, err
	}
	f.Shapes, err = readShapes(fsys)
	if err != nil {
		return nil, err
	}
	f.Transfers, err = readTransfers(fsys)
	if err != nil {
		return nil, err
	}

	return f, nil
}

// csvTable is a GTFS file opened for reading, with column lookups by name
// so that a record shorter than the header (a trailing-column omission some
// producers emit) degrades to "" rather than panicking.
type csvTable struct {
	col map[string]int
}

func (t *csvTable) get(row []string, name string) string {
	i, ok := t.col[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// openTable opens name within fsys, returning (nil, nil, false, nil) if the
// file doesn't exist, since most GTFS tables are optional.
func openTable(fsys fs.FS, name string) (*csv.Reader, io.Closer, bool, error) {
	fh, err := fsys.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, false, nil
		}
		return nil, nil, false, fmt.Errorf("open %s: %w", name, err)
	}
	r := csv.NewReader(fh)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	return r, fh, true, nil
}

func readHeader(r *csv.Reader) (*csvTable, error) {
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	return &csvTable{col: col}, nil
}

func readStops(fsys fs.FS, feedName string) ([]Stop, error) {
	r, closer, ok, err := openTable(fsys, "stops.txt")
	if err != nil || !ok {
		return nil, err
	}
	defer closer.Close()
	t, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	var out []Stop
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("stops.txt: %w", err)
		}
		lat, err := strconv.ParseFloat(t.get(row, "stop_lat"), 64)
		if err != nil {
			return nil, fmt.Errorf("stops.txt: stop_id %q: bad stop_lat: %w", t.get(row, "stop_id"), err)
		}
		lng, err := strconv.ParseFloat(t.get(row, "stop_lon"), 64)
		if err != nil {
			return nil, fmt.Errorf("stops.txt: stop_id %q: bad stop_lon: %w", t.get(row, "stop_id"), err)
		}
		out = append(out, Stop{
			StopID:        t.get(row, "stop_id"),
			StopName:      t.get(row, "stop_name"),
			StopDesc:      t.get(row, "stop_desc"),
			Lat:           lat,
			Lng:           lng,
			ParentStation: t.get(row, "parent_station"),
			FeedName:      feedName,
		})
	}
	return out, nil
}

func readStopTimes(fsys fs.FS) ([]StopTime, error) {
	r, closer, ok, err := openTable(fsys, "stop_times.txt")
	if err != nil || !ok {
		return nil, err
	}
	defer closer.Close()
	t, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	var out []StopTime
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("stop_times.txt: %w", err)
		}
		seq, err := strconv.Atoi(t.get(row, "stop_sequence"))
		if err != nil {
			return nil, fmt.Errorf("stop_times.txt: trip %q: bad stop_sequence: %w", t.get(row, "trip_id"), err)
		}
		dep := t.get(row, "departure_time")
		tod, err := ParseClockTime(dep)
		if err != nil {
			return nil, fmt.Errorf("stop_times.txt: trip %q seq %d: %w", t.get(row, "trip_id"), seq, err)
		}
		out = append(out, StopTime{
			TripID:        t.get(row, "trip_id"),
			StopID:        t.get(row, "stop_id"),
			StopSequence:  seq,
			ArrivalTime:   t.get(row, "arrival_time"),
			DepartureTime: dep,
			TimeOfDaySec:  tod,
		})
	}
	return out, nil
}

func readTrips(fsys fs.FS) ([]Trip, error) {
	r, closer, ok, err := openTable(fsys, "trips.txt")
	if err != nil || !ok {
		return nil, err
	}
	defer closer.Close()
	t, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	var out []Trip
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("trips.txt: %w", err)
		}
		dir, _ := strconv.Atoi(t.get(row, "direction_id"))
		out = append(out, Trip{
			TripID:      t.get(row, "trip_id"),
			RouteID:     t.get(row, "route_id"),
			ServiceID:   t.get(row, "service_id"),
			DirectionID: dir,
			ShapeID:     t.get(row, "shape_id"),
			Headsign:    t.get(row, "trip_headsign"),
			ShortName:   t.get(row, "trip_short_name"),
			BlockID:     t.get(row, "block_id"),
		})
	}
	return out, nil
}

func readRoutes(fsys fs.FS) ([]Route, error) {
	r, closer, ok, err := openTable(fsys, "routes.txt")
	if err != nil || !ok {
		return nil, err
	}
	defer closer.Close()
	t, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	var out []Route
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("routes.txt: %w", err)
		}
		rt, _ := strconv.Atoi(t.get(row, "route_type"))
		out = append(out, Route{
			RouteID:   t.get(row, "route_id"),
			RouteType: gtfsRouteType(rt),
			ShortName: t.get(row, "route_short_name"),
			LongName:  t.get(row, "route_long_name"),
			Color:     t.get(row, "route_color"),
			TextColor: t.get(row, "route_text_color"),
		})
	}
	return out, nil
}

// gtfsRouteType maps the GTFS spec's route_type integers onto RouteType.
// Values outside the known set fall back to Bus, matching this router's
// treatment of unrecognized modes as the common case.
func gtfsRouteType(v int) RouteType {
	switch v {
	case 0:
		return LightRail
	case 1:
		return Subway
	case 2:
		return Rail
	case 3:
		return Bus
	case 4:
		return Ferry
	case 5:
		return CableCar
	case 6:
		return Gondola
	case 7:
		return Funicular
	default:
		return Bus
	}
}

func readCalendars(fsys fs.FS) ([]Calendar, error) {
	r, closer, ok, err := openTable(fsys, "calendar.txt")
	if err != nil || !ok {
		return nil, err
	}
	defer closer.Close()
	t, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	days := []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

	var out []Calendar
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("calendar.txt: %w", err)
		}
		var c Calendar
		c.ServiceID = t.get(row, "service_id")
		for i, d := range days {
			c.Weekdays[i] = t.get(row, d) == "1"
		}
		c.StartDate = t.get(row, "start_date")
		c.EndDate = t.get(row, "end_date")
		out = append(out, c)
	}
	return out, nil
}

func readCalendarDates(fsys fs.FS) ([]CalendarDate, error) {
	r, closer, ok, err := openTable(fsys, "calendar_dates.txt")
	if err != nil || !ok {
		return nil, err
	}
	defer closer.Close()
	t, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	var out []CalendarDate
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("calendar_dates.txt: %w", err)
		}
		et, err := strconv.Atoi(t.get(row, "exception_type"))
		if err != nil {
			return nil, fmt.Errorf("calendar_dates.txt: service %q: bad exception_type: %w", t.get(row, "service_id"), err)
		}
		out = append(out, CalendarDate{
			ServiceID:     t.get(row, "service_id"),
			Date:          t.get(row, "date"),
			ExceptionType: CalendarExceptionType(et),
		})
	}
	return out, nil
}

func readShapes(fsys fs.FS) ([]ShapePoint, error) {
	r, closer, ok, err := openTable(fsys, "shapes.txt")
	if err != nil || !ok {
		return nil, err
	}
	defer closer.Close()
	t, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	var out []ShapePoint
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("shapes.txt: %w", err)
		}
		lat, err := strconv.ParseFloat(t.get(row, "shape_pt_lat"), 64)
		if err != nil {
			return nil, fmt.Errorf("shapes.txt: shape %q: bad shape_pt_lat: %w", t.get(row, "shape_id"), err)
		}
		lng, err := strconv.ParseFloat(t.get(row, "shape_pt_lon"), 64)
		if err != nil {
			return nil, fmt.Errorf("shapes.txt: shape %q: bad shape_pt_lon: %w", t.get(row, "shape_id"), err)
		}
		seq, err := strconv.Atoi(t.get(row, "shape_pt_sequence"))
		if err != nil {
			return nil, fmt.Errorf("shapes.txt: shape %q: bad shape_pt_sequence: %w", t.get(row, "shape_id"), err)
		}
		out = append(out, ShapePoint{
			ShapeID:  t.get(row, "shape_id"),
			Sequence: seq,
			Lat:      lat,
			Lng:      lng,
		})
	}
	return out, nil
}

func readTransfers(fsys fs.FS) ([]Transfer, error) {
	r, closer, ok, err := openTable(fsys, "transfers.txt")
	if err != nil || !ok {
		return nil, err
	}
	defer closer.Close()
	t, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	var out []Transfer
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("transfers.txt: %w", err)
		}
		tt, err := strconv.Atoi(t.get(row, "transfer_type"))
		if err != nil {
			return nil, fmt.Errorf("transfers.txt: bad transfer_type: %w", err)
		}
		tr := Transfer{
			FromStopID: t.get(row, "from_stop_id"),
			ToStopID:   t.get(row, "to_stop_id"),
			Type:       TransferType(tt),
		}
		if mt := t.get(row, "min_transfer_time"); mt != "" {
			secs, err := strconv.Atoi(mt)
			if err != nil {
				return nil, fmt.Errorf("transfers.txt: bad min_transfer_time: %w", err)
			}
			tr.MinTransferTime = secs
			tr.HasMinTime = true
		}
		out = append(out, tr)
	}
	return out, nil
}
