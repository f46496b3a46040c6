package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"transitrouter.dev/raptor/internal/online"
)

// readLocationsCSV reads a locations file with an `id,latitude,longitude`
// header, in the same header-then-rows shape as the GTFS table
// reader in internal/feed/load.go.
func readLocationsCSV(path string) ([]online.Location, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening locations file %q: %w", path, err)
	}
	defer fh.Close()

	r := csv.NewReader(fh)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("locations file %q: read header: %w", path, err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	get := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var locations []online.Location
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("locations file %q: %w", path, err)
		}

		id := get(row, "id")
		lat, err := strconv.ParseFloat(get(row, "latitude"), 64)
		if err != nil {
			return nil, fmt.Errorf("locations file %q: id %q: invalid latitude: %w", path, id, err)
		}
		lng, err := strconv.ParseFloat(get(row, "longitude"), 64)
		if err != nil {
			return nil, fmt.Errorf("locations file %q: id %q: invalid longitude: %w", path, id, err)
		}
		locations = append(locations, online.Location{ID: id, Lat: lat, Lng: lng})
	}
	return locations, nil
}

// findLocation returns the location named id from a locations slice, or an
// error if no row matches.
func findLocation(locations []online.Location, id string) (online.Location, error) {
	for _, loc := range locations {
		if loc.ID == id {
			return loc, nil
		}
	}
	return online.Location{}, fmt.Errorf("location id %q not found", id)
}
