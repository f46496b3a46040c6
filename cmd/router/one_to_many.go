package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"transitrouter.dev/raptor/internal/appconf"
	"transitrouter.dev/raptor/internal/feed"
	"transitrouter.dev/raptor/internal/online"
)

// runOneToMany implements `router one-to-many lat lng HH:MM:SS
// locations.csv`: routes from one coordinate to every candidate destination
// in locations.csv, omitting unreachable ones.
func runOneToMany(args []string) error {
	fs := flag.NewFlagSet("one-to-many", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to the router config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if *configPath == "" || len(rest) != 4 {
		return fmt.Errorf("usage: router one-to-many -config=FILE lat lng HH:MM:SS locations.csv")
	}

	lat, err := strconv.ParseFloat(rest[0], 64)
	if err != nil {
		return fmt.Errorf("invalid lat %q: %w", rest[0], err)
	}
	lng, err := strconv.ParseFloat(rest[1], 64)
	if err != nil {
		return fmt.Errorf("invalid lng %q: %w", rest[1], err)
	}
	depSecs, err := feed.ParseClockTime(rest[2])
	if err != nil {
		return err
	}

	destinations, err := readLocationsCSV(rest[3])
	if err != nil {
		return err
	}

	b, err := loadBase(*configPath)
	if err != nil {
		return err
	}

	origin := online.Location{ID: "origin", Lat: lat, Lng: lng}

	results, err := b.router.OneToMany(origin, destinations, depSecs, appconf.QueryOptions{})
	if err != nil {
		return err
	}
	return printItinerary(os.Stdout, results)
}
