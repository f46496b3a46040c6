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

// runOneToOne implements `router one-to-one lat1 lng1 HH:MM:SS lat2 lng2`:
// routes between two arbitrary coordinates.
func runOneToOne(args []string) error {
	fs := flag.NewFlagSet("one-to-one", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to the router config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if *configPath == "" || len(rest) != 5 {
		return fmt.Errorf("usage: router one-to-one -config=FILE lat1 lng1 HH:MM:SS lat2 lng2")
	}

	lat1, err := strconv.ParseFloat(rest[0], 64)
	if err != nil {
		return fmt.Errorf("invalid lat1 %q: %w", rest[0], err)
	}
	lng1, err := strconv.ParseFloat(rest[1], 64)
	if err != nil {
		return fmt.Errorf("invalid lng1 %q: %w", rest[1], err)
	}
	depSecs, err := feed.ParseClockTime(rest[2])
	if err != nil {
		return err
	}
	lat2, err := strconv.ParseFloat(rest[3], 64)
	if err != nil {
		return fmt.Errorf("invalid lat2 %q: %w", rest[3], err)
	}
	lng2, err := strconv.ParseFloat(rest[4], 64)
	if err != nil {
		return fmt.Errorf("invalid lng2 %q: %w", rest[4], err)
	}

	b, err := loadBase(*configPath)
	if err != nil {
		return err
	}

	origin := online.Location{ID: "origin", Lat: lat1, Lng: lng1}
	destination := online.Location{ID: "destination", Lat: lat2, Lng: lng2}

	it, err := b.router.OneToOne(origin, destination, depSecs, appconf.QueryOptions{})
	if err != nil {
		return err
	}
	return printItinerary(os.Stdout, it)
}
