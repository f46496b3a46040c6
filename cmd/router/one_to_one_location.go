package main

import (
	"flag"
	"fmt"
	"os"

	"transitrouter.dev/raptor/internal/appconf"
	"transitrouter.dev/raptor/internal/feed"
)

// runOneToOneLocation implements `router one-to-one-location locations.csv
// originId HH:MM:SS destId`: looks origin and destination up by id in
// locations.csv, then routes between them.
func runOneToOneLocation(args []string) error {
	fs := flag.NewFlagSet("one-to-one-location", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to the router config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if *configPath == "" || len(rest) != 4 {
		return fmt.Errorf("usage: router one-to-one-location -config=FILE locations.csv originId HH:MM:SS destId")
	}

	locations, err := readLocationsCSV(rest[0])
	if err != nil {
		return err
	}
	origin, err := findLocation(locations, rest[1])
	if err != nil {
		return err
	}
	depSecs, err := feed.ParseClockTime(rest[2])
	if err != nil {
		return err
	}
	destination, err := findLocation(locations, rest[3])
	if err != nil {
		return err
	}

	b, err := loadBase(*configPath)
	if err != nil {
		return err
	}

	it, err := b.router.OneToOne(origin, destination, depSecs, appconf.QueryOptions{})
	if err != nil {
		return err
	}
	return printItinerary(os.Stdout, it)
}
