package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"math"
	"os"
	"sort"

	"transitrouter.dev/raptor/internal/appconf"
	"transitrouter.dev/raptor/internal/feed"
)

// runAllPairs implements `router all-pairs locations.csv HH:MM:SS`: routes
// every location to every other, emitting `origin,destination,seconds` rows
// and omitting identity pairs and unreachable destinations.
func runAllPairs(args []string) error {
	fs := flag.NewFlagSet("all-pairs", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to the router config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if *configPath == "" || len(rest) != 2 {
		return fmt.Errorf("usage: router all-pairs -config=FILE locations.csv HH:MM:SS")
	}

	locations, err := readLocationsCSV(rest[0])
	if err != nil {
		return err
	}
	depSecs, err := feed.ParseClockTime(rest[1])
	if err != nil {
		return err
	}

	b, err := loadBase(*configPath)
	if err != nil {
		return err
	}

	results, err := b.router.ManyToMany(locations, locations, depSecs, appconf.QueryOptions{})
	if err != nil {
		return err
	}

	ids := make([]string, len(locations))
	for i, loc := range locations {
		ids[i] = loc.ID
	}
	sort.Strings(ids)

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	for _, origin := range ids {
		perDest := results[origin]
		for _, dest := range ids {
			if dest == origin {
				continue
			}
			it, ok := perDest[dest]
			if !ok {
				continue
			}
			row := []string{origin, dest, fmt.Sprintf("%d", int(math.Round(it.TotalCostSecs)))}
			if err := w.Write(row); err != nil {
				return fmt.Errorf("writing csv row: %w", err)
			}
		}
	}
	return nil
}
