package main

import (
	"flag"
	"fmt"
	"os"

	"transitrouter.dev/raptor/internal/appconf"
	"transitrouter.dev/raptor/internal/feed"
)

// runStopToStop implements `router stop-to-stop originStopId HH:MM:SS
// destStopId`: routes between two existing GTFS stops, no augmentation
// needed.
func runStopToStop(args []string) error {
	fs := flag.NewFlagSet("stop-to-stop", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to the router config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if *configPath == "" || len(rest) != 3 {
		return fmt.Errorf("usage: router stop-to-stop -config=FILE originStopId HH:MM:SS destStopId")
	}

	originStopID, depArg, destStopID := rest[0], rest[1], rest[2]
	depSecs, err := feed.ParseClockTime(depArg)
	if err != nil {
		return err
	}

	b, err := loadBase(*configPath)
	if err != nil {
		return err
	}

	it, err := b.router.StopToStop(originStopID, destStopID, depSecs, appconf.QueryOptions{})
	if err != nil {
		return err
	}
	return printItinerary(os.Stdout, it)
}
