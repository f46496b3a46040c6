// Command router is the CLI entrypoint for the transit journey planner:
// five subcommands over a GTFS feed loaded from a config file, plus a
// serve subcommand exposing the same router over HTTP.
package main

import (
	"fmt"
	"os"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 1 {
		printUsage(os.Stderr)
		return 2
	}

	cmd, rest := args[0], args[1:]

	var err error
	switch cmd {
	case "one-to-one":
		err = runOneToOne(rest)
	case "one-to-many":
		err = runOneToMany(rest)
	case "stop-to-stop":
		err = runStopToStop(rest)
	case "all-pairs":
		err = runAllPairs(rest)
	case "one-to-one-location":
		err = runOneToOneLocation(rest)
	case "serve":
		err = runServe(rest)
	case "-h", "--help", "help":
		printUsage(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "router: unknown subcommand %q\n", cmd)
		printUsage(os.Stderr)
		return 2
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "router: %v\n", err)
		return 1
	}
	return 0
}

func printUsage(w *os.File) {
	fmt.Fprintln(w, `usage: router <subcommand> [flags] <args>

subcommands:
  one-to-one -config=FILE lat1 lng1 HH:MM:SS lat2 lng2
  one-to-many -config=FILE lat lng HH:MM:SS locations.csv
  stop-to-stop -config=FILE originStopId HH:MM:SS destStopId
  all-pairs -config=FILE locations.csv HH:MM:SS
  one-to-one-location -config=FILE locations.csv originId HH:MM:SS destId
  serve -config=FILE [-addr=:8080]`)
}
