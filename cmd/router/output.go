package main

import (
	"encoding/json"
	"io"
)

// printItinerary writes it as indented JSON, the CLI's one output format
// for every subcommand except all-pairs, which emits CSV.
func printItinerary(w io.Writer, it any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(it)
}
