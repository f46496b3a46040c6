package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"transitrouter.dev/raptor/internal/appconf"
	"transitrouter.dev/raptor/internal/feed"
	"transitrouter.dev/raptor/internal/index"
	"transitrouter.dev/raptor/internal/metrics"
	"transitrouter.dev/raptor/internal/online"
	"transitrouter.dev/raptor/internal/water"
)

// base bundles everything a query needs once the feed is loaded and indexed:
// the router, the load options that produced it (queries clamp against the
// load-time ceilings), and the process metrics the load step seeded.
type base struct {
	router  *online.Router
	load    appconf.LoadOptions
	metrics *metrics.Metrics
}

// loadBase reads the config file at configPath, loads and merges every GTFS
// feed it names, narrows to the configured departure date and time window,
// builds the spatial/walking-transfer index and, if configured, the
// water-barrier filter, then wraps it all in an online.Router. This is the
// one-time load step every cmd/router subcommand performs before routing.
func loadBase(configPath string) (*base, error) {
	loadStart := time.Now()

	opts, err := appconf.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config %q: %w", configPath, err)
	}

	feeds := make([]*feed.Feed, 0, len(opts.GTFSDataDirs))
	for _, dir := range opts.GTFSDataDirs {
		f, err := feed.Load(dir)
		if err != nil {
			return nil, fmt.Errorf("loading gtfs feed %q: %w", dir, err)
		}
		feeds = append(feeds, f)
	}

	merged, err := feed.Merge(feeds...)
	if err != nil {
		return nil, fmt.Errorf("merging gtfs feeds: %w", err)
	}

	if opts.DepartureDate != "" {
		merged, err = feed.FilterByDate(merged, opts.DepartureDate)
		if err != nil {
			return nil, fmt.Errorf("filtering feed by departure date %q: %w", opts.DepartureDate, err)
		}
	}

	if opts.StopTimeFilter != nil && opts.StopTimeFilter.Earliest != nil && opts.StopTimeFilter.Latest != nil {
		merged, err = feed.FilterTimeRange(merged, *opts.StopTimeFilter.Earliest, *opts.StopTimeFilter.Latest)
		if err != nil {
			return nil, fmt.Errorf("filtering feed by stop_time_filter: %w", err)
		}
	}

	var waterFilter *water.Filter
	if opts.WaterGeoJSONFile != "" {
		data, err := os.ReadFile(opts.WaterGeoJSONFile)
		if err != nil {
			return nil, fmt.Errorf("reading water_geojson_file %q: %w", opts.WaterGeoJSONFile, err)
		}
		waterFilter, err = water.NewFilterFromGeoJSON(data)
		if err != nil {
			return nil, fmt.Errorf("parsing water_geojson_file %q: %w", opts.WaterGeoJSONFile, err)
		}
	}

	idx, err := index.Build(merged, *opts, waterFilter)
	if err != nil {
		return nil, fmt.Errorf("building index: %w", err)
	}

	m := metrics.New()
	m.FeedLoadDuration.Observe(time.Since(loadStart).Seconds())
	m.IndexedStops.Set(float64(len(idx.StopIDToStop)))
	edges := 0
	for _, wts := range idx.WalkingTransfers {
		edges += len(wts)
	}
	m.WalkingTransferEdges.Set(float64(edges))

	logger := slog.Default().With(slog.String("component", "cmd/router"))
	router := online.New(idx, waterFilter, *opts, logger, m)

	for _, preset := range opts.PresetDestinations {
		dests, err := readLocationsCSV(preset.LocationsFile)
		if err != nil {
			return nil, fmt.Errorf("loading preset %q locations: %w", preset.Name, err)
		}
		if err := router.Presets().Register(preset.Name, dests, preset.MaxAllowableDestWalkKm); err != nil {
			return nil, fmt.Errorf("registering preset %q: %w", preset.Name, err)
		}
	}

	return &base{router: router, load: *opts, metrics: m}, nil
}
