package online

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"transitrouter.dev/raptor/internal/appconf"
	"transitrouter.dev/raptor/internal/index"
	"transitrouter.dev/raptor/internal/logging"
	"transitrouter.dev/raptor/internal/metrics"
	"transitrouter.dev/raptor/internal/raptor"
	"transitrouter.dev/raptor/internal/water"
)

// Router is the query-time entry point: it augments the base feed with
// ephemeral locations, runs raptor.Router against the result and
// reconstructs the winning itinerary.
type Router struct {
	base        *index.IndexedFeed
	waterFilter *water.Filter
	load        appconf.LoadOptions
	raptorRtr   *raptor.Router
	logger      *slog.Logger
	metrics     *metrics.Metrics
	presets     *Presets
}

// New returns a Router over base. waterFilter may be nil. load supplies
// the feed-level query-option overrides and the max_allowable_* ceilings
// every query's options are clamped to.
func New(base *index.IndexedFeed, waterFilter *water.Filter, load appconf.LoadOptions, logger *slog.Logger, m *metrics.Metrics) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "online"))
	r := &Router{
		base:        base,
		waterFilter: waterFilter,
		load:        load,
		raptorRtr:   &raptor.Router{Logger: logger, Metrics: m},
		logger:      logger,
		metrics:     m,
	}
	r.presets = newPresets(r)
	return r
}

// ErrUnreachable marks a destination no round of the query reached. It is
// the one "expected" failure of a query: callers report a null
// route or infinite travel time rather than treating it as a fault.
var ErrUnreachable = errors.New("destination unreachable")

// Itinerary is the caller-facing result of a query: the winning
// round's summary plus the reconstructed step list.
type Itinerary struct {
	ArrivalTimeSec int
	TotalCostSecs  float64
	NumTransfers   int
	Steps          []Step
}

// StopToStop routes between two existing stop ids with no augmentation.
func (r *Router) StopToStop(fromStopID, toStopID string, depSecs int, opts appconf.QueryOptions) (Itinerary, error) {
	defer r.observe("stop_to_stop", time.Now())
	q := r.resolve(opts)
	tau := r.raptorRtr.Run(r.base, fromStopID, depSecs, q)
	return r.finish(r.base, tau, fromStopID, toStopID, q)
}

// OneToOne routes from an arbitrary coordinate to another arbitrary
// coordinate, augmenting both as ephemeral stops.
func (r *Router) OneToOne(origin, destination Location, depSecs int, opts appconf.QueryOptions) (Itinerary, error) {
	defer r.observe("one_to_one", time.Now())
	q := r.resolve(opts)
	aug, err := Augment(r.base, &origin, []Location{destination}, q.MaxWalkingDistanceKm, r.waterFilter)
	if err != nil {
		return Itinerary{}, err
	}
	feed := aug.IndexedFeed()
	tau := r.raptorRtr.Run(feed, origin.ID, depSecs, q)
	return r.finish(feed, tau, origin.ID, destination.ID, q)
}

// OneToMany routes from one coordinate to several candidate destinations,
// returning the itinerary to each reachable one, keyed by destination id.
func (r *Router) OneToMany(origin Location, destinations []Location, depSecs int, opts appconf.QueryOptions) (map[string]Itinerary, error) {
	defer r.observe("one_to_many", time.Now())
	q := r.resolve(opts)
	aug, err := Augment(r.base, &origin, destinations, q.MaxWalkingDistanceKm, r.waterFilter)
	if err != nil {
		return nil, err
	}
	feed := aug.IndexedFeed()
	tau := r.raptorRtr.Run(feed, origin.ID, depSecs, q)

	results := make(map[string]Itinerary, len(destinations))
	for _, dest := range destinations {
		it, err := r.finish(feed, tau, origin.ID, dest.ID, q)
		if errors.Is(err, ErrUnreachable) {
			continue // omitted from the result rather than erroring the whole query
		}
		if err != nil {
			return nil, err
		}
		results[dest.ID] = it
	}
	return results, nil
}

// OneToManyPreset routes from one coordinate to a cached preset destination
// set built once and reused across queries.
func (r *Router) OneToManyPreset(origin Location, presetName string, depSecs int, opts appconf.QueryOptions) (map[string]Itinerary, error) {
	defer r.observe("one_to_many_preset", time.Now())
	q := r.resolve(opts)
	aug, err := r.presets.augmentFor(presetName, origin, q.MaxWalkingDistanceKm)
	if err != nil {
		return nil, err
	}
	feed := aug.IndexedFeed()
	tau := r.raptorRtr.Run(feed, origin.ID, depSecs, q)

	dests := r.presets.named[presetName].destinations
	results := make(map[string]Itinerary, len(dests))
	for _, dest := range dests {
		it, err := r.finish(feed, tau, origin.ID, dest.ID, q)
		if errors.Is(err, ErrUnreachable) {
			continue
		}
		if err != nil {
			return nil, err
		}
		results[dest.ID] = it
	}
	return results, nil
}

// ManyToMany routes every origin to every destination, each
// origin query augmented with the full destination set.
func (r *Router) ManyToMany(origins, destinations []Location, depSecs int, opts appconf.QueryOptions) (map[string]map[string]Itinerary, error) {
	results := make(map[string]map[string]Itinerary, len(origins))
	for _, origin := range origins {
		perDest, err := r.OneToMany(origin, destinations, depSecs, opts)
		if err != nil {
			return nil, fmt.Errorf("many-to-many from %q: %w", origin.ID, err)
		}
		results[origin.ID] = perDest
	}
	return results, nil
}

// Presets exposes the router's named preset destination sets, so a config
// loader can Register them before any query runs.
func (r *Router) Presets() *Presets {
	return r.presets
}

func (r *Router) resolve(opts appconf.QueryOptions) appconf.Query {
	return appconf.Resolve(r.load.FeedOptions, opts, r.load)
}

// observe records one completed query against the per-endpoint counter and
// latency histogram. Meant for defer: the time.Now() argument is evaluated
// at call setup, so the deferred call sees the full query duration.
func (r *Router) observe(endpoint string, start time.Time) {
	if r.metrics == nil {
		return
	}
	r.metrics.QueriesTotal.WithLabelValues(endpoint).Inc()
	r.metrics.QueryDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

func (r *Router) finish(feed *index.IndexedFeed, tau raptor.Tau, fromStopID, toStopID string, q appconf.Query) (Itinerary, error) {
	best, found := raptor.FindBestK(tau, toStopID, q)
	if !found {
		if r.metrics != nil {
			r.metrics.UnreachableDest.WithLabelValues("query").Inc()
		}
		return Itinerary{}, fmt.Errorf("destination %q from %q: %w", toStopID, fromStopID, ErrUnreachable)
	}

	steps, err := TraceRoute(feed, tau, best.K, toStopID)
	if err != nil {
		return Itinerary{}, err
	}
	if r.logger != nil {
		logging.LogOperation(r.logger, "query_completed",
			slog.String("from_stop_id", fromStopID),
			slog.String("to_stop_id", toStopID),
			slog.Int("num_transfers", best.Transfers),
			slog.Int("num_steps", len(steps)))
	}
	return Itinerary{
		ArrivalTimeSec: best.Info.TimeOfDaySec,
		TotalCostSecs:  best.Info.Cost,
		NumTransfers:   best.Transfers,
		Steps:          steps,
	}, nil
}
