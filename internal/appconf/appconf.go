// Package appconf holds the router's load-time and query-time configuration
// types, their JSON/YAML loading, and the default-merge/clamp logic that
// turns a per-query request into an effective QueryOptions.
package appconf

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// StopTimeFilter narrows stop-times to a time-of-day window at load time.
type StopTimeFilter struct {
	Earliest *int `json:"earliest,omitempty" yaml:"earliest,omitempty"`
	Latest   *int `json:"latest,omitempty" yaml:"latest,omitempty"`
}

// PresetDestination names a cached, pre-augmented destination set.
type PresetDestination struct {
	Name                       string  `json:"name" yaml:"name"`
	LocationsFile              string  `json:"locations_file" yaml:"locations_file"`
	MaxAllowableDestWalkKm     float64 `json:"max_allowable_destination_walk_km" yaml:"max_allowable_destination_walk_km"`
}

// LoadOptions configures the one-time feed load.
type LoadOptions struct {
	DepartureDate                 string              `json:"departure_date" yaml:"departure_date"`
	GTFSDataDirs                  []string            `json:"gtfs_data_dirs" yaml:"gtfs_data_dirs"`
	StopTimeFilter                *StopTimeFilter     `json:"stop_time_filter,omitempty" yaml:"stop_time_filter,omitempty"`
	MaxAllowableBetweenStopWalkKm float64             `json:"max_allowable_between_stop_walk_km" yaml:"max_allowable_between_stop_walk_km"`
	MaxAllowableWalkingDistanceKm float64             `json:"max_allowable_walking_distance_km" yaml:"max_allowable_walking_distance_km"`
	MaxAllowableNumberOfTransfers int                 `json:"max_allowable_number_of_transfers" yaml:"max_allowable_number_of_transfers"`
	WaterGeoJSONFile              string              `json:"water_geojson_file,omitempty" yaml:"water_geojson_file,omitempty"`
	ShapeHints                    []ShapeHint         `json:"shape_hints,omitempty" yaml:"shape_hints,omitempty"`
	PresetDestinations            []PresetDestination `json:"preset_destinations,omitempty" yaml:"preset_destinations,omitempty"`

	// FeedOptions, if set, overrides QueryDefaults for every query against
	// this feed before the caller's own options are applied.
	FeedOptions *QueryOptions `json:"feed_options,omitempty" yaml:"feed_options,omitempty"`
}

// ShapeHint supplies a fallback shapeId for a (routeId, directionId) pair
// when trips are missing shape_id.
type ShapeHint struct {
	RouteID     string `json:"route_id" yaml:"route_id"`
	DirectionID int    `json:"direction_id" yaml:"direction_id"`
	ShapeID     string `json:"shape_id" yaml:"shape_id"`
}

// QueryOptions configures a single routing query. Pointer fields
// distinguish "not set, use default" from an explicit zero value during
// merging; Effective resolves them into a concrete Query.
type QueryOptions struct {
	MaxWalkingDistanceKm *float64 `json:"max_walking_distance_km,omitempty" yaml:"max_walking_distance_km,omitempty"`
	WalkingSpeedKph      *float64 `json:"walking_speed_kph,omitempty" yaml:"walking_speed_kph,omitempty"`
	MaxWaitingTimeSecs   *int     `json:"max_waiting_time_secs,omitempty" yaml:"max_waiting_time_secs,omitempty"`
	TransferPenaltySecs  *int     `json:"transfer_penalty_secs,omitempty" yaml:"transfer_penalty_secs,omitempty"`
	MaxNumberOfTransfers *int     `json:"max_number_of_transfers,omitempty" yaml:"max_number_of_transfers,omitempty"`
	MaxCommuteTimeSecs   *int     `json:"max_commute_time_secs,omitempty" yaml:"max_commute_time_secs,omitempty"`
	BusMultiplier        *float64 `json:"bus_multiplier,omitempty" yaml:"bus_multiplier,omitempty"`
	RailMultiplier       *float64 `json:"rail_multiplier,omitempty" yaml:"rail_multiplier,omitempty"`
	ExcludeRoutes        []string `json:"exclude_routes,omitempty" yaml:"exclude_routes,omitempty"`
	ExcludeStops         []string `json:"exclude_stops,omitempty" yaml:"exclude_stops,omitempty"`
}

// Query is the fully-resolved, immutable set of knobs the router reads
// during a single query; nothing configuration-shaped is ambient or
// process-global.
type Query struct {
	MaxWalkingDistanceKm float64
	WalkingSpeedKph      float64
	MaxWaitingTimeSecs   int
	TransferPenaltySecs  int
	MaxNumberOfTransfers int
	MaxCommuteTimeSecs   int
	BusMultiplier        float64
	RailMultiplier       float64
	ExcludeRoutes        map[string]bool
	ExcludeStops         map[string]bool
}

// QueryDefaults are the baseline query options.
func QueryDefaults() QueryOptions {
	return QueryOptions{
		MaxWalkingDistanceKm: ptr(1.5),
		WalkingSpeedKph:      ptr(5.1),
		MaxWaitingTimeSecs:   iptr(1800),
		TransferPenaltySecs:  iptr(30),
		MaxNumberOfTransfers: iptr(1),
		MaxCommuteTimeSecs:   iptr(math.MaxInt32),
		BusMultiplier:        ptr(1),
		RailMultiplier:       ptr(1),
	}
}

// LoadDefaults are the baseline load options.
func LoadDefaults() LoadOptions {
	return LoadOptions{
		MaxAllowableBetweenStopWalkKm: 1.5,
		MaxAllowableWalkingDistanceKm: math.Inf(1),
		MaxAllowableNumberOfTransfers: math.MaxInt32,
	}
}

// Merge layers override on top of base, field by field: a non-nil field in
// override wins. Slice fields replace wholesale rather than append.
func Merge(base, override QueryOptions) QueryOptions {
	merged := base
	if override.MaxWalkingDistanceKm != nil {
		merged.MaxWalkingDistanceKm = override.MaxWalkingDistanceKm
	}
	if override.WalkingSpeedKph != nil {
		merged.WalkingSpeedKph = override.WalkingSpeedKph
	}
	if override.MaxWaitingTimeSecs != nil {
		merged.MaxWaitingTimeSecs = override.MaxWaitingTimeSecs
	}
	if override.TransferPenaltySecs != nil {
		merged.TransferPenaltySecs = override.TransferPenaltySecs
	}
	if override.MaxNumberOfTransfers != nil {
		merged.MaxNumberOfTransfers = override.MaxNumberOfTransfers
	}
	if override.MaxCommuteTimeSecs != nil {
		merged.MaxCommuteTimeSecs = override.MaxCommuteTimeSecs
	}
	if override.BusMultiplier != nil {
		merged.BusMultiplier = override.BusMultiplier
	}
	if override.RailMultiplier != nil {
		merged.RailMultiplier = override.RailMultiplier
	}
	if override.ExcludeRoutes != nil {
		merged.ExcludeRoutes = override.ExcludeRoutes
	}
	if override.ExcludeStops != nil {
		merged.ExcludeStops = override.ExcludeStops
	}
	return merged
}

// Resolve completes options as defaults ← feedOptions ← userOptions, then
// clamps max_number_of_transfers and max_walking_distance_km to the load
// ceilings so a caller cannot inflate query cost past what the operator
// allowed.
func Resolve(feedOptions *QueryOptions, userOptions QueryOptions, load LoadOptions) Query {
	merged := QueryDefaults()
	if feedOptions != nil {
		merged = Merge(merged, *feedOptions)
	}
	merged = Merge(merged, userOptions)

	q := Query{
		MaxWalkingDistanceKm: *merged.MaxWalkingDistanceKm,
		WalkingSpeedKph:      *merged.WalkingSpeedKph,
		MaxWaitingTimeSecs:   *merged.MaxWaitingTimeSecs,
		TransferPenaltySecs:  *merged.TransferPenaltySecs,
		MaxNumberOfTransfers: *merged.MaxNumberOfTransfers,
		MaxCommuteTimeSecs:   *merged.MaxCommuteTimeSecs,
		BusMultiplier:        *merged.BusMultiplier,
		RailMultiplier:       *merged.RailMultiplier,
		ExcludeRoutes:        toSet(merged.ExcludeRoutes),
		ExcludeStops:         toSet(merged.ExcludeStops),
	}

	if q.MaxNumberOfTransfers > load.MaxAllowableNumberOfTransfers {
		q.MaxNumberOfTransfers = load.MaxAllowableNumberOfTransfers
	}
	if q.MaxWalkingDistanceKm > load.MaxAllowableWalkingDistanceKm {
		q.MaxWalkingDistanceKm = load.MaxAllowableWalkingDistanceKm
	}
	return q
}

func toSet(ss []string) map[string]bool {
	if len(ss) == 0 {
		return nil
	}
	m := make(map[string]bool, len(ss))
	for _, s := range ss {
		m[s] = true
	}
	return m
}

func ptr(f float64) *float64 { return &f }
func iptr(i int) *int        { return &i }

// LoadJSON reads LoadOptions from a JSON file, applying LoadDefaults first.
func LoadJSON(path string) (*LoadOptions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	opts := LoadDefaults()
	if err := json.Unmarshal(data, &opts); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	return validate(opts, path)
}

// LoadYAML reads LoadOptions from a YAML file, applying LoadDefaults first.
func LoadYAML(path string) (*LoadOptions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	opts := LoadDefaults()
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	return validate(opts, path)
}

// Load reads LoadOptions from path, dispatching on file extension.
func Load(path string) (*LoadOptions, error) {
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		return LoadYAML(path)
	}
	return LoadJSON(path)
}

func validate(opts LoadOptions, path string) (*LoadOptions, error) {
	if opts.DepartureDate == "" {
		return nil, fmt.Errorf("config %q: departure_date is required", path)
	}
	if len(opts.GTFSDataDirs) == 0 {
		return nil, fmt.Errorf("config %q: gtfs_data_dirs must be non-empty", path)
	}
	for _, p := range opts.PresetDestinations {
		if p.MaxAllowableDestWalkKm <= 0 {
			return nil, fmt.Errorf("config %q: preset %q must set a positive max_allowable_destination_walk_km", path, p.Name)
		}
	}
	return &opts, nil
}
