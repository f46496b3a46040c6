// Package water implements the impassable-water-barrier predicate: a
// walking edge that would "jump a river" is rejected because it crosses
// one of the configured waterway centerlines.
package water

import (
	"fmt"

	"github.com/paulmach/go.geojson"

	"transitrouter.dev/raptor/internal/geo"
)

// segment is a single edge of a flattened water polyline.
type segment struct {
	a, b geo.Point
}

// Filter holds the flattened water-segment set. A nil *Filter never blocks
// anything, so callers without a water file skip the nil check.
type Filter struct {
	segments []segment
}

// NewFilterFromGeoJSON parses a FeatureCollection of LineString features
// into a Filter. Any other geometry type is a configuration error.
func NewFilterFromGeoJSON(data []byte) (*Filter, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parsing water geojson: %w", err)
	}

	f := &Filter{}
	for i, feature := range fc.Features {
		if feature.Geometry == nil || !feature.Geometry.IsLineString() {
			return nil, fmt.Errorf("water geojson feature %d: expected LineString geometry, got %v", i, geometryType(feature))
		}
		f.addPolyline(feature.Geometry.LineString)
	}
	return f, nil
}

func geometryType(feature *geojson.Feature) string {
	if feature.Geometry == nil {
		return "<nil>"
	}
	return string(feature.Geometry.Type)
}

func (f *Filter) addPolyline(coords [][]float64) {
	for i := 0; i+1 < len(coords); i++ {
		f.segments = append(f.segments, segment{
			a: geo.Point{Lng: coords[i][0], Lat: coords[i][1]},
			b: geo.Point{Lng: coords[i+1][0], Lat: coords[i+1][1]},
		})
	}
}

// Blocked reports whether the straight segment (a,b) intersects any water
// segment. A nil Filter never blocks.
func (f *Filter) Blocked(a, b geo.Point) bool {
	if f == nil {
		return false
	}
	for _, seg := range f.segments {
		if geo.SegmentsIntersect(a, b, seg.a, seg.b) {
			return true
		}
	}
	return false
}

// Len returns the number of flattened water segments, mostly useful for
// logging/metrics at load time.
func (f *Filter) Len() int {
	if f == nil {
		return 0
	}
	return len(f.segments)
}
