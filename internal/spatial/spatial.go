// Package spatial provides a 2D R-tree point index used to find walkable
// stop pairs and to splice query endpoints into the transit graph.
package spatial

import (
	"github.com/tidwall/rtree"

	"transitrouter.dev/raptor/internal/geo"
)

// IndexedPoint is a point carrying an opaque id, typically a stop id or an
// ephemeral query-location id.
type IndexedPoint struct {
	ID  string
	Pos geo.Point
}

// Hit is a search/intersect result: the id of a nearby point and its
// distance from the query point in kilometers.
type Hit struct {
	ID string
	Km float64
}

// Index is an R-tree over points keyed by (lng, lat). Each point is
// inserted with zero-size extent (min == max).
type Index struct {
	tree   *rtree.RTree
	points map[string]geo.Point
}

// New returns an empty index.
func New() *Index {
	return &Index{tree: &rtree.RTree{}, points: make(map[string]geo.Point)}
}

// Add bulk-inserts points into the index.
func (idx *Index) Add(points []IndexedPoint) {
	for _, p := range points {
		idx.tree.Insert([2]float64{p.Pos.Lng, p.Pos.Lat}, [2]float64{p.Pos.Lng, p.Pos.Lat}, p.ID)
		idx.points[p.ID] = p.Pos
	}
}

// Clone deep-copies the index. Augmentation must not mutate the base
// feed's spatial index, so every query that adds ephemeral stops clones
// first; the underlying rtree.RTree value holds its own btree nodes and
// copying the map plus re-inserting is a cheap, unambiguous deep copy.
func (idx *Index) Clone() *Index {
	clone := New()
	pts := make([]IndexedPoint, 0, len(idx.points))
	for id, pos := range idx.points {
		pts = append(pts, IndexedPoint{ID: id, Pos: pos})
	}
	clone.Add(pts)
	return clone
}

// Search returns every indexed point within radiusKm great-circle distance
// of p. A local flat-earth bounding box narrows the R-tree query; an exact
// haversine check then rejects any false positives the planar box admits.
func (idx *Index) Search(p geo.Point, radiusKm float64) []Hit {
	if radiusKm < 0 {
		return nil
	}
	bounds := geo.FlatEarthBounds(p.Lat, p.Lng, radiusKm)

	var hits []Hit
	idx.tree.Search(
		[2]float64{bounds.MinLng, bounds.MinLat},
		[2]float64{bounds.MaxLng, bounds.MaxLat},
		func(_, _ [2]float64, data any) bool {
			id, ok := data.(string)
			if !ok {
				return true
			}
			km := geo.HaversineKm(p, idx.points[id])
			if km <= radiusKm {
				hits = append(hits, Hit{ID: id, Km: km})
			}
			return true
		},
	)
	return hits
}

// Intersect returns, for every point in idx, the points in other within
// radiusKm.
func (idx *Index) Intersect(other *Index, radiusKm float64) map[string][]Hit {
	result := make(map[string][]Hit, len(idx.points))
	for id, pos := range idx.points {
		if hits := other.Search(pos, radiusKm); len(hits) > 0 {
			result[id] = hits
		}
	}
	return result
}

// Len returns the number of indexed points.
func (idx *Index) Len() int {
	return len(idx.points)
}
