// Package raptor implements the round-based transit routing algorithm:
// alternating vehicle-boarding and walking-transfer rounds build up τ, a
// sequence of per-round reach maps, from which the best round for each
// destination is later extracted.
package raptor

// TransportMode is the closed variant a ReachInfo's mode belongs to.
// ReachInfo carries the Transit-only TripID; a Walk's distance is kept out
// of ReachInfo, since distanceKm is recomputed from the stop coordinates
// during itinerary reconstruction rather than stored here.
type TransportMode int

const (
	Origin TransportMode = iota
	Transit
	Walk
)

func (m TransportMode) String() string {
	switch m {
	case Origin:
		return "origin"
	case Transit:
		return "transit"
	case Walk:
		return "walk"
	default:
		return "unknown"
	}
}

// ReachInfo is the best-known way to reach a stop after some number of
// rounds. TripID is only meaningful when Mode == Transit.
type ReachInfo struct {
	TimeOfDaySec   int
	Cost           float64
	Mode           TransportMode
	PreviousStopID string
	TripID         string
	PrevK          int
}

// ReachMap is the frontier of stops reached after exactly k rounds, not a
// union over ≤k rounds: every key present in a ReachMap was reached, and
// is therefore eligible to explore further from, in exactly that round.
// There is consequently no separate "unexplored" sidecar to maintain; the
// key set of a round's ReachMap *is* that round's unexplored set.
type ReachMap map[string]ReachInfo

// Tau is the full sequence of per-round reach maps, τ[0..].
type Tau []ReachMap
