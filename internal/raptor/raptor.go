package raptor

import (
	"log/slog"

	"transitrouter.dev/raptor/internal/appconf"
	"transitrouter.dev/raptor/internal/index"
	"transitrouter.dev/raptor/internal/logging"
	"transitrouter.dev/raptor/internal/metrics"
)

// Router runs the RAPTOR algorithm against an IndexedFeed. It carries only
// optional observability hooks; all routing state lives in the Tau built
// per call to Run, so a single Router is safe for concurrent queries.
type Router struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// New returns a Router with the given logger, defaulting to slog.Default().
func New(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{Logger: logger.With(slog.String("component", "raptor"))}
}

// Run computes τ for a query starting at originStopID at depSecs,
// performing 1+MaxNumberOfTransfers boarding rounds each followed by a
// walking round. originStopID must be present in idx.StopIDToStop (callers
// routing from arbitrary coordinates augment the feed with an ephemeral
// stop first).
func (r *Router) Run(idx *index.IndexedFeed, originStopID string, depSecs int, q appconf.Query) Tau {
	lastValidTimeSecs := depSecs + q.MaxCommuteTimeSecs

	tau := Tau{ReachMap{originStopID: {TimeOfDaySec: depSecs, Cost: 0, Mode: Origin, PrevK: -1}}}

	// Initial walking round from a non-stop origin: an
	// ephemeral query origin has no scheduled stop-times, so a boarding
	// round straight from τ[0] would find nothing. Disperse by walking
	// first, then resume the normal alternation.
	if len(idx.StopIDToStopTimes[originStopID]) == 0 {
		tau = append(tau, r.makeTransfers(idx, tau[0], 0, q, lastValidTimeSecs))
	}

	numBoardingRounds := 1 + q.MaxNumberOfTransfers
	for i := 0; i < numBoardingRounds; i++ {
		prevK := len(tau) - 1
		prev := tau[prevK]
		boarded := r.takeVehicles(idx, prev, prevK, q, depSecs, lastValidTimeSecs)
		tau = append(tau, boarded)
		boardedK := len(tau) - 1
		tau = append(tau, r.makeTransfers(idx, boarded, boardedK, q, lastValidTimeSecs))
	}

	if r.Metrics != nil {
		r.Metrics.RoundsExecuted.Observe(float64(len(tau)))
		r.Metrics.ReachedStops.Set(float64(countReached(tau)))
	}
	if r.Logger != nil {
		logging.LogOperation(r.Logger, "raptor_run_completed",
			slog.String("origin_stop_id", originStopID),
			slog.Int("rounds", len(tau)),
			slog.Int("reached_stops", countReached(tau)))
	}

	return tau
}

func countReached(tau Tau) int {
	seen := make(map[string]bool)
	for _, round := range tau {
		for stopID := range round {
			seen[stopID] = true
		}
	}
	return len(seen)
}

// takeVehicles performs one boarding round over every stop in prev. It
// returns the fresh ReachMap for this round; it never mutates prev.
func (r *Router) takeVehicles(idx *index.IndexedFeed, prev ReachMap, prevK int, q appconf.Query, depSecs, lastValidTimeSecs int) ReachMap {
	next := ReachMap{}

	for stopID, info := range prev {
		if q.ExcludeStops[stopID] {
			continue
		}
		t := info.TimeOfDaySec
		windowEnd := t + q.MaxWaitingTimeSecs

		for _, boarding := range idx.StopIDToStopTimes[stopID] {
			if boarding.TimeOfDaySec < t || boarding.TimeOfDaySec > windowEnd {
				continue
			}
			trip, ok := idx.TripIDToTrip[boarding.TripID]
			if !ok {
				continue
			}
			if q.ExcludeRoutes[trip.RouteID] {
				continue
			}
			route, ok := idx.RouteIDToRoute[trip.RouteID]
			var multiplier float64 = 1
			if ok {
				multiplier = q.RailMultiplier
				if route.RouteType.IsBus() {
					multiplier = q.BusMultiplier
				}
			}
			if multiplier < 0 {
				continue
			}

			tripStopTimes := idx.TripIDToStopTimes[boarding.TripID]
			boardPos := -1
			for i, st := range tripStopTimes {
				if st.StopSequence == boarding.StopSequence {
					boardPos = i
					break
				}
			}
			if boardPos < 0 {
				continue
			}

			wait := float64(boarding.TimeOfDaySec - t)
			for _, downstream := range tripStopTimes[boardPos+1:] {
				if downstream.TimeOfDaySec > lastValidTimeSecs {
					break
				}
				if q.ExcludeStops[downstream.StopID] {
					continue
				}
				travel := float64(downstream.TimeOfDaySec - boarding.TimeOfDaySec)
				segmentCost := wait + multiplier*travel
				candidate := ReachInfo{
					TimeOfDaySec:   downstream.TimeOfDaySec,
					Cost:           info.Cost + segmentCost,
					Mode:           Transit,
					PreviousStopID: stopID,
					TripID:         boarding.TripID,
					PrevK:          prevK,
				}
				addConnection(next, downstream.StopID, candidate)
			}
		}
	}
	return next
}

// makeTransfers performs one walking round over every stop in prev:
// carried-forward entries from prev seed the result so a stop
// reached by transit that has no better walking alternative is still
// visible to the following boarding round.
func (r *Router) makeTransfers(idx *index.IndexedFeed, prev ReachMap, prevK int, q appconf.Query, lastValidTimeSecs int) ReachMap {
	next := ReachMap{}
	for stopID, info := range prev {
		next[stopID] = info
	}

	for stopID, info := range prev {
		if info.Mode == Walk {
			continue // forbid walk -> walk
		}
		if q.ExcludeStops[stopID] {
			continue
		}
		for _, wt := range idx.WalkingTransfers[stopID] {
			if q.ExcludeStops[wt.ToStopID] {
				continue
			}
			var secs float64
			if wt.HasSecs {
				secs = float64(wt.Secs)
			} else {
				if wt.Km > q.MaxWalkingDistanceKm {
					continue
				}
				secs = wt.Km * (3600 / q.WalkingSpeedKph)
			}
			newArrival := info.TimeOfDaySec + int(secs)
			if newArrival > lastValidTimeSecs {
				continue
			}
			candidate := ReachInfo{
				TimeOfDaySec:   newArrival,
				Cost:           info.Cost + secs,
				Mode:           Walk,
				PreviousStopID: stopID,
				PrevK:          prevK,
			}
			addConnection(next, wt.ToStopID, candidate)
		}
	}
	return next
}

// addConnection applies the relaxation invariant: update only
// if absent or strictly cheaper than the current entry.
func addConnection(round ReachMap, stopID string, candidate ReachInfo) {
	if existing, ok := round[stopID]; !ok || candidate.Cost < existing.Cost {
		round[stopID] = candidate
	}
}
