package raptor

import (
	"math"

	"transitrouter.dev/raptor/internal/appconf"
)

// Result is the best round found for a destination by FindBestK.
type Result struct {
	K         int
	Info      ReachInfo
	Transfers int
}

// FindBestK scores every round that reached destStopID by
// cost + numTransfers*transferPenalty and returns the minimal-scoring
// round. The zero Result with found=false means destStopID was
// never reached.
func FindBestK(tau Tau, destStopID string, q appconf.Query) (Result, bool) {
	bestScore := math.Inf(1)
	var best Result
	found := false

	for k, round := range tau {
		info, ok := round[destStopID]
		if !ok {
			continue
		}
		transfers := numTransfers(tau, k, destStopID)
		score := info.Cost + float64(transfers)*float64(q.TransferPenaltySecs)
		if score < bestScore {
			bestScore = score
			best = Result{K: k, Info: info, Transfers: transfers}
			found = true
		}
	}
	return best, found
}

// numTransfers counts the number of transit legs on the path ending at
// (k, stopID) and subtracts one, since the first boarding is free and each
// subsequent boarding is a transfer. A path with no transit
// legs (a pure walk) has zero transfers.
func numTransfers(tau Tau, k int, stopID string) int {
	legs := 0
	for k >= 0 {
		info, ok := tau[k][stopID]
		if !ok {
			break
		}
		if info.Mode == Transit {
			legs++
		}
		if info.Mode == Origin {
			break
		}
		stopID = info.PreviousStopID
		k = info.PrevK
	}
	if legs == 0 {
		return 0
	}
	return legs - 1
}
