package index

import (
	"sort"

	"transitrouter.dev/raptor/internal/appconf"
	"transitrouter.dev/raptor/internal/feed"
	"transitrouter.dev/raptor/internal/geo"
	"transitrouter.dev/raptor/internal/spatial"
	"transitrouter.dev/raptor/internal/water"
)

// buildWalkingTransfers combines intra-station, explicit and
// proximity-derived footpaths into the working transfer graph.
func buildWalkingTransfers(idx *IndexedFeed, explicit []feed.Transfer, opts appconf.LoadOptions, waterFilter *water.Filter) (map[string][]WalkingTransfer, error) {
	type edgeKey struct{ from, to string }
	type edgeVal struct {
		km      float64
		hasKm   bool
		secs    int
		hasSecs bool
	}
	edges := make(map[edgeKey]edgeVal)

	setKm := func(from, to string, km float64) {
		if from == to {
			return
		}
		k := edgeKey{from, to}
		cur, ok := edges[k]
		if !ok || !cur.hasKm || km < cur.km {
			cur.km = km
			cur.hasKm = true
			edges[k] = cur
		}
	}
	setSecs := func(from, to string, secs int) {
		if from == to {
			return
		}
		k := edgeKey{from, to}
		cur, ok := edges[k]
		if !ok || !cur.hasSecs || secs < cur.secs {
			cur.secs = secs
			cur.hasSecs = true
			edges[k] = cur
		}
	}

	// 1. Intra-station: all ordered sibling pairs and parent<->child pairs
	// are free.
	for parent, children := range idx.ParentToChildren {
		for _, c := range children {
			setSecs(parent, c, 0)
			setSecs(c, parent, 0)
		}
		for i := range children {
			for j := range children {
				if i == j {
					continue
				}
				setSecs(children[i], children[j], 0)
			}
		}
	}

	// 2. Explicit MIN_TIME transfers apply to every (child-or-self of from)
	// x (child-or-self of to) pair. A row whose from and to are the same
	// parent station expands to its sibling pairs too; those keep the free
	// intra-station edge from step 1, since the lower time wins.
	selfAndChildren := func(stopID string) []string {
		out := []string{stopID}
		out = append(out, idx.ParentToChildren[stopID]...)
		return out
	}
	for _, tr := range explicit {
		if tr.Type != feed.MinTime || !tr.HasMinTime {
			continue
		}
		froms := selfAndChildren(tr.FromStopID)
		tos := selfAndChildren(tr.ToStopID)
		for _, f := range froms {
			for _, t := range tos {
				if f == t {
					continue
				}
				setSecs(f, t, tr.MinTransferTime)
			}
		}
	}

	// A feed that declared explicit transfers is trusted for its own
	// footpaths: proximity pairs within such a feed are skipped entirely
	// rather than supplemented.
	feedsWithTransfers := make(map[string]bool)
	for _, tr := range explicit {
		if s, ok := idx.StopIDToStop[tr.FromStopID]; ok && s.FeedName != "" {
			feedsWithTransfers[s.FeedName] = true
		}
		if s, ok := idx.StopIDToStop[tr.ToStopID]; ok && s.FeedName != "" {
			feedsWithTransfers[s.FeedName] = true
		}
	}

	// 3. Proximity footpaths over stops that actually have service, paired
	// up by self-intersecting a spatial index of them instead of walking
	// the full stop cross product.
	served := spatial.New()
	for stopID := range idx.StopIDToStopTimes {
		s, ok := idx.StopIDToStop[stopID]
		if !ok {
			continue
		}
		served.Add([]spatial.IndexedPoint{{ID: stopID, Pos: geo.Point{Lat: s.Lat, Lng: s.Lng}}})
	}

	routesServing := func(stopID string) map[string]bool {
		routes := make(map[string]bool)
		for _, st := range idx.StopIDToStopTimes[stopID] {
			if t, ok := idx.TripIDToTrip[st.TripID]; ok {
				routes[t.RouteID] = true
			}
		}
		return routes
	}
	sameRouteSet := func(a, b map[string]bool) bool {
		if len(a) != len(b) {
			return false
		}
		for r := range a {
			if !b[r] {
				return false
			}
		}
		return true
	}

	maxWalkKm := opts.MaxAllowableBetweenStopWalkKm
	pairs := served.Intersect(served, maxWalkKm)
	froms := make([]string, 0, len(pairs))
	for from := range pairs {
		froms = append(froms, from)
	}
	sort.Strings(froms)
	for _, a := range froms {
		for _, hit := range pairs[a] {
			b := hit.ID
			// Intersect reports the self-hit and both directions of every
			// pair; handle each unordered pair once.
			if b <= a {
				continue
			}
			sa, sb := idx.StopIDToStop[a], idx.StopIDToStop[b]
			if sa.FeedName != "" && sa.FeedName == sb.FeedName && feedsWithTransfers[sa.FeedName] {
				continue
			}
			if waterFilter.Blocked(geo.Point{Lat: sa.Lat, Lng: sa.Lng}, geo.Point{Lat: sb.Lat, Lng: sb.Lng}) {
				continue
			}
			if sameRouteSet(routesServing(a), routesServing(b)) {
				continue
			}
			setKm(a, b, hit.Km)
			setKm(b, a, hit.Km)
		}
	}

	out := make(map[string][]WalkingTransfer)
	for k, v := range edges {
		wt := WalkingTransfer{ToStopID: k.to}
		switch {
		case v.hasSecs:
			wt.Secs = v.secs
			wt.HasSecs = true
		case v.hasKm:
			wt.Km = v.km
		default:
			continue
		}
		out[k.from] = append(out[k.from], wt)
	}
	for from := range out {
		list := out[from]
		sort.Slice(list, func(i, j int) bool {
			wi, wj := list[i], list[j]
			if wi.HasSecs != wj.HasSecs {
				// Group explicit (fixed-time) edges before walked ones so
				// each kind keeps its own deterministic order.
				return wi.HasSecs
			}
			if wi.HasSecs {
				if wi.Secs != wj.Secs {
					return wi.Secs < wj.Secs
				}
				return wi.ToStopID < wj.ToStopID
			}
			return wi.Km < wj.Km
		})
		out[from] = list
	}

	return out, nil
}
