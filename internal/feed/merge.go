package feed

import "fmt"

type stopOccurrence struct {
	feedName string
	stop     Stop
}

// Merge concatenates all entity lists from feeds, renaming stop IDs only
// for those that appear in ≥2 feeds with differing lat/lng; true duplicates
// at identical coordinates collapse to one record. Other entity
// kinds (trips, calendars, calendarDates, routes, shapes) are simply
// concatenated.
func Merge(feeds ...*Feed) (*Feed, error) {
	if len(feeds) == 0 {
		return &Feed{}, nil
	}
	if len(feeds) == 1 {
		return feeds[0], nil
	}

	byStopID := make(map[string][]stopOccurrence)
	for _, f := range feeds {
		for _, s := range f.Stops {
			byStopID[s.StopID] = append(byStopID[s.StopID], stopOccurrence{feedName: f.Name, stop: s})
		}
	}

	renamed := make(map[string]bool, len(byStopID))
	for stopID, occs := range byStopID {
		if len(occs) < 2 {
			continue
		}
		first := occs[0].stop
		for _, o := range occs[1:] {
			if o.stop.Lat != first.Lat || o.stop.Lng != first.Lng {
				renamed[stopID] = true
				break
			}
		}
	}

	merged := &Feed{}
	emittedCollapsed := make(map[string]bool)

	for _, f := range feeds {
		renameRef := func(stopID string) string {
			if stopID == "" {
				return ""
			}
			if renamed[stopID] {
				return fmt.Sprintf("%s_%s", f.Name, stopID)
			}
			return stopID
		}

		for _, s := range f.Stops {
			s.ParentStation = renameRef(s.ParentStation)
			occsLen := len(byStopID[s.StopID])
			switch {
			case renamed[s.StopID]:
				ns := s
				ns.StopID = renameRef(s.StopID)
				merged.Stops = append(merged.Stops, ns)
			case occsLen >= 2:
				if !emittedCollapsed[s.StopID] {
					emittedCollapsed[s.StopID] = true
					merged.Stops = append(merged.Stops, s)
				}
			default:
				merged.Stops = append(merged.Stops, s)
			}
		}

		for _, st := range f.StopTimes {
			nst := st
			nst.StopID = renameRef(st.StopID)
			merged.StopTimes = append(merged.StopTimes, nst)
		}

		for _, tr := range f.Transfers {
			ntr := tr
			ntr.FromStopID = renameRef(tr.FromStopID)
			ntr.ToStopID = renameRef(tr.ToStopID)
			merged.Transfers = append(merged.Transfers, ntr)
		}

		merged.Trips = append(merged.Trips, f.Trips...)
		merged.Calendars = append(merged.Calendars, f.Calendars...)
		merged.CalendarDates = append(merged.CalendarDates, f.CalendarDates...)
		merged.Shapes = append(merged.Shapes, f.Shapes...)
		merged.Routes = append(merged.Routes, f.Routes...)
	}

	return merged, nil
}
