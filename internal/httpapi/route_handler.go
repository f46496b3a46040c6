package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"transitrouter.dev/raptor/internal/appconf"
	"transitrouter.dev/raptor/internal/logging"
	"transitrouter.dev/raptor/internal/online"
)

// locationDTO is either a stop id (StopID set, Lat/Lng ignored) or an
// arbitrary coordinate (ID/Lat/Lng all set, ID naming the ephemeral stop
// the query introduces).
type locationDTO struct {
	ID     string  `json:"id"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	StopID string  `json:"stopId,omitempty"`
}

func (l locationDTO) toLocation() online.Location {
	return online.Location{ID: l.ID, Lat: l.Lat, Lng: l.Lng}
}

type routeRequest struct {
	From              locationDTO          `json:"from"`
	To                locationDTO          `json:"to"`
	DepartureTimeSecs int                  `json:"departureTimeSecs"`
	Options           appconf.QueryOptions `json:"options"`
}

type itineraryDTO struct {
	ArrivalTimeSecs int           `json:"arrivalTimeSecs"`
	TotalCostSecs   float64       `json:"totalCostSecs"`
	NumTransfers    int           `json:"numTransfers"`
	Steps           []online.Step `json:"steps"`
}

func toItineraryDTO(it online.Itinerary) itineraryDTO {
	return itineraryDTO{
		ArrivalTimeSecs: it.ArrivalTimeSec,
		TotalCostSecs:   it.TotalCostSecs,
		NumTransfers:    it.NumTransfers,
		Steps:           it.Steps,
	}
}

// routeHandler serves POST /route: a stop-to-stop query when both From.StopID
// and To.StopID are set, otherwise a one-to-one coordinate query.
func (api *RestAPI) routeHandler(w http.ResponseWriter, r *http.Request) {
	var req routeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.sendError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	var (
		it  online.Itinerary
		err error
	)
	if req.From.StopID != "" && req.To.StopID != "" {
		it, err = api.Router.StopToStop(req.From.StopID, req.To.StopID, req.DepartureTimeSecs, req.Options)
	} else {
		it, err = api.Router.OneToOne(req.From.toLocation(), req.To.toLocation(), req.DepartureTimeSecs, req.Options)
	}
	if err != nil {
		api.handleQueryError(w, r, err)
		return
	}
	api.sendJSON(w, http.StatusOK, "ok", toItineraryDTO(it))
}

type oneToManyRequest struct {
	From              locationDTO          `json:"from"`
	To                []locationDTO        `json:"to"`
	DepartureTimeSecs int                  `json:"departureTimeSecs"`
	Options           appconf.QueryOptions `json:"options"`
}

// oneToManyHandler serves POST /one-to-many.
func (api *RestAPI) oneToManyHandler(w http.ResponseWriter, r *http.Request) {
	var req oneToManyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.sendError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	dests := make([]online.Location, len(req.To))
	for i, d := range req.To {
		dests[i] = d.toLocation()
	}

	results, err := api.Router.OneToMany(req.From.toLocation(), dests, req.DepartureTimeSecs, req.Options)
	if err != nil {
		api.handleQueryError(w, r, err)
		return
	}
	api.sendJSON(w, http.StatusOK, "ok", toItineraryDTOMap(results))
}

type oneToPresetRequest struct {
	From              locationDTO          `json:"from"`
	Preset            string               `json:"preset"`
	DepartureTimeSecs int                  `json:"departureTimeSecs"`
	Options           appconf.QueryOptions `json:"options"`
}

// oneToPresetHandler serves POST /one-to-preset.
func (api *RestAPI) oneToPresetHandler(w http.ResponseWriter, r *http.Request) {
	var req oneToPresetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.sendError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	results, err := api.Router.OneToManyPreset(req.From.toLocation(), req.Preset, req.DepartureTimeSecs, req.Options)
	if err != nil {
		api.handleQueryError(w, r, err)
		return
	}
	api.sendJSON(w, http.StatusOK, "ok", toItineraryDTOMap(results))
}

func toItineraryDTOMap(m map[string]online.Itinerary) map[string]itineraryDTO {
	out := make(map[string]itineraryDTO, len(m))
	for id, it := range m {
		out[id] = toItineraryDTO(it)
	}
	return out
}

// handleQueryError distinguishes "no route exists", which is a valid
// answer reported as a null route, from an actual query failure.
func (api *RestAPI) handleQueryError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, online.ErrUnreachable) {
		api.sendJSON(w, http.StatusOK, "unreachable", nil)
		return
	}
	logging.LogError(api.Logger, "routing query failed", err)
	api.sendError(w, http.StatusInternalServerError, err.Error())
}
