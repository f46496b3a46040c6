package httpapi

import "net/http"

// healthHandler reports whether the router has finished loading and
// indexing its feed: alive but not yet ready answers 503.
func (api *RestAPI) healthHandler(w http.ResponseWriter, r *http.Request) {
	if !api.Ready() {
		api.sendJSON(w, http.StatusServiceUnavailable, "starting", map[string]string{"status": "starting"})
		return
	}
	api.sendJSON(w, http.StatusOK, "ok", map[string]string{"status": "ok"})
}
