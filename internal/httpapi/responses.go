package httpapi

import (
	"encoding/json"
	"net/http"
	"time"
)

// response is the envelope every endpoint replies with: a status code,
// server time and text, plus the endpoint's Data payload.
type response struct {
	Code        int    `json:"code"`
	CurrentTime int64  `json:"currentTime"`
	Text        string `json:"text"`
	Data        any    `json:"data,omitempty"`
}

func (api *RestAPI) sendJSON(w http.ResponseWriter, code int, text string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(response{
		Code:        code,
		CurrentTime: api.Clock.NowUnixMilli(),
		Text:        text,
		Data:        data,
	})
}

func (api *RestAPI) sendError(w http.ResponseWriter, code int, message string) {
	api.sendJSON(w, code, message, nil)
}

// sendError is the package-level variant for middleware that rejects a
// request before any RestAPI receiver is in play.
func sendError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(response{
		Code:        code,
		CurrentTime: time.Now().UnixMilli(),
		Text:        message,
	})
}
