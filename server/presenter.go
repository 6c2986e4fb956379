package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/viant/cmdrelay/schema"
)

// ErrorResponse is the body of a failed HTTP request.
type ErrorResponse struct {
	Error         string `json:"error"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

func errorBody(message string, r *http.Request) *ErrorResponse {
	return &ErrorResponse{Error: message, CorrelationID: CorrelationID(r.Context())}
}

func writeJSON(w http.ResponseWriter, r *http.Request, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("response.write_failed")
	}
}

// writeResponse writes an activation response: text bodies as is, anything else as JSON.
func writeResponse(w http.ResponseWriter, r *http.Request, response *schema.Response) {
	status := response.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	for k, v := range response.Headers {
		w.Header().Set(k, v)
	}
	switch body := response.Body.(type) {
	case string:
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	case *schema.ErrorBody:
		writeJSON(w, r, errorBody(body.Error, r), status)
	default:
		writeJSON(w, r, body, status)
	}
}
