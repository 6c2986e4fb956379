package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type webhook struct {
	*httptest.Server
	payloads chan map[string]any
}

func newWebhook(t *testing.T) *webhook {
	ret := &webhook{payloads: make(chan map[string]any, 4)}
	ret.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		ret.payloads <- payload
	}))
	t.Cleanup(ret.Server.Close)
	return ret
}
