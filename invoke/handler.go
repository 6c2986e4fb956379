package invoke

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/viant/cmdrelay/schema"
	"github.com/viant/jsonrpc"
)

const maxNotificationSize = 1 << 20

// Handler is the invoke gateway: it accepts invocation notifications posted by
// Remote and starts them with Invoker.
type Handler struct {
	Invoker Invoker
	Secret  string
}

// notification mirrors jsonrpc.Notification keeping the raw params.
type notification struct {
	Jsonrpc string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type accepted struct {
	ActivationID string `json:"activationId"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h.Secret == "" {
		logger.Error().Msg("invoke.gateway_disabled")
		writeJSON(w, http.StatusServiceUnavailable, schema.ErrorBody{Error: "API is not properly configured"})
		return
	}
	if subtle.ConstantTimeCompare([]byte(r.Header.Get(schema.InvokeSecretHeader)), []byte(h.Secret)) != 1 {
		logger.Warn().Msg("invoke.unauthorized")
		writeJSON(w, http.StatusUnauthorized, schema.ErrorBody{Error: "Unauthorized"})
		return
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxNotificationSize))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, schema.ErrorBody{Error: "Invalid request"})
		return
	}
	received := &notification{}
	if err = json.Unmarshal(data, received); err != nil || received.Jsonrpc != jsonrpc.Version || received.Method != schema.MethodCommandInvoke {
		logger.Warn().Err(err).Str("method", received.Method).Msg("invoke.invalid_notification")
		writeJSON(w, http.StatusBadRequest, schema.ErrorBody{Error: "Invalid request"})
		return
	}
	var invocation Invocation
	if err = json.Unmarshal(received.Params, &invocation); err != nil || invocation.Command == "" {
		logger.Warn().Err(err).Msg("invoke.invalid_invocation")
		writeJSON(w, http.StatusBadRequest, schema.ErrorBody{Error: "Invalid request"})
		return
	}
	activationID, err := h.Invoker.Invoke(ctx, invocation)
	if err != nil {
		logger.Error().Err(err).Str("command", invocation.Command).Msg("invoke.failed")
		writeJSON(w, schema.StatusCode(err), schema.ErrorBody{Error: schema.UserMessage(err)})
		return
	}
	writeJSON(w, http.StatusAccepted, accepted{ActivationID: activationID})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
