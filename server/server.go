// Package server exposes the relay over HTTP: chat command envelopes, Slack
// slash commands, the OAuth callback and the remote invoke gateway.
package server

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/viant/cmdrelay/auth"
	"github.com/viant/cmdrelay/schema"
)

const (
	healthRoute   = "/healthz"
	actionRoute   = "/action/{command}"
	slackRoute    = "/slack/{command}"
	callbackRoute = "/callback"
	invokeRoute   = "/invoke"

	maxBodySize = 1 << 20
)

// Server represents the relay HTTP surface.
type Server struct {
	service            *auth.Service
	invoke             http.Handler
	slackSigningSecret string
	actionSecret       string
	addr               string
}

type Option func(s *Server)

// WithInvokeHandler mounts the remote invoke gateway.
func WithInvokeHandler(handler http.Handler) Option {
	return func(s *Server) {
		s.invoke = handler
	}
}

// WithSlackSigningSecret enables Slack request signature verification.
func WithSlackSigningSecret(secret string) Option {
	return func(s *Server) {
		s.slackSigningSecret = secret
	}
}

// WithActionSecret mounts the JSON envelope route, guarded by secret.
func WithActionSecret(secret string) Option {
	return func(s *Server) {
		s.actionSecret = secret
	}
}

func WithAddr(addr string) Option {
	return func(s *Server) {
		s.addr = addr
	}
}

// Routes returns the relay handler.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+healthRoute, s.handleHealth)
	if s.actionSecret != "" {
		mux.HandleFunc("POST "+actionRoute, s.handleAction)
	}
	mux.HandleFunc("POST "+slackRoute, s.handleSlack)
	mux.HandleFunc("GET "+callbackRoute, s.handleCallback)
	if s.invoke != nil {
		mux.Handle("POST "+invokeRoute, s.invoke)
	}
	return ChainMiddlewareHandlers(mux, RecoverMiddleware, CorrelationIDMiddleware, LoggingMiddleware)
}

// HTTP returns an http.Server serving Routes.
func (s *Server) HTTP(addr string) *http.Server {
	if addr == "" {
		addr = s.addr
	}
	if addr == "" {
		addr = ":8080"
	}
	return &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, map[string]string{"status": "ok"}, http.StatusOK)
}

// handleAction accepts a JSON activation envelope: a command or a callback.
// Callers must present the action secret.
func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	if subtle.ConstantTimeCompare([]byte(r.Header.Get(schema.ActionSecretHeader)), []byte(s.actionSecret)) != 1 {
		log.Ctx(r.Context()).Warn().Str("command", r.PathValue("command")).Msg("action.unauthorized")
		writeJSON(w, r, errorBody("Unauthorized", r), http.StatusUnauthorized)
		return
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeJSON(w, r, errorBody("Invalid request", r), http.StatusBadRequest)
		return
	}
	envelope := &schema.Envelope{}
	if err = json.Unmarshal(data, envelope); err != nil {
		log.Ctx(r.Context()).Warn().Err(err).Msg("action.invalid_envelope")
		writeJSON(w, r, errorBody("Invalid request", r), http.StatusBadRequest)
		return
	}
	writeResponse(w, r, s.service.Handle(r.Context(), envelope, r.PathValue("command")))
}

// handleCallback is the OAuth redirect target.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	response := s.service.Callback(r.Context(), &auth.CallbackRequest{
		State:       query.Get("state"),
		Code:        query.Get("code"),
		AccessToken: query.Get("access_token"),
		Error:       query.Get("error"),
	})
	writeResponse(w, r, response)
}

// New creates a server.
func New(service *auth.Service, options ...Option) *Server {
	ret := &Server{service: service}
	for _, option := range options {
		option(ret)
	}
	return ret
}
