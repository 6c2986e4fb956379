// Package function exposes the relay as a Cloud Functions HTTP function named
// Relay. The relay is built from environment configuration on first request.
package function

import (
	"context"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/rs/zerolog/log"
	"github.com/viant/cmdrelay"
	"github.com/viant/cmdrelay/config"
)

const entryPoint = "Relay"

var (
	once    sync.Once
	handler http.Handler
	initErr error
)

func init() {
	functions.HTTP(entryPoint, Relay)
}

// Relay serves one function invocation.
func Relay(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		handler, initErr = build(context.Background(), os.Environ())
	})
	if initErr != nil {
		log.Error().Err(initErr).Msg("function.init_failed")
		http.Error(w, "relay is not configured", http.StatusServiceUnavailable)
		return
	}
	handler.ServeHTTP(w, r)
}

func build(ctx context.Context, environ []string) (http.Handler, error) {
	cfg, err := config.FromEnv(ctx, environ)
	if err != nil {
		return nil, err
	}
	config.SetupLogger(cfg)
	relay, err := cmdrelay.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return relay.Handler(), nil
}
