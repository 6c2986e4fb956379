package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
	"github.com/viant/cmdrelay"
	"github.com/viant/cmdrelay/config"
)

const shutdownTimeout = 10 * time.Second

func Run(args []string) error {
	options := &Options{}
	if _, err := flags.ParseArgs(options, args); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx, options.EnvFile)
	if err != nil {
		return err
	}
	if options.Addr != "" {
		cfg.Addr = options.Addr
	}
	if options.StoreURL != "" {
		cfg.StoreURL = options.StoreURL
	}
	config.SetupLogger(cfg)

	relay, err := cmdrelay.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := relay.Close(); err != nil {
			log.Error().Err(err).Msg("relay.close_failed")
		}
	}()

	srv := relay.HTTP()
	errs := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("callback", cfg.Callback()).Str("invoke", cfg.InvokeMode).Msg("relay.started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	select {
	case err, ok := <-errs:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	log.Info().Msg("relay.stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
