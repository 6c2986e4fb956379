package cmdrelay

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/viant/cmdrelay/auth"
	"github.com/viant/cmdrelay/command/github"
	"github.com/viant/cmdrelay/command/providers"
	"github.com/viant/cmdrelay/config"
	"github.com/viant/cmdrelay/dispatch"
	"github.com/viant/cmdrelay/invoke"
	"github.com/viant/cmdrelay/kv"
	"github.com/viant/cmdrelay/pending"
	"github.com/viant/cmdrelay/provider"
	"github.com/viant/cmdrelay/server"
	"github.com/viant/cmdrelay/session"
)

// Relay is an assembled relay: stores, authorization service, invokers and
// the HTTP surface.
type Relay struct {
	Config   *config.Config
	Store    kv.Store
	Service  *auth.Service
	Commands *invoke.Registry
	Server   *server.Server

	local     *invoke.Local
	ownsStore bool
}

type options struct {
	store      kv.Store
	httpClient *http.Client
	commands   []*invoke.Command
}

type Option func(o *options)

// WithStore uses store instead of opening Config.StoreURL. The caller keeps ownership.
func WithStore(store kv.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithHTTPClient sets the client used for token exchange, webhook delivery
// and the GitHub API.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithCommands registers additional commands.
func WithCommands(commands ...*invoke.Command) Option {
	return func(o *options) {
		o.commands = append(o.commands, commands...)
	}
}

// Handler returns the relay HTTP handler.
func (r *Relay) Handler() http.Handler {
	return r.Server.Routes()
}

// HTTP returns an http.Server listening on Config.Addr.
func (r *Relay) HTTP() *http.Server {
	return r.Server.HTTP(r.Config.Addr)
}

// Wait blocks until locally started invocations finish.
func (r *Relay) Wait() {
	r.local.Wait()
}

// Close waits for local invocations and closes the store it opened.
func (r *Relay) Close() error {
	if r.local != nil {
		r.local.Wait()
	}
	if r.ownsStore {
		return r.Store.Close()
	}
	return nil
}

func clientCopy(client *http.Client) *http.Client {
	if client == nil {
		return &http.Client{}
	}
	ret := *client
	return &ret
}

// New assembles a relay from cfg.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Relay, error) {
	if cfg == nil {
		return nil, errors.New("cmdrelay: config was nil")
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	ret := &Relay{Config: cfg, Store: o.store}
	if ret.Store == nil {
		store, err := kv.Open(ctx, cfg.StoreURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open store %v: %w", cfg.StoreURL, err)
		}
		ret.Store, ret.ownsStore = store, true
	}
	registry, err := provider.New(ret.Store, cfg.Callback(), cfg.Providers...)
	if err != nil {
		_ = ret.Close()
		return nil, err
	}

	var serviceOptions []auth.Option
	if o.httpClient != nil {
		serviceOptions = append(serviceOptions, auth.WithHTTPClient(o.httpClient))
	}
	service := auth.New(auth.Config{
		PendingTTL:        cfg.PendingTTL,
		SessionTTL:        cfg.SessionTTL,
		ExchangeTimeout:   cfg.ExchangeTimeout,
		AcceptAccessToken: cfg.AcceptAccessToken,
	}, serviceOptions...)

	dispatcher := dispatch.New(
		dispatch.WithHTTPClient(clientCopy(o.httpClient)),
		dispatch.WithTimeout(cfg.DispatchTimeout),
		dispatch.WithMaxTries(cfg.DispatchMaxTries),
	)
	commands := invoke.NewRegistry((&github.Command{HTTPClient: o.httpClient}).Command())
	management := &providers.Command{Providers: registry, Flows: service, LinkValidity: cfg.LinkValidity, Duration: cfg.SessionTTL}
	commands.Register(management.Commands()...)
	commands.Register(o.commands...)

	runner := &invoke.Runner{Commands: commands, Dispatcher: dispatcher}
	ret.local = invoke.NewLocal(runner, cfg.InvokeTimeout)

	service.Pending = pending.NewManager(pending.NewStore(ret.Store))
	service.Sessions = session.New(ret.Store)
	service.Providers = registry
	service.Commands = commands
	service.Runner = runner
	service.Invoker = ret.local
	if cfg.InvokeMode == config.InvokeRemote {
		service.Invoker = invoke.NewRemote(cfg.InvokeURL, cfg.InvokeSecret, cfg.DispatchTimeout)
	}

	serverOptions := []server.Option{
		server.WithAddr(cfg.Addr),
		server.WithSlackSigningSecret(cfg.SlackSigningSecret),
		server.WithActionSecret(cfg.ActionSecret),
	}
	if cfg.InvokeSecret != "" {
		serverOptions = append(serverOptions, server.WithInvokeHandler(&invoke.Handler{Invoker: ret.local, Secret: cfg.InvokeSecret}))
	}
	ret.Service = service
	ret.Commands = commands
	ret.Server = server.New(service, serverOptions...)
	return ret, nil
}
