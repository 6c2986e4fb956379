// Package auth implements the deferred authorization relay: the Authorization
// Initiator answering chat commands and the Callback Exchanger answering the
// provider redirect.
//
// A command needing a provider token runs right away when the user has a
// cached session token. Otherwise its invocation is parked in the pending
// store under an unguessable state token and the user gets an authorization
// link. The provider redirect brings the state back with a code; the code is
// exchanged, the token cached, and the parked invocation replayed out of band
// with its result posted to the chat webhook.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/viant/cmdrelay/invoke"
	"github.com/viant/cmdrelay/message"
	"github.com/viant/cmdrelay/pending"
	"github.com/viant/cmdrelay/provider"
	"github.com/viant/cmdrelay/schema"
	"github.com/viant/cmdrelay/session"
)

// Service is the authorization relay.
type Service struct {
	Config    Config
	Pending   *pending.Manager
	Sessions  *session.Cache
	Providers *provider.Registry
	Commands  *invoke.Registry
	Runner    *invoke.Runner
	Invoker   invoke.Invoker

	httpClient *http.Client
}

type Option func(s *Service)

// WithHTTPClient sets the client used for token exchange.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Service) {
		s.httpClient = client
	}
}

// Handle answers one activation: an OAuth callback when the envelope carries
// a state, a chat command otherwise. Failures become responses.
func (s *Service) Handle(ctx context.Context, envelope *schema.Envelope, commandName string) (response *schema.Response) {
	defer func() {
		if r := recover(); r != nil {
			zerolog.Ctx(ctx).Error().Interface("panic", r).Str("command", commandName).Msg("activation.panicked")
			response = schema.NewErrorResponse(textUnexpected, http.StatusBadRequest)
		}
	}()
	if envelope.IsCallback() || envelope.State != "" || envelope.Code != "" {
		return s.Callback(ctx, &CallbackRequest{State: envelope.State, Code: envelope.Code, AccessToken: envelope.AccessToken})
	}
	return s.Authorize(ctx, envelope, commandName)
}

// Authorize runs commandName for the envelope's user when a session token is
// cached, or starts an authorization flow and answers with its link.
func (s *Service) Authorize(ctx context.Context, envelope *schema.Envelope, commandName string) *schema.Response {
	logger := zerolog.Ctx(ctx)
	if err := envelope.Validate(); err != nil {
		logger.Error().Err(err).Str("command", commandName).Msg("authorize.invalid_request")
		return schema.NewErrorResponse(textInvalidRequest, http.StatusBadRequest)
	}
	client := envelope.Params.Client
	renderer, ok := message.For(client.Name)
	if !ok {
		logger.Error().Str("client", client.Name).Str("command", commandName).Msg("authorize.unsupported_client")
		return schema.NewErrorResponse(textInvalidRequest, http.StatusBadRequest)
	}
	reply := func(m *message.Message) *schema.Response {
		return schema.NewBodyResponse(renderer.Render(m))
	}
	l := logger.With().Str("user", client.UserID).Str("command", commandName).Logger()
	ctx = l.WithContext(ctx)

	command, ok := s.Commands.Lookup(commandName)
	if !ok || command.Hidden {
		l.Warn().Msg("authorize.unknown_command")
		return reply(message.NewEphemeral(fmt.Sprintf(textUnknownCommand, message.Bold(commandName))))
	}
	request := &invoke.Request{
		Command:     command.Name,
		UserID:      client.UserID,
		Params:      envelope.Params,
		CommandText: envelope.CommandText,
		Secrets:     envelope.Secrets,
	}
	if command.Provider == "" {
		return reply(s.Runner.Execute(ctx, command, request))
	}

	token, ok, err := s.Sessions.Get(ctx, client.UserID, command.Provider)
	if err != nil {
		l.Warn().Err(err).Str("provider", command.Provider).Msg("authorize.session_lookup_failed")
	}
	if ok {
		l.Debug().Str("provider", command.Provider).Msg("authorize.session_hit")
		request.AccessToken = token.AccessToken
		return reply(s.Runner.Execute(ctx, command, request))
	}

	providerConfig, err := s.Providers.Resolve(ctx, client.UserID, command.Provider)
	if err != nil {
		l.Error().Err(err).Str("provider", command.Provider).Msg("authorize.provider_unavailable")
		return reply(message.NewEphemeral(fmt.Sprintf(textNoProvider, message.Bold(command.Provider))))
	}
	started, err := s.StartFlow(ctx, &Flow{
		Provider:    providerConfig,
		Params:      envelope.Params,
		CommandText: envelope.CommandText,
		Secrets:     envelope.Secrets,
		Callback:    command.Name,
	})
	if err != nil {
		l.Error().Err(err).Str("provider", command.Provider).Msg("authorize.flow_failed")
		return reply(message.NewEphemeral(textNoSession))
	}
	return reply(message.NewEphemeral(fmt.Sprintf(textAuthenticate, message.Link("link", started.URL))))
}

// New creates a service.
func New(config Config, options ...Option) *Service {
	config.init()
	ret := &Service{Config: config}
	for _, option := range options {
		option(ret)
	}
	if ret.httpClient == nil {
		ret.httpClient = &http.Client{}
	}
	ret.httpClient = withTimeout(ret.httpClient, ret.Config.ExchangeTimeout)
	return ret
}

func withTimeout(client *http.Client, timeout time.Duration) *http.Client {
	if client.Timeout > 0 && client.Timeout <= timeout {
		return client
	}
	ret := *client
	ret.Timeout = timeout
	return &ret
}
