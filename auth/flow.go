package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/viant/cmdrelay/pending"
	"github.com/viant/cmdrelay/provider"
	"github.com/viant/cmdrelay/schema"
)

type (
	// Flow describes an authorization to start: which provider to authorize
	// with and which command to replay once authorized.
	Flow struct {
		Provider    *schema.ProviderConfig
		Params      schema.Params
		CommandText string
		Secrets     map[string]string
		// Callback names the command replayed after authorization.
		Callback string
		// TTL bounds the link validity; zero uses the configured pending TTL.
		TTL time.Duration
		// SessionTTL is how long the obtained token is cached; zero uses the configured session TTL.
		SessionTTL time.Duration
	}

	// Started is an authorization waiting for the user.
	Started struct {
		URL     string
		Pending *schema.PendingInvocation
	}
)

// StartFlow parks the invocation under a fresh state token and returns the
// provider authorization URL embedding it.
func (s *Service) StartFlow(ctx context.Context, flow *Flow) (*Started, error) {
	if flow.Provider == nil {
		return nil, schema.NewError(schema.ErrMisconfigured, textMisconfigured, fmt.Errorf("flow has no provider"))
	}
	if flow.Callback == "" {
		return nil, schema.NewError(schema.ErrInvalidRequest, textInvalidRequest, fmt.Errorf("flow has no callback"))
	}
	ttl := flow.TTL
	if ttl <= 0 {
		ttl = s.Config.PendingTTL
	}
	sessionTTL := flow.SessionTTL
	if sessionTTL <= 0 {
		sessionTTL = s.Config.SessionTTL
	}
	p, err := s.Pending.Create(ctx, pending.Input{
		Provider:    flow.Provider.Name,
		Params:      flow.Params,
		CommandText: flow.CommandText,
		Secrets:     flow.Secrets,
		Callback:    flow.Callback,
		TTL:         ttl,
		SessionTTL:  sessionTTL,
	})
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().
		Str("state", statePrefix(p.StateToken)).
		Str("provider", p.Provider).
		Str("callback", p.Callback).
		Int("ttl", p.TTLSeconds).
		Msg("pending.stored")
	return &Started{URL: provider.AuthCodeURL(flow.Provider, p.StateToken), Pending: p}, nil
}

// statePrefix returns a loggable fragment of a state token.
func statePrefix(state string) string {
	if len(state) > 6 {
		return state[:6]
	}
	return state
}
