package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/viant/cmdrelay/invoke"
	"github.com/viant/cmdrelay/provider"
	"github.com/viant/cmdrelay/schema"
	"golang.org/x/oauth2"
)

// CallbackRequest is the provider redirect.
type CallbackRequest struct {
	State       string
	Code        string
	AccessToken string
	// Error is the provider's error code when the user declined.
	Error string
}

// Callback completes an authorization: it takes the pending invocation for
// the state, exchanges the code, caches the token and replays the invocation
// without waiting for it. The response is meant for the browser.
func (s *Service) Callback(ctx context.Context, request *CallbackRequest) *schema.Response {
	logger := zerolog.Ctx(ctx).With().Str("state", statePrefix(request.State)).Logger()
	ctx = logger.WithContext(ctx)

	preExchanged := request.Code == "" && request.AccessToken != "" && s.Config.AcceptAccessToken
	if request.Code == "" && !preExchanged {
		logger.Warn().Str("reason", request.Error).Bool("accessToken", request.AccessToken != "").Msg("callback.not_authenticated")
		return schema.NewErrorResponse(textNotAuthorized, http.StatusBadRequest)
	}
	if request.State == "" {
		logger.Warn().Msg("callback.missing_state")
		return schema.NewErrorResponse(textCouldNotAuth, http.StatusBadRequest)
	}
	p, err := s.Pending.Complete(ctx, request.State)
	if err != nil {
		logger.Error().Err(err).Msg("callback.session_expired")
		return schema.NewErrorResponse(textSessionExpired, http.StatusBadRequest)
	}
	userID := p.UserID()
	if userID == "" || p.Webhook() == "" || p.Callback == "" {
		logger.Error().Str("callback", p.Callback).Msg("callback.incomplete_pending")
		return schema.NewErrorResponse(textSessionExpired, http.StatusBadRequest)
	}
	logger = logger.With().Str("user", userID).Str("provider", p.Provider).Str("callback", p.Callback).Logger()
	ctx = logger.WithContext(ctx)

	accessToken := request.AccessToken
	if !preExchanged {
		providerConfig, err := s.Providers.Resolve(ctx, userID, p.Provider)
		if err == nil && (providerConfig.ClientID == "" || providerConfig.ClientSecret == "" || providerConfig.AccessTokenURL == "") {
			err = fmt.Errorf("provider %v is missing client credentials or token url", p.Provider)
		}
		if err != nil {
			logger.Error().Err(err).Msg("callback.misconfigured")
			return schema.NewErrorResponse(textMisconfigured, http.StatusBadRequest)
		}
		if accessToken, err = s.exchange(ctx, providerConfig, request.Code); err != nil {
			logger.Error().Err(err).Msg("callback.exchange_failed")
			return schema.NewErrorResponse(textExchangeFailed, http.StatusBadRequest)
		}
	}

	err = s.Sessions.Put(ctx, &schema.SessionToken{UserID: userID, Provider: p.Provider, AccessToken: accessToken, TTLSeconds: p.SessionTTLSeconds})
	if err != nil {
		logger.Error().Err(err).Msg("callback.session_store_failed")
	}

	activationID, err := s.Invoker.Invoke(ctx, invoke.Invocation{
		Command:     p.Callback,
		Provider:    p.Provider,
		AccessToken: accessToken,
		Params:      p.Params,
		CommandText: p.CommandText,
		Secrets:     p.Secrets,
	})
	if err != nil {
		logger.Error().Err(err).Msg("callback.invoke_failed")
		return schema.NewErrorResponse(schema.UserMessage(err), http.StatusBadRequest)
	}
	logger.Info().Str("activation", activationID).Msg("callback.reinvoked")
	return schema.NewTextResponse(fmt.Sprintf(textAuthorized, clientTitle(p.Params.Client)))
}

// exchange trades code for an access token; the call is bounded by the
// exchange timeout and never retried.
func (s *Service) exchange(ctx context.Context, p *schema.ProviderConfig, code string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Config.ExchangeTimeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	token, err := provider.OAuth2Config(p).Exchange(ctx, code)
	if err != nil {
		return "", schema.NewError(schema.ErrExchangeFailed, textExchangeFailed, err)
	}
	if token.AccessToken == "" {
		return "", schema.NewError(schema.ErrExchangeFailed, textExchangeFailed, fmt.Errorf("token response has no access_token"))
	}
	return token.AccessToken, nil
}

func clientTitle(client *schema.Client) string {
	if client == nil || client.Name == "" {
		return "chat"
	}
	return strings.ToUpper(client.Name[:1]) + client.Name[1:]
}
