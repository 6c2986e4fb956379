package mock

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"

	"github.com/viant/cmdrelay/schema"
)

const (
	AuthorizePath   = "/login/oauth/authorize"
	AccessTokenPath = "/login/oauth/access_token"
)

// Provider is a mock OAuth provider.
type Provider struct {
	PrivateKey   *rsa.PrivateKey
	ClientID     string
	ClientSecret string
	// AccessToken, when set, is returned instead of a minted JWT.
	AccessToken string
	// Status, when set, is used as the token endpoint response status.
	Status int

	TokenHandler     http.HandlerFunc
	AuthorizeHandler http.HandlerFunc

	mux       sync.Mutex
	codes     []string
	exchanges atomic.Int32
	server    *httptest.Server
}

type Option func(p *Provider)

func WithAccessToken(token string) Option {
	return func(p *Provider) {
		p.AccessToken = token
	}
}

func WithStatus(status int) Option {
	return func(p *Provider) {
		p.Status = status
	}
}

// Exchanges returns the number of token endpoint calls.
func (p *Provider) Exchanges() int {
	return int(p.exchanges.Load())
}

// Codes returns the authorization codes received by the token endpoint.
func (p *Provider) Codes() []string {
	p.mux.Lock()
	defer p.mux.Unlock()
	return append([]string(nil), p.codes...)
}

// URL returns the provider base URL.
func (p *Provider) URL() string {
	return p.server.URL
}

// Config returns a provider config pointing at the mock.
func (p *Provider) Config(name, callbackURL string) schema.ProviderConfig {
	return schema.ProviderConfig{
		Name:           name,
		GrantType:      schema.GrantAuthorizationCode,
		BaseURL:        p.server.URL,
		AuthURL:        p.server.URL + AuthorizePath,
		AccessTokenURL: p.server.URL + AccessTokenPath,
		ClientID:       p.ClientID,
		ClientSecret:   p.ClientSecret,
		Scope:          "user:email,read:org",
		CallbackURL:    callbackURL,
	}
}

// Close stops the provider.
func (p *Provider) Close() {
	p.server.Close()
}

func (p *Provider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case AccessTokenPath:
		p.exchanges.Add(1)
		if p.TokenHandler != nil {
			p.TokenHandler(w, r)
			return
		}
		p.defaultTokenHandler(w, r)
	case AuthorizePath:
		if p.AuthorizeHandler != nil {
			p.AuthorizeHandler(w, r)
			return
		}
		p.defaultAuthorizeHandler(w, r)
	default:
		http.NotFound(w, r)
	}
}

// New starts a mock provider.
func New(opts ...Option) (*Provider, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA key: %v", err)
	}
	ret := &Provider{PrivateKey: privateKey, ClientID: "test_client_id", ClientSecret: "test_client_secret"}
	for _, opt := range opts {
		opt(ret)
	}
	ret.server = httptest.NewServer(ret)
	return ret, nil
}
