// Package provider keeps OAuth provider configurations: static ones declared
// in configuration and per-user ones registered through the auth command.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/viant/cmdrelay/kv"
	"github.com/viant/cmdrelay/schema"
	"golang.org/x/oauth2"
)

const keyPrefix = "auth."

// Key returns the store key for a user provider.
func Key(userID, name string) string {
	return keyPrefix + userID + "." + name
}

// Registry resolves provider configurations. At most one configuration exists
// per (user, provider name); Add overwrites.
type Registry struct {
	kv          kv.Store
	static      map[string]*schema.ProviderConfig
	callbackURL string
}

// Static returns a statically configured provider.
func (r *Registry) Static(name string) (*schema.ProviderConfig, bool) {
	p, ok := r.static[name]
	return p, ok
}

// Add validates and stores a user provider.
func (r *Registry) Add(ctx context.Context, p *schema.ProviderConfig) (*schema.ProviderConfig, error) {
	if p.UserID == "" {
		return nil, schema.NewError(schema.ErrInvalidRequest, "Invalid request", fmt.Errorf("provider user id was empty"))
	}
	if p.CallbackURL == "" {
		p.CallbackURL = r.callbackURL
	}
	if err := Validate(p); err != nil {
		return nil, err
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	if err = r.kv.Put(ctx, Key(p.UserID, p.Name), data, 0); err != nil {
		return nil, schema.NewError(schema.ErrStoreWrite, "could not save provider", err)
	}
	return p, nil
}

// Get returns the user provider.
func (r *Registry) Get(ctx context.Context, userID, name string) (*schema.ProviderConfig, bool, error) {
	data, ok, err := r.kv.Get(ctx, Key(userID, name))
	return decode(data, ok, err)
}

// Remove deletes and returns the user provider.
func (r *Registry) Remove(ctx context.Context, userID, name string) (*schema.ProviderConfig, bool, error) {
	data, ok, err := r.kv.Take(ctx, Key(userID, name))
	return decode(data, ok, err)
}

// List returns user providers sorted by name.
func (r *Registry) List(ctx context.Context, userID string) ([]*schema.ProviderConfig, error) {
	keys, err := r.kv.Keys(ctx, keyPrefix+userID+".")
	if err != nil {
		return nil, err
	}
	ret := make([]*schema.ProviderConfig, 0, len(keys))
	for _, key := range keys {
		data, ok, err := r.kv.Get(ctx, key)
		p, ok, err := decode(data, ok, err)
		if err != nil {
			return nil, err
		}
		if ok {
			ret = append(ret, p)
		}
	}
	return ret, nil
}

// Resolve returns the user's provider, falling back to a static one.
func (r *Registry) Resolve(ctx context.Context, userID, name string) (*schema.ProviderConfig, error) {
	if userID != "" {
		p, ok, err := r.Get(ctx, userID, name)
		if err != nil {
			return nil, err
		}
		if ok {
			return p, nil
		}
	}
	if p, ok := r.static[name]; ok {
		return p, nil
	}
	return nil, schema.NewError(schema.ErrProviderNotFound, fmt.Sprintf("Couldn't find provider with name *%v*", name), nil)
}

func decode(data []byte, ok bool, err error) (*schema.ProviderConfig, bool, error) {
	if err != nil || !ok {
		return nil, false, err
	}
	ret := &schema.ProviderConfig{}
	if err = json.Unmarshal(data, ret); err != nil {
		return nil, false, fmt.Errorf("invalid provider config: %w", err)
	}
	return ret, true, nil
}

// Validate checks required fields and fills auth/token URLs from the base URL.
func Validate(p *schema.ProviderConfig) error {
	p.AuthURL = NormalizeURL(p.AuthURL)
	p.AccessTokenURL = NormalizeURL(p.AccessTokenURL)
	p.BaseURL = NormalizeURL(p.BaseURL)
	p.CallbackURL = NormalizeURL(p.CallbackURL)
	if p.GrantType == "" {
		p.GrantType = schema.GrantAuthorizationCode
	}
	invalid := func(message string) error {
		return schema.NewError(schema.ErrInvalidRequest, message, nil)
	}
	switch {
	case p.Name == "":
		return invalid("*please specify provider name* e.g. name=twitter")
	case !slices.Contains(schema.GrantTypes, p.GrantType):
		return invalid("*valid grant_types are: " + strings.Join(schema.GrantTypes, ", ") + "*")
	case p.AuthURL == "" && p.BaseURL == "":
		return invalid("*please specify auth_url or base_url* e.g. base_url=github.com")
	case p.AccessTokenURL == "" && p.BaseURL == "":
		return invalid("*please specify access_token_url or base_url* e.g. base_url=github.com")
	case p.CallbackURL == "":
		return invalid("*please specify callback_url*")
	case p.ClientID == "":
		return invalid("*please specify client_id*")
	case p.ClientSecret == "":
		return invalid("*please specify client_secret*")
	case p.Scope == "":
		return invalid("*please specify scope*")
	}
	if p.AuthURL == "" {
		p.AuthURL = p.BaseURL + "/login/oauth/authorize"
	}
	if p.AccessTokenURL == "" {
		p.AccessTokenURL = p.BaseURL + "/login/oauth/access_token"
	}
	return nil
}

// NormalizeURL strips chat link markup (<url> or <url|label>) and defaults the scheme to https.
func NormalizeURL(URL string) string {
	URL = strings.TrimSpace(URL)
	if URL == "" {
		return ""
	}
	URL = strings.TrimSuffix(strings.TrimPrefix(URL, "<"), ">")
	if index := strings.Index(URL, "|"); index != -1 {
		URL = URL[:index]
	}
	if !strings.HasPrefix(URL, "http://") && !strings.HasPrefix(URL, "https://") {
		URL = "https://" + URL
	}
	return strings.TrimSuffix(URL, "/")
}

// OAuth2Config builds the client configuration; client credentials travel as parameters.
func OAuth2Config(p *schema.ProviderConfig) *oauth2.Config {
	ret := &oauth2.Config{
		ClientID:     p.ClientID,
		ClientSecret: p.ClientSecret,
		RedirectURL:  p.CallbackURL,
		Endpoint: oauth2.Endpoint{
			AuthURL:   p.AuthURL,
			TokenURL:  p.AccessTokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	if p.Scope != "" {
		ret.Scopes = []string{p.Scope}
	}
	return ret
}

// AuthCodeURL returns the authorization link embedding state.
func AuthCodeURL(p *schema.ProviderConfig, state string) string {
	return OAuth2Config(p).AuthCodeURL(state, oauth2.SetAuthURLParam("allow_signup", "false"))
}

// New creates a registry; static providers get callbackURL when they declare none.
func New(store kv.Store, callbackURL string, static ...schema.ProviderConfig) (*Registry, error) {
	ret := &Registry{kv: store, static: map[string]*schema.ProviderConfig{}, callbackURL: callbackURL}
	for i := range static {
		p := static[i]
		if p.CallbackURL == "" {
			p.CallbackURL = callbackURL
		}
		if err := Validate(&p); err != nil {
			return nil, fmt.Errorf("invalid static provider %v: %w", p.Name, err)
		}
		ret.static[p.Name] = &p
	}
	return ret, nil
}
