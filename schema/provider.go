package schema

// Supported OAuth grant types.
const (
	GrantAuthorizationCode  = "Authorization Code"
	GrantClientCredentials  = "Client Credentials"
	GrantPasswordCredential = "Password Credentials"
	GrantImplicit           = "Implicit"
)

// GrantTypes lists the accepted grant type names.
var GrantTypes = []string{GrantAuthorizationCode, GrantClientCredentials, GrantPasswordCredential, GrantImplicit}

// ProviderConfig represents an OAuth provider registered for a user.
type ProviderConfig struct {
	Name           string `json:"provider_name" yaml:"name"`
	UserID         string `json:"user_id,omitempty" yaml:"-"`
	GrantType      string `json:"grant_type,omitempty" yaml:"grantType"`
	BaseURL        string `json:"base_url,omitempty" yaml:"baseURL"`
	AuthURL        string `json:"auth_url" yaml:"authURL"`
	AccessTokenURL string `json:"access_token_url" yaml:"accessTokenURL"`
	ClientID       string `json:"client_id" yaml:"clientID"`
	ClientSecret   string `json:"client_secret" yaml:"clientSecret"`
	Scope          string `json:"scope,omitempty" yaml:"scope"`
	CallbackURL    string `json:"callback_url,omitempty" yaml:"callbackURL"`
}

// Redacted returns a copy safe to show in chat or logs.
func (p ProviderConfig) Redacted() ProviderConfig {
	if p.ClientSecret != "" {
		p.ClientSecret = "********"
	}
	return p
}
