package schema

import "time"

// PendingInvocation represents a command invocation paused while the user authorizes.
type PendingInvocation struct {
	StateToken  string            `json:"stateToken"`
	Provider    string            `json:"provider"`
	Params      Params            `json:"savedParams"`
	CommandText string            `json:"commandText,omitempty"`
	Secrets     map[string]string `json:"secretsSnapshot,omitempty"`
	Callback    string            `json:"callbackIdentifier"`
	CreatedAt   time.Time         `json:"createdAt"`
	TTLSeconds  int               `json:"ttlSeconds"`
	// SessionTTLSeconds is the lifetime of the session token obtained on completion.
	SessionTTLSeconds int `json:"sessionTtlSeconds,omitempty"`
}

// UserID returns the requesting user id, or empty when params lack a client.
func (p *PendingInvocation) UserID() string {
	if p.Params.Client == nil {
		return ""
	}
	return p.Params.Client.UserID
}

// Webhook returns the response URL captured at flow start.
func (p *PendingInvocation) Webhook() string {
	if p.Params.Client == nil {
		return ""
	}
	return p.Params.Client.ResponseURL
}

// TTL returns the entry lifetime.
func (p *PendingInvocation) TTL() time.Duration {
	return time.Duration(p.TTLSeconds) * time.Second
}

// ExpiresAt returns the time after which the entry is invalid.
func (p *PendingInvocation) ExpiresAt() time.Time {
	return p.CreatedAt.Add(p.TTL())
}

// Expired returns true if the entry is no longer valid at now.
func (p *PendingInvocation) Expired(now time.Time) bool {
	return p.TTLSeconds > 0 && !now.Before(p.ExpiresAt())
}
