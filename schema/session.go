package schema

import "time"

// SessionToken is a cached provider access token for a user.
type SessionToken struct {
	UserID      string `json:"-"`
	Provider    string `json:"-"`
	AccessToken string `json:"access_token"`
	TTLSeconds  int    `json:"-"`
}

// TTL returns the token lifetime.
func (s *SessionToken) TTL() time.Duration {
	return time.Duration(s.TTLSeconds) * time.Second
}
