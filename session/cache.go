// Package session caches provider access tokens per user for a bounded time so
// repeated commands skip re-authorization.
package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/viant/cmdrelay/kv"
	"github.com/viant/cmdrelay/schema"
)

const keyPrefix = "session."

// Cache maps (user, provider) to an access token. Entries are never deleted
// explicitly; they rely on store expiry.
type Cache struct {
	kv kv.Store
}

// Key returns the store key for user and provider.
func Key(userID, provider string) string {
	return keyPrefix + userID + "." + provider
}

// Put stores the token with its TTL.
func (c *Cache) Put(ctx context.Context, token *schema.SessionToken) error {
	if token.UserID == "" || token.AccessToken == "" {
		return fmt.Errorf("session token requires user id and access token")
	}
	data, err := json.Marshal(token)
	if err != nil {
		return err
	}
	return c.kv.Put(ctx, Key(token.UserID, token.Provider), data, token.TTL())
}

// Get returns the cached token for user and provider.
func (c *Cache) Get(ctx context.Context, userID, provider string) (*schema.SessionToken, bool, error) {
	if userID == "" {
		return nil, false, nil
	}
	data, ok, err := c.kv.Get(ctx, Key(userID, provider))
	if err != nil || !ok {
		return nil, false, err
	}
	ret := &schema.SessionToken{}
	if err = json.Unmarshal(data, ret); err != nil {
		return nil, false, fmt.Errorf("invalid session token: %w", err)
	}
	if ret.AccessToken == "" {
		return nil, false, nil
	}
	ret.UserID = userID
	ret.Provider = provider
	return ret, true, nil
}

// New creates a session cache.
func New(store kv.Store) *Cache {
	return &Cache{kv: store}
}
