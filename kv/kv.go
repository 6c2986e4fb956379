package kv

import (
	"context"
	"time"
)

// Store is a key-value store with per-key expiry.
type Store interface {
	// Put writes value under key; ttl <= 0 means no expiry.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Get returns the live value for key.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Take returns the live value for key and deletes it.
	Take(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, key string) error
	// Keys returns sorted live keys starting with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

type entry struct {
	Value     []byte    `json:"value"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

func newEntry(value []byte, ttl time.Duration, now time.Time) entry {
	e := entry{Value: value}
	if ttl > 0 {
		e.ExpiresAt = now.Add(ttl)
	}
	return e
}

func (e entry) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}
