package pending

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/viant/cmdrelay/kv"
	"github.com/viant/cmdrelay/schema"
)

// Store persists pending invocations in a kv.Store under the raw state token.
type Store struct {
	kv  kv.Store
	now func() time.Time
}

// Put writes the entry with its own TTL.
func (s *Store) Put(ctx context.Context, p *schema.PendingInvocation) error {
	if p.StateToken == "" {
		return schema.NewError(schema.ErrStoreWrite, "could not create a session", fmt.Errorf("empty state token"))
	}
	data, err := json.Marshal(p)
	if err != nil {
		return schema.NewError(schema.ErrStoreWrite, "could not create a session", err)
	}
	if err = s.kv.Put(ctx, p.StateToken, data, p.TTL()); err != nil {
		return schema.NewError(schema.ErrStoreWrite, "could not create a session", err)
	}
	return nil
}

// Get returns the live entry for token.
func (s *Store) Get(ctx context.Context, token string) (*schema.PendingInvocation, bool, error) {
	if token == "" {
		return nil, false, nil
	}
	data, ok, err := s.kv.Get(ctx, token)
	return s.decode(data, ok, err)
}

// Take returns the live entry for token and removes it.
func (s *Store) Take(ctx context.Context, token string) (*schema.PendingInvocation, bool, error) {
	if token == "" {
		return nil, false, nil
	}
	data, ok, err := s.kv.Take(ctx, token)
	return s.decode(data, ok, err)
}

func (s *Store) decode(data []byte, ok bool, err error) (*schema.PendingInvocation, bool, error) {
	if err != nil || !ok {
		return nil, false, err
	}
	ret := &schema.PendingInvocation{}
	if err = json.Unmarshal(data, ret); err != nil {
		return nil, false, fmt.Errorf("invalid pending invocation: %w", err)
	}
	// backend expiry may lag behind; the entry's own deadline is authoritative
	if ret.Expired(s.now()) {
		return nil, false, nil
	}
	return ret, true, nil
}

type StoreOption func(s *Store)

// WithClock overrides the time source deciding entry expiry.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates a pending invocation store.
func NewStore(store kv.Store, options ...StoreOption) *Store {
	ret := &Store{kv: store, now: time.Now}
	for _, option := range options {
		option(ret)
	}
	return ret
}
