package pending

import (
	"context"
	"errors"
	"time"

	"github.com/viant/cmdrelay/schema"
	"github.com/viant/scy/auth/flow"
)

// ErrMisconfigured indicates a missing Store.
var ErrMisconfigured = errors.New("pending: misconfigured manager (missing Store)")

// Manager creates pending invocations with fresh state tokens.
type Manager struct {
	Store *Store
	// NewToken returns an unpredictable URL-safe token.
	NewToken func() string
	Now      func() time.Time
}

// Create generates a state token, stamps the creation time and stores the entry.
func (m *Manager) Create(ctx context.Context, input Input) (*schema.PendingInvocation, error) {
	if m.Store == nil {
		return nil, ErrMisconfigured
	}
	newToken := m.NewToken
	if newToken == nil {
		newToken = flow.GenerateCodeVerifier
	}
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	p := &schema.PendingInvocation{
		StateToken:        newToken(),
		Provider:          input.Provider,
		Params:            input.Params,
		CommandText:       input.CommandText,
		Secrets:           input.Secrets,
		Callback:          input.Callback,
		CreatedAt:         now().UTC(),
		TTLSeconds:        seconds(input.TTL),
		SessionTTLSeconds: seconds(input.SessionTTL),
	}
	if err := m.Store.Put(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Complete takes the entry for token; absent or expired entries yield ErrSessionExpired.
func (m *Manager) Complete(ctx context.Context, token string) (*schema.PendingInvocation, error) {
	if m.Store == nil {
		return nil, ErrMisconfigured
	}
	p, ok, err := m.Store.Take(ctx, token)
	if err != nil {
		return nil, schema.NewError(schema.ErrSessionExpired, "Your session has expired", err)
	}
	if !ok {
		return nil, schema.NewError(schema.ErrSessionExpired, "Your session has expired", nil)
	}
	return p, nil
}

// seconds rounds up so a sub-second TTL does not become "no expiry".
func seconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

// NewManager creates a manager over store.
func NewManager(store *Store) *Manager {
	return &Manager{Store: store}
}
