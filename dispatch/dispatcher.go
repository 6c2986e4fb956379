// Package dispatch posts command results to chat webhooks.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
	"github.com/viant/cmdrelay/schema"
)

const (
	DefaultTimeout  = 10 * time.Second
	DefaultMaxTries = 3
)

// Dispatcher delivers JSON payloads to webhook URLs.
type Dispatcher struct {
	client *http.Client
	// MaxTries bounds attempts for connection errors and 5xx responses; 4xx are not retried.
	MaxTries     uint
	InitialDelay time.Duration
}

type Option func(d *Dispatcher)

// WithTimeout sets the per-attempt timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.client.Timeout = timeout
		}
	}
}

// WithMaxTries sets the attempt bound.
func WithMaxTries(tries uint) Option {
	return func(d *Dispatcher) {
		if tries > 0 {
			d.MaxTries = tries
		}
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(d *Dispatcher) {
		d.client = client
	}
}

// Post sends payload as JSON to webhookURL.
func (d *Dispatcher) Post(ctx context.Context, webhookURL string, payload any) error {
	if webhookURL == "" {
		return schema.NewError(schema.ErrDelivery, "Missing response_url", nil)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return schema.NewError(schema.ErrDelivery, "Invalid payload", err)
	}
	policy := backoff.NewExponentialBackOff()
	if d.InitialDelay > 0 {
		policy.InitialInterval = d.InitialDelay
	}
	attempt := 0
	_, err = backoff.Retry(ctx, func() (int, error) {
		attempt++
		return d.post(ctx, webhookURL, data)
	}, backoff.WithBackOff(policy), backoff.WithMaxTries(d.MaxTries))
	if err != nil {
		zerolog.Ctx(ctx).Debug().Int("attempts", attempt).Msg("dispatch.gave_up")
		return schema.NewError(schema.ErrDelivery, "Failed to deliver result", err)
	}
	return nil
}

func (d *Dispatcher) post(ctx context.Context, URL string, data []byte) (int, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, URL, bytes.NewReader(data))
	if err != nil {
		return 0, backoff.Permanent(err)
	}
	request.Header.Set("Content-Type", "application/json")
	response, err := d.client.Do(request)
	if err != nil {
		return 0, err
	}
	defer response.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(response.Body, 64*1024))
	switch {
	case response.StatusCode >= http.StatusInternalServerError:
		return response.StatusCode, fmt.Errorf("webhook responded with %d", response.StatusCode)
	case response.StatusCode >= http.StatusBadRequest:
		return response.StatusCode, backoff.Permanent(fmt.Errorf("webhook responded with %d", response.StatusCode))
	}
	return response.StatusCode, nil
}

// Deliver posts payload and logs a failure instead of returning it; delivery
// errors never affect the outcome of the activation.
func (d *Dispatcher) Deliver(ctx context.Context, webhookURL string, payload any) {
	if err := d.Post(ctx, webhookURL, payload); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("dispatch.delivery_failed")
		return
	}
	zerolog.Ctx(ctx).Debug().Msg("dispatch.delivered")
}

// New creates a dispatcher.
func New(options ...Option) *Dispatcher {
	ret := &Dispatcher{client: &http.Client{Timeout: DefaultTimeout}, MaxTries: DefaultMaxTries}
	for _, option := range options {
		option(ret)
	}
	return ret
}
