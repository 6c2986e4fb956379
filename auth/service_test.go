package auth

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/cmdrelay/dispatch"
	"github.com/viant/cmdrelay/invoke"
	"github.com/viant/cmdrelay/kv"
	"github.com/viant/cmdrelay/message"
	"github.com/viant/cmdrelay/pending"
	"github.com/viant/cmdrelay/provider"
	"github.com/viant/cmdrelay/provider/mock"
	"github.com/viant/cmdrelay/schema"
	"github.com/viant/cmdrelay/session"
)

const callbackURL = "https://relay.example/callback"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	service  *Service
	store    kv.Store
	clock    *fakeClock
	provider *mock.Provider
	local    *invoke.Local
	received chan *invoke.Request
}

type failingKV struct {
	kv.Store
}

func (f *failingKV) Put(context.Context, string, []byte, time.Duration) error {
	return errors.New("READONLY You can't write against a read only replica")
}

func newFixture(t *testing.T, config Config, options ...mock.Option) *fixture {
	oauthProvider, err := mock.New(options...)
	require.NoError(t, err)
	t.Cleanup(oauthProvider.Close)

	clock := &fakeClock{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	store := kv.NewMemoryStore(kv.WithClock(clock.Now))
	registry, err := provider.New(store, callbackURL, oauthProvider.Config("github", ""))
	require.NoError(t, err)

	received := make(chan *invoke.Request, 4)
	commands := invoke.NewRegistry(&invoke.Command{
		Name:     "github",
		Provider: "github",
		Run: func(ctx context.Context, request *invoke.Request) (*message.Message, error) {
			received <- request
			return message.NewInChannel("hello " + request.AccessToken), nil
		},
	}, &invoke.Command{
		Name: "ping",
		Run: func(ctx context.Context, request *invoke.Request) (*message.Message, error) {
			return message.NewEphemeral("pong"), nil
		},
	}, &invoke.Command{
		Name:   "auth.confirm",
		Hidden: true,
		Run: func(ctx context.Context, request *invoke.Request) (*message.Message, error) {
			return message.NewEphemeral("confirmed"), nil
		},
	})
	runner := &invoke.Runner{Commands: commands, Dispatcher: dispatch.New(dispatch.WithTimeout(time.Second))}
	local := invoke.NewLocal(runner, time.Second)

	manager := pending.NewManager(pending.NewStore(store, pending.WithClock(clock.Now)))
	manager.Now = clock.Now
	service := New(config)
	service.Pending = manager
	service.Sessions = session.New(store)
	service.Providers = registry
	service.Commands = commands
	service.Runner = runner
	service.Invoker = local
	return &fixture{service: service, store: store, clock: clock, provider: oauthProvider, local: local, received: received}
}

func commandEnvelope(webhookURL string) *schema.Envelope {
	return &schema.Envelope{
		Params: schema.Params{
			Client: &schema.Client{UserID: "U1", ResponseURL: webhookURL, Name: "slack"},
			Args:   map[string]any{"action": "whoami"},
		},
		CommandText: "/github whoami",
		Secrets:     map[string]string{"org": "viant"},
	}
}

var stateExpr = regexp.MustCompile(`state=([A-Za-z0-9_.~\-]+)`)

func chatText(t *testing.T, response *schema.Response) string {
	require.Equal(t, http.StatusOK, response.StatusCode)
	msg, ok := response.Body.(*slack.Msg)
	require.True(t, ok, "expected slack payload, got %T", response.Body)
	return msg.Text
}

func errorText(t *testing.T, response *schema.Response) string {
	require.Equal(t, http.StatusBadRequest, response.StatusCode)
	body, ok := response.Body.(*schema.ErrorBody)
	require.True(t, ok, "expected error body, got %T", response.Body)
	return body.Error
}

func (f *fixture) keys(t *testing.T) []string {
	keys, err := f.store.Keys(context.Background(), "")
	require.NoError(t, err)
	return keys
}

func TestService_AuthorizeWithSession(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	require.NoError(t, f.service.Sessions.Put(ctx, &schema.SessionToken{UserID: "U1", Provider: "github", AccessToken: "cached", TTLSeconds: 60}))

	response := f.service.Handle(ctx, commandEnvelope("https://hooks.example/abc"), "github")
	assert.Equal(t, "hello cached", chatText(t, response))
	assert.Equal(t, []string{session.Key("U1", "github")}, f.keys(t), "no pending invocation is created")
	request := <-f.received
	assert.Equal(t, "U1", request.UserID)
	assert.Equal(t, "viant", request.Secrets["org"])
}

func TestService_AuthorizeStartsFlow(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	envelope := commandEnvelope("https://hooks.example/abc")

	response := f.service.Handle(ctx, envelope, "github")
	text := chatText(t, response)
	assert.Equal(t, message.Ephemeral, response.Body.(*slack.Msg).ResponseType)
	assert.Contains(t, text, "You need to authenticate to perform this operation. Please click this <")
	assert.Contains(t, text, "allow_signup=false")
	match := stateExpr.FindStringSubmatch(text)
	require.Len(t, match, 2)

	keys := f.keys(t)
	require.Len(t, keys, 1, "exactly one pending invocation")
	assert.Equal(t, match[1], keys[0])
	assert.Empty(t, f.received, "command does not run before authorization")

	saved, ok, err := f.service.Pending.Store.Get(ctx, match[1])
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, envelope.Params, saved.Params)
	assert.Equal(t, "github", saved.Callback)
	assert.Equal(t, 60, saved.TTLSeconds)
}

func TestService_AuthorizeFailures(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	invalid := commandEnvelope("")
	assert.Equal(t, "Invalid request", errorText(t, f.service.Handle(ctx, invalid, "github")))

	unsupported := commandEnvelope("https://hooks.example/abc")
	unsupported.Params.Client.Name = "webhook"
	assert.Equal(t, "Invalid request", errorText(t, f.service.Handle(ctx, unsupported, "github")))

	assert.Equal(t, "Unknown command *deploy*", chatText(t, f.service.Handle(ctx, commandEnvelope("https://hooks.example/abc"), "deploy")))
	assert.Equal(t, "Unknown command *auth.confirm*", chatText(t, f.service.Handle(ctx, commandEnvelope("https://hooks.example/abc"), "auth.confirm")))
	assert.Equal(t, "pong", chatText(t, f.service.Handle(ctx, commandEnvelope("https://hooks.example/abc"), "ping")))

	f.service.Pending.Store = pending.NewStore(&failingKV{Store: f.store})
	text := chatText(t, f.service.Handle(ctx, commandEnvelope("https://hooks.example/abc"), "github"))
	assert.Equal(t, textNoSession, text)
}

func TestService_Callback(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	webhook := newWebhook(t)
	envelope := commandEnvelope(webhook.URL)

	state := stateExpr.FindStringSubmatch(chatText(t, f.service.Handle(ctx, envelope, "github")))[1]
	response := f.service.Handle(ctx, &schema.Envelope{State: state, Code: "abc123"}, "github")
	require.Equal(t, http.StatusOK, response.StatusCode)
	assert.Equal(t, "You are authorized to perform the requested operation. Check Slack for progress. You may close this browser tab.", response.Body)
	f.local.Wait()

	assert.Equal(t, []string{"abc123"}, f.provider.Codes())
	token, ok, err := f.service.Sessions.Get(ctx, "U1", "github")
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEmpty(t, token.AccessToken)

	request := <-f.received
	assert.Equal(t, token.AccessToken, request.AccessToken)
	assert.Equal(t, envelope.Params, request.Params)
	assert.Equal(t, envelope.CommandText, request.CommandText)
	assert.Equal(t, envelope.Secrets, request.Secrets)

	payload := <-webhook.payloads
	assert.Equal(t, "hello "+token.AccessToken, payload["text"])

	replay := f.service.Handle(ctx, &schema.Envelope{State: state, Code: "abc123"}, "github")
	assert.Equal(t, "Your session has expired", errorText(t, replay), "state tokens are single use")
	assert.Equal(t, 1, f.provider.Exchanges())
}

func TestService_CallbackFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown state", func(t *testing.T) {
		f := newFixture(t, Config{})
		response := f.service.Callback(ctx, &CallbackRequest{State: "never-stored", Code: "abc123"})
		assert.Equal(t, "Your session has expired", errorText(t, response))
		assert.Equal(t, 0, f.provider.Exchanges())
	})

	t.Run("missing code", func(t *testing.T) {
		f := newFixture(t, Config{})
		response := f.service.Callback(ctx, &CallbackRequest{State: "s", Error: "access_denied"})
		assert.Equal(t, "You did not authenticate", errorText(t, response))
	})

	t.Run("expired state", func(t *testing.T) {
		f := newFixture(t, Config{PendingTTL: time.Second})
		state := stateExpr.FindStringSubmatch(chatText(t, f.service.Handle(ctx, commandEnvelope("https://hooks.example/abc"), "github")))[1]
		f.clock.Advance(2 * time.Second)
		for i := 0; i < 2; i++ {
			response := f.service.Callback(ctx, &CallbackRequest{State: state, Code: "abc123"})
			assert.Equal(t, "Your session has expired", errorText(t, response))
		}
		assert.Equal(t, 0, f.provider.Exchanges())
		assert.Empty(t, f.keys(t))
	})

	t.Run("exchange rejected", func(t *testing.T) {
		f := newFixture(t, Config{}, mock.WithStatus(http.StatusBadGateway))
		state := stateExpr.FindStringSubmatch(chatText(t, f.service.Handle(ctx, commandEnvelope("https://hooks.example/abc"), "github")))[1]
		response := f.service.Callback(ctx, &CallbackRequest{State: state, Code: "abc123"})
		assert.Equal(t, "Failed to exchange code for access_token", errorText(t, response))
		assert.Equal(t, 1, f.provider.Exchanges(), "exchange is not retried")
		_, ok, err := f.service.Sessions.Get(ctx, "U1", "github")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, f.received)
	})

	t.Run("provider unreachable", func(t *testing.T) {
		f := newFixture(t, Config{})
		state := stateExpr.FindStringSubmatch(chatText(t, f.service.Handle(ctx, commandEnvelope("https://hooks.example/abc"), "github")))[1]
		f.provider.Close()
		response := f.service.Callback(ctx, &CallbackRequest{State: state, Code: "abc123"})
		assert.Equal(t, "Failed to exchange code for access_token", errorText(t, response))
		_, ok, _ := f.service.Sessions.Get(ctx, "U1", "github")
		assert.False(t, ok)
	})
}

func TestService_CallbackPreExchanged(t *testing.T) {
	ctx := context.Background()
	webhook := newWebhook(t)

	f := newFixture(t, Config{})
	state := stateExpr.FindStringSubmatch(chatText(t, f.service.Handle(ctx, commandEnvelope(webhook.URL), "github")))[1]
	response := f.service.Handle(ctx, &schema.Envelope{State: state, AccessToken: "tok1"}, "github")
	assert.Equal(t, "You did not authenticate", errorText(t, response))

	f = newFixture(t, Config{AcceptAccessToken: true})
	state = stateExpr.FindStringSubmatch(chatText(t, f.service.Handle(ctx, commandEnvelope(webhook.URL), "github")))[1]
	response = f.service.Handle(ctx, &schema.Envelope{State: state, AccessToken: "tok1"}, "github")
	require.Equal(t, http.StatusOK, response.StatusCode)
	f.local.Wait()
	assert.Equal(t, 0, f.provider.Exchanges())
	token, ok, err := f.service.Sessions.Get(ctx, "U1", "github")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tok1", token.AccessToken)
	payload := <-webhook.payloads
	assert.Equal(t, "hello tok1", payload["text"])
}

func TestService_StartFlow(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	p, ok := f.service.Providers.Static("github")
	require.True(t, ok)
	started, err := f.service.StartFlow(ctx, &Flow{
		Provider:   p,
		Params:     commandEnvelope("https://hooks.example/abc").Params,
		Callback:   "auth.confirm",
		TTL:        30 * time.Minute,
		SessionTTL: 90 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, 1800, started.Pending.TTLSeconds)
	assert.Equal(t, 90, started.Pending.SessionTTLSeconds)
	assert.Contains(t, started.URL, "state="+started.Pending.StateToken)

	_, err = f.service.StartFlow(ctx, &Flow{Callback: "auth.confirm"})
	assert.True(t, errors.Is(err, schema.ErrMisconfigured))
}
