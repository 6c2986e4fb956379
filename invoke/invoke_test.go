package invoke

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/cmdrelay/dispatch"
	"github.com/viant/cmdrelay/message"
	"github.com/viant/cmdrelay/schema"
)

func newWebhook(t *testing.T) (chan map[string]any, *httptest.Server) {
	payloads := make(chan map[string]any, 4)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		payloads <- payload
	}))
	t.Cleanup(server.Close)
	return payloads, server
}

func whoami() *Command {
	return &Command{
		Name:     "whoami",
		Provider: "github",
		Run: func(ctx context.Context, request *Request) (*message.Message, error) {
			if request.AccessToken == "" {
				return nil, errors.New("missing token")
			}
			return message.NewInChannel("token " + request.AccessToken + " for " + request.UserID), nil
		},
	}
}

func newRunner() *Runner {
	return &Runner{Commands: NewRegistry(whoami()), Dispatcher: dispatch.New(dispatch.WithTimeout(time.Second))}
}

func invocation(webhookURL, token string) Invocation {
	return Invocation{
		Command:     "whoami",
		AccessToken: token,
		Params: schema.Params{
			Client: &schema.Client{UserID: "U1", ResponseURL: webhookURL, Name: "slack"},
			Args:   map[string]any{},
		},
	}
}

func TestRegistry(t *testing.T) {
	registry := NewRegistry(whoami(), &Command{Name: "auth"})
	assert.Equal(t, []string{"auth", "whoami"}, registry.Names())
	command, ok := registry.Lookup("whoami")
	require.True(t, ok)
	assert.Equal(t, "github", command.Provider)
	_, ok = registry.Lookup("deploy")
	assert.False(t, ok)
}

func TestRunner_Run(t *testing.T) {
	payloads, server := newWebhook(t)
	runner := newRunner()

	require.NoError(t, runner.Run(context.Background(), invocation(server.URL, "tok1")))
	payload := <-payloads
	assert.Equal(t, "in_channel", payload["response_type"])
	assert.Equal(t, "token tok1 for U1", payload["text"])

	require.NoError(t, runner.Run(context.Background(), invocation(server.URL, "")))
	payload = <-payloads
	assert.Equal(t, "Command *whoami* failed: missing token", payload["text"])

	unknown := invocation(server.URL, "tok1")
	unknown.Command = "deploy"
	err := runner.Run(context.Background(), unknown)
	assert.True(t, errors.Is(err, schema.ErrCommandNotFound))
	payload = <-payloads
	assert.Equal(t, "ephemeral", payload["response_type"])

	unsupported := invocation(server.URL, "tok1")
	unsupported.Params.Client.Name = "teams"
	assert.True(t, errors.Is(runner.Run(context.Background(), unsupported), schema.ErrInvalidRequest))
}

func TestRunner_ExecutePanic(t *testing.T) {
	command := &Command{Name: "boom", Run: func(ctx context.Context, request *Request) (*message.Message, error) {
		panic("boom")
	}}
	result := newRunner().Execute(context.Background(), command, &Request{})
	assert.Equal(t, message.InChannel, result.ResponseType)
	assert.Contains(t, result.Text, "command panicked")
}

func TestLocal_Invoke(t *testing.T) {
	payloads, server := newWebhook(t)
	local := NewLocal(newRunner(), time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	activationID, err := local.Invoke(ctx, invocation(server.URL, "tok1"))
	cancel()
	require.NoError(t, err)
	assert.NotEmpty(t, activationID)
	local.Wait()

	select {
	case payload := <-payloads:
		assert.Equal(t, "token tok1 for U1", payload["text"], "the invocation outlives its caller context")
	case <-time.After(2 * time.Second):
		t.Fatal("webhook was not called")
	}
}

func TestRemote_Handler(t *testing.T) {
	payloads, webhook := newWebhook(t)
	local := NewLocal(newRunner(), time.Second)
	gateway := httptest.NewServer(&Handler{Invoker: local, Secret: "s3cret"})
	defer gateway.Close()

	activationID, err := NewRemote(gateway.URL, "s3cret", time.Second).Invoke(context.Background(), invocation(webhook.URL, "tok1"))
	require.NoError(t, err)
	assert.NotEmpty(t, activationID)
	local.Wait()
	payload := <-payloads
	assert.Equal(t, "token tok1 for U1", payload["text"])

	_, err = NewRemote(gateway.URL, "wrong", time.Second).Invoke(context.Background(), invocation(webhook.URL, "tok1"))
	assert.Error(t, err)

	_, err = NewRemote("", "", time.Second).Invoke(context.Background(), invocation(webhook.URL, "tok1"))
	assert.True(t, errors.Is(err, schema.ErrMisconfigured))

	response, err := http.Post(gateway.URL, "application/json", nil)
	require.NoError(t, err)
	response.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, response.StatusCode)
}

type recordingInvoker struct {
	invocations chan Invocation
}

func (r *recordingInvoker) Invoke(_ context.Context, invocation Invocation) (string, error) {
	r.invocations <- invocation
	return invocation.ActivationID, nil
}

func TestHandler_DecodesInvocation(t *testing.T) {
	recorder := &recordingInvoker{invocations: make(chan Invocation, 1)}
	gateway := httptest.NewServer(&Handler{Invoker: recorder, Secret: "s3cret"})
	defer gateway.Close()

	sent := invocation("https://hooks.example/abc", "tok1")
	sent.CommandText = "/github whoami"
	sent.Secrets = map[string]string{"org": "viant"}
	sent.Params.Args["action"] = "whoami"
	activationID, err := NewRemote(gateway.URL, "s3cret", time.Second).Invoke(context.Background(), sent)
	require.NoError(t, err)

	received := <-recorder.invocations
	assert.Equal(t, activationID, received.ActivationID)
	assert.Equal(t, "whoami", received.Command)
	assert.Equal(t, "tok1", received.AccessToken)
	assert.Equal(t, "/github whoami", received.CommandText)
	assert.Equal(t, "viant", received.Secrets["org"])
	assert.Equal(t, sent.Params, received.Params)

	var testCases = []struct {
		description string
		body        string
	}{
		{description: "wrong method", body: `{"jsonrpc":"2.0","method":"tools/call","params":{"command":"whoami"}}`},
		{description: "missing params", body: `{"jsonrpc":"2.0","method":"commands/invoke"}`},
		{description: "missing command", body: `{"jsonrpc":"2.0","method":"commands/invoke","params":{"access_token":"x"}}`},
	}
	for _, testCase := range testCases {
		request, err := http.NewRequest(http.MethodPost, gateway.URL, strings.NewReader(testCase.body))
		require.NoError(t, err)
		request.Header.Set(schema.InvokeSecretHeader, "s3cret")
		response, err := http.DefaultClient.Do(request)
		require.NoError(t, err)
		response.Body.Close()
		assert.Equal(t, http.StatusBadRequest, response.StatusCode, testCase.description)
	}
	assert.Empty(t, recorder.invocations)
}
