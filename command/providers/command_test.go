package providers

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/cmdrelay/auth"
	"github.com/viant/cmdrelay/invoke"
	"github.com/viant/cmdrelay/kv"
	"github.com/viant/cmdrelay/message"
	"github.com/viant/cmdrelay/pending"
	"github.com/viant/cmdrelay/provider"
	"github.com/viant/cmdrelay/schema"
)

func newCommand(t *testing.T) (*Command, *auth.Service) {
	store := kv.NewMemoryStore()
	registry, err := provider.New(store, "https://relay.example/callback")
	require.NoError(t, err)
	service := auth.New(auth.Config{})
	service.Pending = pending.NewManager(pending.NewStore(store))
	service.Providers = registry
	return &Command{Providers: registry, Flows: service, LinkValidity: 30 * time.Minute, Duration: time.Minute}, service
}

func request(args map[string]any) *invoke.Request {
	return &invoke.Request{
		Command: Name,
		UserID:  "U1",
		Params: schema.Params{
			Client: &schema.Client{UserID: "U1", ResponseURL: "https://hooks.example/abc", Name: "slack"},
			Args:   args,
		},
	}
}

func addArgs() map[string]any {
	return map[string]any{
		"action":        "a",
		"name":          "github",
		"base_url":      "<https://github.com|github.com>",
		"client_id":     "client-1",
		"client_secret": "secret-1",
	}
}

func TestCommand_Manage(t *testing.T) {
	command, _ := newCommand(t)
	ctx := context.Background()

	result, err := command.Run(ctx, request(addArgs()))
	require.NoError(t, err)
	assert.Equal(t, message.Ephemeral, result.ResponseType)
	assert.Equal(t, "Auth **Add** Request Result:", result.Text)
	require.Len(t, result.Blocks, 3)
	assert.Contains(t, result.Blocks[1].Fields[0], "Auth URL: https://github.com/login/oauth/authorize")
	assert.NotContains(t, result.Blocks[1].Fields[0], "secret-1")

	result, err = command.Run(ctx, request(map[string]any{"action": "g", "name": "github"}))
	require.NoError(t, err)
	assert.Contains(t, result.Blocks[1].Fields[0], "Scopes: user:email,read:org")

	result, err = command.Run(ctx, request(map[string]any{"action": "ls"}))
	require.NoError(t, err)
	assert.Equal(t, "Auth **List** Request Result:", result.Text)

	result, err = command.Run(ctx, request(map[string]any{"action": "remove", "name": "github"}))
	require.NoError(t, err)
	assert.Equal(t, "Auth **Remove** Request Result:", result.Text)

	result, err = command.Run(ctx, request(map[string]any{"action": "get", "name": "github"}))
	require.NoError(t, err)
	assert.Equal(t, message.InChannel, result.ResponseType)
	assert.Contains(t, result.Text, "Couldn't find provider with name **github**")
}

func TestCommand_Validation(t *testing.T) {
	command, _ := newCommand(t)
	ctx := context.Background()
	var testCases = []struct {
		description string
		args        map[string]any
		expect      string
	}{
		{description: "invalid action", args: map[string]any{"action": "rotate"}, expect: "*Invalid Action. Expected options: 'add', 'get', 'remove', 'use', 'list'*"},
		{description: "missing name", args: map[string]any{"action": "add"}, expect: "*please specify provider name* e.g. name=twitter"},
		{description: "missing secret", args: map[string]any{"action": "add", "name": "github", "base_url": "github.com", "client_id": "c"}, expect: "*please specify client_secret*"},
		{description: "invalid duration", args: map[string]any{"action": "use", "name": "github", "duration": "-1"}, expect: "*please specify duration*"},
	}
	for _, testCase := range testCases {
		result, err := command.Run(ctx, request(testCase.args))
		require.NoError(t, err, testCase.description)
		assert.Equal(t, testCase.expect, result.Text, testCase.description)
	}
}

func TestCommand_Use(t *testing.T) {
	command, service := newCommand(t)
	ctx := context.Background()
	_, err := command.Run(ctx, request(addArgs()))
	require.NoError(t, err)

	result, err := command.Run(ctx, request(map[string]any{"action": "u", "name": "github", "duration": "120"}))
	require.NoError(t, err)
	assert.Contains(t, result.Text, "For authentication, you have opted to use **github** for **120** Seconds. Please click this [link](")

	start := len("For authentication, you have opted to use **github** for **120** Seconds. Please click this [link](")
	link, err := url.Parse(result.Text[start : len(result.Text)-len(") to continue.")])
	require.NoError(t, err)
	state := link.Query().Get("state")
	require.NotEmpty(t, state)

	saved, ok, err := service.Pending.Store.Get(ctx, state)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ConfirmName, saved.Callback)
	assert.Equal(t, 120, saved.SessionTTLSeconds)
	assert.Equal(t, 1800, saved.TTLSeconds)

	result, err = confirm(ctx, request(nil))
	require.NoError(t, err)
	assert.Equal(t, "Authentication Successful!", result.Text)
}
