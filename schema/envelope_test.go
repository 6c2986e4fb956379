package schema

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelope_UnmarshalFlatParams(t *testing.T) {
	data := `{"params":{"__client":{"user_id":"U1","response_url":"https://hooks.example/abc","name":"slack"},"repository":"viant/afs","per_page":5},"commandText":"/gh issues","__secrets":{"github_token":"x"}}`
	envelope := &Envelope{}
	require.NoError(t, json.Unmarshal([]byte(data), envelope))
	require.NotNil(t, envelope.Params.Client)
	assert.Equal(t, "U1", envelope.Params.Client.UserID)
	assert.Equal(t, "https://hooks.example/abc", envelope.Params.Client.ResponseURL)
	assert.Equal(t, "viant/afs", envelope.Params.String("repository"))
	assert.Equal(t, 5, envelope.Params.Int("per_page", 50))
	assert.Equal(t, 50, envelope.Params.Int("page_size", 50))
	assert.Equal(t, "x", envelope.Secrets["github_token"])
	assert.False(t, envelope.IsCallback())
	assert.NoError(t, envelope.Validate())

	encoded, err := json.Marshal(envelope.Params)
	require.NoError(t, err)
	assert.JSONEq(t, `{"__client":{"user_id":"U1","response_url":"https://hooks.example/abc","name":"slack"},"repository":"viant/afs","per_page":5}`, string(encoded))
}

func TestEnvelope_Validate(t *testing.T) {
	var testCases = []struct {
		description string
		client      *Client
	}{
		{description: "missing client"},
		{description: "missing user", client: &Client{ResponseURL: "https://hooks.example", Name: "slack"}},
		{description: "missing response url", client: &Client{UserID: "U1", Name: "slack"}},
		{description: "missing name", client: &Client{UserID: "U1", ResponseURL: "https://hooks.example"}},
	}
	for _, testCase := range testCases {
		envelope := &Envelope{Params: Params{Client: testCase.client}}
		err := envelope.Validate()
		assert.True(t, errors.Is(err, ErrInvalidRequest), testCase.description)
		assert.Equal(t, "Invalid request", UserMessage(err), testCase.description)
	}
}

func TestEnvelope_IsCallback(t *testing.T) {
	assert.True(t, (&Envelope{State: "s", Code: "c"}).IsCallback())
	assert.True(t, (&Envelope{State: "s", AccessToken: "t"}).IsCallback())
	assert.False(t, (&Envelope{State: "s"}).IsCallback())
	assert.False(t, (&Envelope{Code: "c"}).IsCallback())
}

func TestPendingInvocation_Expired(t *testing.T) {
	now := time.Now()
	pending := &PendingInvocation{CreatedAt: now, TTLSeconds: 1}
	assert.False(t, pending.Expired(now))
	assert.True(t, pending.Expired(now.Add(time.Second)))
	assert.False(t, (&PendingInvocation{CreatedAt: now}).Expired(now.Add(time.Hour)))
}

func TestError_Kind(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := NewError(ErrExchangeFailed, "Failed to exchange code for access_token", cause)
	assert.True(t, errors.Is(err, ErrExchangeFailed))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrSessionExpired))
	assert.Equal(t, "Failed to exchange code for access_token", UserMessage(err))
	assert.Equal(t, "Unexpected error", UserMessage(cause))
}
