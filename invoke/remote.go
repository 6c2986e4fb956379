package invoke

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/viant/cmdrelay/schema"
	"github.com/viant/jsonrpc"
)

// Remote hands invocations to another relay instance through its invoke
// gateway as JSON-RPC notifications. The gateway acknowledges before running.
type Remote struct {
	URL    string
	Secret string
	client *http.Client
}

func (r *Remote) Invoke(ctx context.Context, invocation Invocation) (string, error) {
	if r.URL == "" || r.Secret == "" {
		return "", schema.NewError(schema.ErrMisconfigured, "API is not properly configured", fmt.Errorf("remote invoker requires url and secret"))
	}
	if invocation.ActivationID == "" {
		invocation.ActivationID = uuid.New().String()
	}
	notification, err := jsonrpc.NewNotification(schema.MethodCommandInvoke, invocation)
	if err != nil {
		return "", fmt.Errorf("failed to create notification: %w", err)
	}
	data, err := json.Marshal(notification)
	if err != nil {
		return "", err
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set(schema.InvokeSecretHeader, r.Secret)
	response, err := r.client.Do(request)
	if err != nil {
		return "", fmt.Errorf("failed to invoke %v: %w", invocation.Command, err)
	}
	defer response.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(response.Body, 64*1024))
	if response.StatusCode != http.StatusAccepted && response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to invoke %v: gateway responded with %d", invocation.Command, response.StatusCode)
	}
	return invocation.ActivationID, nil
}

func NewRemote(URL, secret string, timeout time.Duration) *Remote {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Remote{URL: URL, Secret: secret, client: &http.Client{Timeout: timeout}}
}
