package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ClientKey is the params key carrying the chat client descriptor.
const ClientKey = "__client"

type (
	// Envelope represents a single function activation: either a chat command
	// invocation or an OAuth callback carrying state and a code or token.
	Envelope struct {
		Params      Params            `json:"params"`
		CommandText string            `json:"commandText,omitempty"`
		Secrets     map[string]string `json:"__secrets,omitempty"`
		State       string            `json:"state,omitempty"`
		AccessToken string            `json:"access_token,omitempty"`
		Code        string            `json:"code,omitempty"`
	}

	// Client describes the chat platform caller.
	Client struct {
		UserID      string `json:"user_id"`
		ResponseURL string `json:"response_url"`
		Name        string `json:"name"`
	}

	// Params holds the command arguments together with the client descriptor.
	// It is serialized as a flat object with the client under "__client".
	Params struct {
		Client *Client
		Args   map[string]any
	}
)

// IsCallback returns true when the envelope is an OAuth callback rather than a command.
func (e *Envelope) IsCallback() bool {
	return e.State != "" && (e.Code != "" || e.AccessToken != "")
}

// Validate checks that the envelope identifies the requesting user, the
// response webhook and the chat client.
func (e *Envelope) Validate() error {
	c := e.Params.Client
	switch {
	case c == nil:
		return NewError(ErrInvalidRequest, "Invalid request", fmt.Errorf("missing %s", ClientKey))
	case c.UserID == "":
		return NewError(ErrInvalidRequest, "Invalid request", fmt.Errorf("missing %s.user_id", ClientKey))
	case c.ResponseURL == "":
		return NewError(ErrInvalidRequest, "Invalid request", fmt.Errorf("missing %s.response_url", ClientKey))
	case c.Name == "":
		return NewError(ErrInvalidRequest, "Invalid request", fmt.Errorf("missing %s.name", ClientKey))
	}
	return nil
}

// String returns the argument as string, or empty when absent.
func (p Params) String(key string) string {
	v, ok := p.Args[key]
	if !ok || v == nil {
		return ""
	}
	switch actual := v.(type) {
	case string:
		return actual
	case float64:
		return strconv.FormatFloat(actual, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(actual)
	default:
		return fmt.Sprintf("%v", actual)
	}
}

// Int returns the argument as int, or defaultValue when absent or not numeric.
func (p Params) Int(key string, defaultValue int) int {
	text := p.String(key)
	if text == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(text)
	if err != nil {
		return defaultValue
	}
	return v
}

// With returns a copy of params with key set to value.
func (p Params) With(key string, value any) Params {
	args := make(map[string]any, len(p.Args)+1)
	for k, v := range p.Args {
		args[k] = v
	}
	args[key] = value
	return Params{Client: p.Client, Args: args}
}

func (p Params) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Args)+1)
	for k, v := range p.Args {
		out[k] = v
	}
	if p.Client != nil {
		out[ClientKey] = p.Client
	}
	return json.Marshal(out)
}

func (p *Params) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Client = nil
	p.Args = make(map[string]any, len(raw))
	for k, v := range raw {
		if k == ClientKey {
			p.Client = &Client{}
			if err := json.Unmarshal(v, p.Client); err != nil {
				return fmt.Errorf("invalid %s: %w", ClientKey, err)
			}
			continue
		}
		var value any
		if err := json.Unmarshal(v, &value); err != nil {
			return err
		}
		p.Args[k] = value
	}
	return nil
}
