// Package providers implements the auth chat command managing per-user OAuth
// provider configurations and starting authorizations on demand.
package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/viant/cmdrelay/auth"
	"github.com/viant/cmdrelay/invoke"
	"github.com/viant/cmdrelay/message"
	"github.com/viant/cmdrelay/provider"
	"github.com/viant/cmdrelay/schema"
)

const (
	// Name is the command name.
	Name = "auth"
	// ConfirmName is the callback posting the authorization outcome.
	ConfirmName = "auth.confirm"

	defaultScope = "user:email,read:org"
)

const (
	actionAdd    = "add"
	actionGet    = "get"
	actionRemove = "remove"
	actionList   = "list"
	actionUse    = "use"
)

var aliases = map[string]string{
	"a": actionAdd, actionAdd: actionAdd,
	"g": actionGet, actionGet: actionGet,
	"r": actionRemove, actionRemove: actionRemove,
	"l": actionList, "ls": actionList, actionList: actionList,
	"u": actionUse, actionUse: actionUse,
}

// Starter starts an authorization flow.
type Starter interface {
	StartFlow(ctx context.Context, flow *auth.Flow) (*auth.Started, error)
}

// Command manages provider configurations.
type Command struct {
	Providers *provider.Registry
	Flows     Starter
	// LinkValidity bounds how long a "use" authorization link is valid.
	LinkValidity time.Duration
	// Duration is the default session duration for "use".
	Duration time.Duration
}

// Commands returns the auth command and its confirmation callback.
func (c *Command) Commands() []*invoke.Command {
	return []*invoke.Command{
		{Name: Name, Description: "manage OAuth providers: add, get, remove, list, use", Run: c.Run},
		{Name: ConfirmName, Hidden: true, Run: confirm},
	}
}

// Run executes an auth action.
func (c *Command) Run(ctx context.Context, request *invoke.Request) (*message.Message, error) {
	params := request.Params
	name := params.String("action")
	if name == "" {
		name = actionUse
	}
	action, ok := aliases[name]
	if !ok {
		return fail("*Invalid Action. Expected options: 'add', 'get', 'remove', 'use', 'list'*"), nil
	}
	providerName := params.String("name")
	if providerName == "" {
		providerName = params.String("provider_name")
	}
	if providerName == "" && action != actionList {
		return fail("*please specify provider name* e.g. name=twitter"), nil
	}
	switch action {
	case actionAdd:
		return c.add(ctx, request, providerName)
	case actionGet:
		p, ok, err := c.Providers.Get(ctx, request.UserID, providerName)
		if err != nil {
			return nil, err
		}
		if !ok {
			return notFound(providerName), nil
		}
		return success(action, p), nil
	case actionRemove:
		p, ok, err := c.Providers.Remove(ctx, request.UserID, providerName)
		if err != nil {
			return nil, err
		}
		if !ok {
			return notFound(providerName), nil
		}
		return success(action, p), nil
	case actionList:
		list, err := c.Providers.List(ctx, request.UserID)
		if err != nil {
			return nil, err
		}
		return success(action, list...), nil
	default:
		return c.use(ctx, request, providerName)
	}
}

func (c *Command) add(ctx context.Context, request *invoke.Request, providerName string) (*message.Message, error) {
	params := request.Params
	p := &schema.ProviderConfig{
		Name:           providerName,
		UserID:         request.UserID,
		GrantType:      params.String("grant_type"),
		BaseURL:        params.String("base_url"),
		AuthURL:        params.String("auth_url"),
		AccessTokenURL: params.String("access_token_url"),
		ClientID:       params.String("client_id"),
		ClientSecret:   params.String("client_secret"),
		Scope:          params.String("scope"),
		CallbackURL:    params.String("callback_url"),
	}
	if p.Scope == "" {
		p.Scope = defaultScope
	}
	added, err := c.Providers.Add(ctx, p)
	if err != nil {
		if errors.Is(err, schema.ErrInvalidRequest) {
			return fail(schema.UserMessage(err)), nil
		}
		return nil, err
	}
	return success(actionAdd, added), nil
}

func (c *Command) use(ctx context.Context, request *invoke.Request, providerName string) (*message.Message, error) {
	seconds := request.Params.Int("duration", int(c.Duration/time.Second))
	if seconds <= 0 {
		return fail("*please specify duration*"), nil
	}
	p, err := c.Providers.Resolve(ctx, request.UserID, providerName)
	if err != nil {
		return notFound(providerName), nil
	}
	started, err := c.Flows.StartFlow(ctx, &auth.Flow{
		Provider:    p,
		Params:      request.Params,
		CommandText: request.CommandText,
		Callback:    ConfirmName,
		TTL:         c.LinkValidity,
		SessionTTL:  time.Duration(seconds) * time.Second,
	})
	if err != nil {
		return fail("This operation requires you to authenticate but could not create a session for you.\nIf you are authorized to inspect the activation logs, check them for details or contact your Commander admin."), nil
	}
	text := fmt.Sprintf("For authentication, you have opted to use %s for %s Seconds. Please click this %s to continue.",
		message.Bold(providerName), message.Bold(fmt.Sprint(seconds)), message.Link("link", started.URL))
	ret := message.NewEphemeral(text)
	ret.Section(header(actionUse)).Section(text)
	return ret, nil
}

func confirm(_ context.Context, _ *invoke.Request) (*message.Message, error) {
	return message.NewEphemeral("Authentication Successful!").Section("Authentication Successful!"), nil
}

func header(action string) string {
	return fmt.Sprintf("Auth %s Request Result:", message.Bold(strings.ToUpper(action[:1])+action[1:]))
}

func success(action string, items ...*schema.ProviderConfig) *message.Message {
	ret := message.NewEphemeral(header(action))
	ret.Section(header(action))
	for i, item := range items {
		if action == actionList && i > 0 {
			ret.Divider()
		}
		ret.Fields(fmt.Sprintf("Name: %s\nAuth URL: %s\nAccess Token URL: %s\nCallback URL: %s\nScopes: %s",
			message.Bold(item.Name), item.AuthURL, item.AccessTokenURL, item.CallbackURL, item.Scope))
	}
	if action == actionList && len(items) == 0 {
		ret.Section("No providers configured, add one with _auth add_")
	}
	ret.Context("Use _auth use name=<provider>_ to authorize with a provider")
	return ret
}

func notFound(name string) *message.Message {
	return fail(fmt.Sprintf("Couldn't find provider with name %s, please ensure the name is correct or add it using _auth add_", message.Bold(name)))
}

func fail(text string) *message.Message {
	return message.NewInChannel(text).Section(text)
}
