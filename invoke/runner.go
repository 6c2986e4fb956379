package invoke

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/viant/cmdrelay/dispatch"
	"github.com/viant/cmdrelay/message"
	"github.com/viant/cmdrelay/schema"
)

// Invocation is a deferred command run: the command named by the callback
// identifier, replayed with the saved params and a fresh access token.
type Invocation struct {
	ActivationID string            `json:"activationId,omitempty"`
	Command      string            `json:"command"`
	Provider     string            `json:"provider,omitempty"`
	AccessToken  string            `json:"access_token,omitempty"`
	Params       schema.Params     `json:"params"`
	CommandText  string            `json:"commandText,omitempty"`
	Secrets      map[string]string `json:"__secrets,omitempty"`
}

// Request returns the command request for the invocation.
func (i *Invocation) Request() *Request {
	ret := &Request{Command: i.Command, AccessToken: i.AccessToken, Params: i.Params, CommandText: i.CommandText, Secrets: i.Secrets}
	if i.Params.Client != nil {
		ret.UserID = i.Params.Client.UserID
	}
	return ret
}

// Invoker starts an invocation without waiting for its result.
type Invoker interface {
	Invoke(ctx context.Context, invocation Invocation) (string, error)
}

// Runner executes commands and delivers their rendered result.
type Runner struct {
	Commands   *Registry
	Dispatcher *dispatch.Dispatcher
}

// Execute runs command; a failure becomes a channel-visible message.
func (r *Runner) Execute(ctx context.Context, command *Command, request *Request) *message.Message {
	result, err := r.execute(ctx, command, request)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("command", command.Name).Msg("command.failed")
		return message.NewInChannel(fmt.Sprintf("Command %s failed: %s", message.Bold(command.Name), failureText(err)))
	}
	if result == nil {
		result = message.NewEphemeral("Done")
	}
	return result
}

func (r *Runner) execute(ctx context.Context, command *Command, request *Request) (ret *message.Message, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("command panicked: %v", recovered)
		}
	}()
	return command.Run(ctx, request)
}

func failureText(err error) string {
	var e *schema.Error
	if errors.As(err, &e) {
		return schema.UserMessage(err)
	}
	return err.Error()
}

// Run executes the invocation and posts the result to its webhook.
func (r *Runner) Run(ctx context.Context, invocation Invocation) error {
	client := invocation.Params.Client
	if client == nil || client.ResponseURL == "" {
		return schema.NewError(schema.ErrInvalidRequest, "Invalid request", fmt.Errorf("invocation %v has no response url", invocation.ActivationID))
	}
	renderer, ok := message.For(client.Name)
	if !ok {
		return schema.NewError(schema.ErrInvalidRequest, "Invalid request", fmt.Errorf("unsupported client %q", client.Name))
	}
	command, ok := r.Commands.Lookup(invocation.Command)
	if !ok {
		result := message.NewEphemeral(fmt.Sprintf("Unknown command %s", message.Bold(invocation.Command)))
		r.Dispatcher.Deliver(ctx, client.ResponseURL, renderer.Render(result))
		return schema.NewError(schema.ErrCommandNotFound, "Unknown command", fmt.Errorf("command %q", invocation.Command))
	}
	result := r.Execute(ctx, command, invocation.Request())
	r.Dispatcher.Deliver(ctx, client.ResponseURL, renderer.Render(result))
	return nil
}
