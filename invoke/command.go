// Package invoke runs chat commands and re-invokes them out of band once a
// user has authorized.
package invoke

import (
	"context"
	"sort"

	"github.com/viant/cmdrelay/message"
	"github.com/viant/cmdrelay/schema"
	"github.com/viant/mcp-protocol/syncmap"
)

type (
	// Request is the input of a command run.
	Request struct {
		Command     string
		UserID      string
		AccessToken string
		Params      schema.Params
		CommandText string
		Secrets     map[string]string
	}

	// Func runs a command.
	Func func(ctx context.Context, request *Request) (*message.Message, error)

	// Command is a chat command. Provider names the OAuth provider whose token
	// the command needs; empty means no authorization. Hidden commands only run
	// as authorization callbacks.
	Command struct {
		Name        string
		Provider    string
		Description string
		Hidden      bool
		Run         Func
	}
)

// Registry holds commands by name.
type Registry struct {
	commands *syncmap.Map[string, *Command]
}

func (r *Registry) Register(commands ...*Command) {
	for _, command := range commands {
		r.commands.Put(command.Name, command)
	}
}

func (r *Registry) Lookup(name string) (*Command, bool) {
	return r.commands.Get(name)
}

// Names returns registered command names, sorted.
func (r *Registry) Names() []string {
	var ret []string
	r.commands.Range(func(name string, _ *Command) bool {
		ret = append(ret, name)
		return true
	})
	sort.Strings(ret)
	return ret
}

func NewRegistry(commands ...*Command) *Registry {
	ret := &Registry{commands: syncmap.NewMap[string, *Command]()}
	ret.Register(commands...)
	return ret
}
