package pending

import (
	"time"

	"github.com/viant/cmdrelay/schema"
)

// Input carries the inputs to create a pending invocation; the state token and
// creation time are assigned by the Manager.
type Input struct {
	Provider    string
	Params      schema.Params
	CommandText string
	Secrets     map[string]string
	Callback    string

	TTL        time.Duration
	SessionTTL time.Duration
}
