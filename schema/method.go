package schema

const (
	// MethodCommandInvoke is the JSON-RPC notification method used to re-invoke a command out of band.
	MethodCommandInvoke = "commands/invoke"

	// InvokeSecretHeader carries the shared secret authorizing remote invocations.
	InvokeSecretHeader = "X-Relay-Invoke-Secret"
	// ActionSecretHeader carries the shared secret authorizing envelope posts to the action route.
	ActionSecretHeader = "X-Relay-Action-Secret"
)
