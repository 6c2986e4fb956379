// Package cmdrelay assembles the command relay: an OAuth deferred
// authorization service for chat slash commands.
//
// A chat command that needs a provider token either runs right away with a
// cached session token, or is parked under a state token while the user
// authorizes with the provider. The OAuth callback exchanges the code, caches
// the token and replays the parked command; its result is posted to the chat
// webhook.
//
// Example:
//
//	cfg, _ := config.Load(ctx, "")
//	relay, _ := cmdrelay.New(ctx, cfg)
//	defer relay.Close()
//	_ = relay.HTTP().ListenAndServe()
package cmdrelay
