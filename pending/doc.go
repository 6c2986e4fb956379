// Package pending stores command invocations paused while the user completes
// an OAuth authorization in the browser.
//
// Entries are keyed by an unguessable state token, expire after their TTL and
// are single use: the callback takes (reads and deletes) the entry, so a
// replayed callback within the TTL window finds nothing.
package pending
