// Package mock provides an in-process OAuth provider exposing GitHub style
// authorize and access token endpoints, used to exercise authorization flows
// in tests without network round-trips.
package mock
