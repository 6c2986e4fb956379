// Package kv defines the time-bounded key-value store shared by the pending
// invocation store, the session cache and the provider registry.
//
// A key that has expired behaves as absent on every read. Backends are
// selected by URL with Open: in-memory (mem://), afs file or object storage
// (file://, plain paths, gs://, s3://), redis (redis://) and sqlite (sqlite://).
package kv
