// Package session ties one user's annotation work together: the vocabulary
// resolver, the annotation model and the debounced editor. Sessions live in
// memory only and are evicted once idle for longer than the configured TTL.
package session
