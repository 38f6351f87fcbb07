// Package router implements the stateless request router: shard selection
// via a consistent-hash ring, plus a verbatim HTTP proxy to the selected
// shard.
package router

import "quorumkv/internal/ring"

// Router picks the shard responsible for a key. It holds no per-request
// state — the same Router instance is safe for concurrent use across every
// request the process handles.
type Router struct {
	ring   *ring.Ring
	vnodes int
}

// New builds a Router over the given shard base URLs.
func New(shardURLs []string, vnodes int) *Router {
	return &Router{
		ring:   ring.Build(shardURLs, vnodes),
		vnodes: vnodes,
	}
}

// Pick returns the shard base URL responsible for key.
func (r *Router) Pick(key string) string {
	return r.ring.Pick(key)
}

// Shards returns the configured shard base URLs.
func (r *Router) Shards() []string {
	return r.ring.Shards()
}

// Vnodes returns the virtual-node count the ring was built with.
func (r *Router) Vnodes() int {
	return r.vnodes
}
