package registry

import "time"

// Option configures a Hub at construction time.
type Option func(*Hub)

func WithEvictionInterval(d time.Duration) Option {
	return func(h *Hub) { h.evictionInterval = d }
}

func WithIdleTimeout(d time.Duration) Option {
	return func(h *Hub) { h.idleTimeout = d }
}

func WithMailboxSize(n int) Option {
	return func(h *Hub) { h.mailboxSize = n }
}
