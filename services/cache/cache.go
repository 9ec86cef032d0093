package cache

import (
	"time"
)

// BackoffCache records hosts that asked us to slow down. A host placed in
// backoff fails fast until the entry expires, instead of being fetched again.
type BackoffCache interface {
	// InBackoff reports whether host currently has an active backoff entry
	InBackoff(host string) bool

	// SetBackoff places host in backoff for the given duration
	SetBackoff(host string, d time.Duration) error

	// ClearBackoff removes the backoff entry for host
	ClearBackoff(host string) error
}
