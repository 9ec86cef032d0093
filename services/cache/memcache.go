package cache

import (
	"strconv"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

const keyPrefix = "backoff:"

// MemcacheBackoff implements BackoffCache using memcache. Expiry is handled
// by memcache itself; the stored value is the backoff length in seconds.
type MemcacheBackoff struct {
	client *memcache.Client
}

// NewMemcacheBackoff creates a new memcache-backed backoff cache
func NewMemcacheBackoff(serverAddr string) *MemcacheBackoff {
	return &MemcacheBackoff{
		client: memcache.New(serverAddr),
	}
}

// InBackoff reports whether host has an unexpired backoff entry
func (m *MemcacheBackoff) InBackoff(host string) bool {
	_, err := m.client.Get(keyPrefix + host)
	return err == nil
}

// SetBackoff places host in backoff for the given duration
func (m *MemcacheBackoff) SetBackoff(host string, d time.Duration) error {
	return m.client.Set(&memcache.Item{
		Key:        keyPrefix + host,
		Value:      []byte(strconv.Itoa(int(d.Seconds()))),
		Expiration: int32(d.Seconds()),
	})
}

// ClearBackoff removes the backoff entry for host
func (m *MemcacheBackoff) ClearBackoff(host string) error {
	err := m.client.Delete(keyPrefix + host)
	if err == memcache.ErrCacheMiss {
		return nil
	}
	return err
}
