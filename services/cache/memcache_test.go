package cache

import (
	"testing"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/stretchr/testify/assert"
)

// This test requires a running memcached instance
// If memcached is not available, the test will be skipped
func TestMemcacheBackoff(t *testing.T) {
	mc := NewMemcacheBackoff("localhost:11211")

	// Test if memcached is available
	_, err := mc.client.Get("test")
	if err != nil && err != memcache.ErrCacheMiss {
		t.Skip("Memcached is not available, skipping test")
	}

	host := "www.amazon.com"

	// No backoff to begin with
	assert.False(t, mc.InBackoff(host))

	// Set a backoff
	err = mc.SetBackoff(host, 2*time.Second)
	assert.NoError(t, err)
	assert.True(t, mc.InBackoff(host))

	// Other hosts are unaffected
	assert.False(t, mc.InBackoff("www.ebay.com"))

	// Clear it explicitly
	err = mc.ClearBackoff(host)
	assert.NoError(t, err)
	assert.False(t, mc.InBackoff(host))

	// Clearing a missing entry is not an error
	err = mc.ClearBackoff(host)
	assert.NoError(t, err)

	// Expiry clears the backoff on its own
	err = mc.SetBackoff(host, 1*time.Second)
	assert.NoError(t, err)
	time.Sleep(1500 * time.Millisecond)
	assert.False(t, mc.InBackoff(host))
}
