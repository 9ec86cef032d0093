package fetcher

import (
	"sync"
	"time"
)

// mockBackoff implements cache.BackoffCache in memory for testing
type mockBackoff struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func newMockBackoff() *mockBackoff {
	return &mockBackoff{entries: make(map[string]time.Time)}
}

func (m *mockBackoff) InBackoff(host string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	until, ok := m.entries[host]
	return ok && time.Now().Before(until)
}

func (m *mockBackoff) SetBackoff(host string, d time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[host] = time.Now().Add(d)
	return nil
}

func (m *mockBackoff) ClearBackoff(host string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, host)
	return nil
}
