// Package session mirrors the browser's per-tab session storage for the few
// values that must survive a same-tab navigation to checkout.
package session

import "sync"

// DiscountCodeKey stores the currently selected deduction code.
const DiscountCodeKey = "selectedDiscountCode"

// Store is the minimal key-value surface the engine needs.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
}

// Memory is an in-process Store. The zero value is ready to use.
type Memory struct {
	mu     sync.Mutex
	values map[string]string
}

// Get returns the stored value for key.
func (m *Memory) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

// Set stores value under key.
func (m *Memory) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = make(map[string]string)
	}
	m.values[key] = value
}

// Delete removes key.
func (m *Memory) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
}
