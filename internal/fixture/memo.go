package fixture

import "sync"

// Memo caches a pure derivation by its input key. The first call for a key
// computes the value; later calls return the cached one.
type Memo[K comparable, V any] struct {
	mu      sync.Mutex
	compute func(K) V
	values  map[K]V
}

// NewMemo wraps compute in a cache.
func NewMemo[K comparable, V any](compute func(K) V) *Memo[K, V] {
	return &Memo[K, V]{
		compute: compute,
		values:  make(map[K]V),
	}
}

// Get returns the cached value for key, computing it on first use.
func (m *Memo[K, V]) Get(key K) V {
	m.mu.Lock()
	defer m.mu.Unlock()

	if v, ok := m.values[key]; ok {
		return v
	}
	v := m.compute(key)
	m.values[key] = v
	return v
}

// Len returns the number of cached keys.
func (m *Memo[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.values)
}

// Reset drops every cached value.
func (m *Memo[K, V]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = make(map[K]V)
}
