// Package progress persists per-book reading progress on the reading device.
//
// Records live in a synchronous string-keyed key/value store under
// "reading-progress-{bookId}". Reads and writes never surface errors to
// the reader: an unreadable record is treated as absent and a failed write
// is logged and dropped.
package progress

import (
	"errors"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrKeyNotFound is returned by KV.Get for a missing key.
	ErrKeyNotFound = errors.New("progress: key not found")
	// ErrQuotaExceeded is returned by KV.Set when the backing storage is full.
	ErrQuotaExceeded = errors.New("progress: storage quota exceeded")
)

// KV is the device-local storage the progress store writes through.
type KV interface {
	Get(key string) (string, error)
	Set(key, value string) error
}

// KeyLister is implemented by KV backends that can enumerate keys.
type KeyLister interface {
	Keys(prefix string) ([]string, error)
}

// MemoryKV is an in-process KV with an optional size quota.
type MemoryKV struct {
	mu     sync.RWMutex
	data   map[string]string
	quota  int
	used   int
	failOn map[string]error
}

// NewMemoryKV creates an empty in-memory KV. A quota of zero means unlimited;
// otherwise the total bytes of keys plus values may not exceed quota.
func NewMemoryKV(quota int) *MemoryKV {
	return &MemoryKV{data: make(map[string]string), quota: quota}
}

// Get returns the value stored under key.
func (m *MemoryKV) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return v, nil
}

// Set stores value under key, replacing any previous value.
func (m *MemoryKV) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.failOn[key]; ok {
		return err
	}

	used := m.used + len(key) + len(value)
	if old, ok := m.data[key]; ok {
		used -= len(key) + len(old)
	}
	if m.quota > 0 && used > m.quota {
		return ErrQuotaExceeded
	}

	m.data[key] = value
	m.used = used
	return nil
}

// Keys returns every key with the given prefix in lexical order.
func (m *MemoryKV) Keys(prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// FailWrites makes every later Set of key return err. Passing a nil err clears it.
func (m *MemoryKV) FailWrites(key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn == nil {
		m.failOn = make(map[string]error)
	}
	if err == nil {
		delete(m.failOn, key)
		return
	}
	m.failOn[key] = err
}
