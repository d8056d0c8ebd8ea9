// Package cache provides the two freshness layers of the wallet core: an
// in-memory TTL cache for remote-call results (balances, metadata) and a
// persisted last-refreshed store used to throttle expensive refetches across
// restarts.
//
// Staleness is evaluated lazily on read against a per-call overdue window;
// there is no background eviction of live entries. The bigcache life window
// underneath is only a hard upper bound on entry lifetime.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/allegro/bigcache/v3"
)

// maxLifetime caps how long any entry can survive in the backing store,
// regardless of the overdue windows callers pass in.
const maxLifetime = 24 * time.Hour

// entry is a cached value with its creation timestamp. An entry is fresh
// while now - CreatedAt < overdue.
type entry struct {
	Value     []byte    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}

// Memory is the in-memory TTL cache.
type Memory struct {
	cache *bigcache.BigCache

	// mu serializes the compare-timestamps-then-store step so a slow stale
	// fetch cannot overwrite a fresher value that landed while it ran.
	mu sync.Mutex

	now func() time.Time
}

func NewMemory() (*Memory, error) {
	cfg := bigcache.DefaultConfig(maxLifetime)
	cfg.CleanWindow = 10 * time.Minute
	cfg.Verbose = false

	c, err := bigcache.New(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("bigcache: %w", err)
	}
	return &Memory{cache: c, now: time.Now}, nil
}

func (m *Memory) lookup(id string) (*entry, bool) {
	raw, err := m.cache.Get(id)
	if err != nil {
		return nil, false
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, false
	}
	return &e, true
}

// Get returns the cached value for id while it is younger than overdue;
// otherwise it invokes create, stores the result with a fresh timestamp and
// returns it. A create failure is propagated and leaves any existing entry
// untouched.
func (m *Memory) Get(ctx context.Context, id string, overdue time.Duration, create func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	if e, ok := m.lookup(id); ok && m.now().Sub(e.CreatedAt) < overdue {
		return e.Value, nil
	}

	started := m.now()
	value, err := create(ctx)
	if err != nil {
		return nil, err
	}

	m.storeAfter(id, value, started)

	// Re-read: a concurrent fetch may have stored a fresher value while
	// create was suspended.
	if e, ok := m.lookup(id); ok {
		return e.Value, nil
	}
	return value, nil
}

// storeAfter stores value unless an entry created after the fetch started is
// already present. Timestamps decide, not insertion order: a slow stale
// fetch must not regress a fresher value.
func (m *Memory) storeAfter(id string, value []byte, started time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.lookup(id); ok && e.CreatedAt.After(started) {
		return
	}
	m.write(id, value)
}

func (m *Memory) write(id string, value []byte) {
	e := entry{Value: value, CreatedAt: m.now()}
	raw, err := json.Marshal(&e)
	if err != nil {
		return
	}
	_ = m.cache.Set(id, raw)
}

// Set stores value under id unconditionally with a fresh timestamp. Used for
// explicit updates where the caller knows the value is current.
func (m *Memory) Set(id string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.write(id, value)
}

// Reset drops the entry for id, forcing the next Get to refetch. Called
// right after a successful transfer so a pre-transfer balance is never
// served.
func (m *Memory) Reset(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_ = m.cache.Delete(id)
}

// Close releases the backing store.
func (m *Memory) Close() error {
	return m.cache.Close()
}

// Get is the typed convenience wrapper over Memory.Get: values round-trip
// through JSON.
func Get[T any](ctx context.Context, m *Memory, id string, overdue time.Duration, create func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	raw, err := m.Get(ctx, id, overdue, func(ctx context.Context) ([]byte, error) {
		v, err := create(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	})
	if err != nil {
		return zero, err
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, fmt.Errorf("cache decode %q: %w", id, err)
	}
	return out, nil
}

// Set is the typed convenience wrapper over Memory.Set.
func Set[T any](m *Memory, id string, value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.Set(id, raw)
	return nil
}
