package cache

import (
	"context"
	"time"

	"github.com/tundrawallet/tundra/internal/storage"
)

// refreshedPrefix namespaces last-refreshed markers inside the durable store.
const refreshedPrefix = "refreshed:"

// Refreshed is the persisted "last-refreshed" store: the same overdue
// semantics as the in-memory cache, but durable across restarts. It throttles
// expensive refetches — transaction history at most every ~10 minutes per
// asset, metadata weekly — each id tracked independently.
type Refreshed struct {
	store storage.Store
	now   func() time.Time
}

func NewRefreshed(store storage.Store) *Refreshed {
	return &Refreshed{store: store, now: time.Now}
}

func (r *Refreshed) key(id string) string {
	return refreshedPrefix + id
}

// Due reports whether id is overdue for a refresh: either it was never
// marked, or its marker is older than overdue. A corrupt marker counts as
// overdue.
func (r *Refreshed) Due(ctx context.Context, id string, overdue time.Duration) (bool, error) {
	values, err := r.store.Get(ctx, r.key(id))
	if err != nil {
		return false, err
	}

	raw, ok := values[r.key(id)]
	if !ok {
		return true, nil
	}

	ts, err := time.Parse(time.RFC3339Nano, string(raw))
	if err != nil {
		return true, nil
	}
	return r.now().Sub(ts) >= overdue, nil
}

// Mark records now as the last refresh time for id.
func (r *Refreshed) Mark(ctx context.Context, id string) error {
	stamp := r.now().UTC().Format(time.RFC3339Nano)
	return r.store.Set(ctx, map[string][]byte{r.key(id): []byte(stamp)})
}

// Reset forgets the marker for id, making it immediately due.
func (r *Refreshed) Reset(ctx context.Context, id string) error {
	return r.store.Remove(ctx, r.key(id))
}
