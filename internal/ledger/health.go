package ledger

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/tundrawallet/tundra/internal/common"
)

// Health is the shared offline indicator for the ledger boundary. Transport
// failures from any asset flip it once instead of surfacing a raw error per
// widget; the first successful call flips it back.
type Health struct {
	offline  atomic.Bool
	mu       sync.Mutex
	onChange func(offline bool)
}

// NewHealth builds a health tracker. onChange may be nil; it fires once per
// state flip, never per call.
func NewHealth(onChange func(offline bool)) *Health {
	return &Health{onChange: onChange}
}

// Report inspects the outcome of a remote call and updates the indicator.
// It returns err unchanged so call sites can report and propagate in one
// expression.
func (h *Health) Report(err error) error {
	if h == nil {
		return err
	}

	offline := errors.Is(err, common.ErrOffline)
	if h.offline.Swap(offline) != offline {
		h.mu.Lock()
		cb := h.onChange
		h.mu.Unlock()
		if cb != nil {
			cb(offline)
		}
	}
	return err
}

// Offline reports the current indicator state.
func (h *Health) Offline() bool {
	if h == nil {
		return false
	}
	return h.offline.Load()
}
