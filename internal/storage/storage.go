// Package storage defines the persistent key/value collaborators the wallet
// core saves state through, plus the two bundled implementations: a durable
// Badger-backed store and a session-scoped in-memory store.
//
// Contract: writes are last-write-wins and there is no transactionality
// across keys, so multi-key updates must stay internally idempotent if
// partially applied.
package storage

import "context"

// Store is an asynchronous key/value collaborator.
type Store interface {
	// Get returns the values for the requested keys. Absent keys are simply
	// missing from the result map; absence is not an error.
	Get(ctx context.Context, keys ...string) (map[string][]byte, error)

	// Set writes all given key/value pairs, last write wins.
	Set(ctx context.Context, values map[string][]byte) error

	// Remove deletes the given keys. Removing an absent key is a no-op.
	Remove(ctx context.Context, keys ...string) error
}
