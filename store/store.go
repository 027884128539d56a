// Package store provides the persisted key-value collaborator the engine
// keeps its state in: active account, secret, custom token list, fee
// preference, transaction history, and the sponsorship flag. State must
// survive process restarts; the engine rehydrates from a Store before it
// accepts any operation.
package store

import "errors"

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = errors.New("store: key not found")

// Store is a namespaced key-value store. Keys are slash-separated paths
// (e.g., "wallet/secret", "session/0xabc.../history"). Implementations
// must persist each Set before returning.
type Store interface {
	// Get returns the value for a key, or ErrNotFound.
	Get(key string) ([]byte, error)

	// Set writes a value durably.
	Set(key string, value []byte) error

	// Remove deletes a key. Removing a missing key is not an error.
	Remove(key string) error
}
