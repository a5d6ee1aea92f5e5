// Package storage provides the durable client-side key/value state used
// by the session layer: a sqlite-backed repository for real runs and an
// in-memory one for tests.
package storage

import "context"

// Repository is a small key/value store for persisted client state.
//
// Get returns (nil, nil) for a missing key; absence is not an error.
// Update runs fn against a transactional view of the repository, so a
// group of writes (e.g. the user record and its token) lands atomically.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Update(ctx context.Context, fn func(Repository) error) error
}
