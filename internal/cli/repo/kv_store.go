package repo

import (
	"context"
	"errors"
)

// ErrEmptyKey is returned by every backend for an empty key.
var ErrEmptyKey = errors.New("empty key")

// KVStore описывает постоянное key-value хранилище клиента (аналог localStorage).
//
// A missing key reads as "" with a nil error, and removing a missing key is not
// an error, so callers never need to special-case "not found".
type KVStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
