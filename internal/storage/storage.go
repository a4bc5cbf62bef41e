package storage

import (
	"context"
	"errors"
)

var ErrKeyNotFound = errors.New("key not found")

// Store is the device-local key-value persistence contract. The cart
// store owns its key exclusively; no other component writes to it.
type Store interface {
	Get(c context.Context, key string) ([]byte, error)
	Set(c context.Context, key string, value []byte) error
	Delete(c context.Context, key string) error
}
