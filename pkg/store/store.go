// Package store provides the durable persistence backing DOS file content:
// a name to byte-string mapping with get/set/delete, plus a fetch-once bulk
// content source used to seed names that have never been written locally.
package store

import "fmt"

// Store persists file content across sessions. A miss is distinguishable
// from an empty file: Get returns ErrKeyNotFound, never ("", nil), for a
// name that was never set.
type Store interface {
	Get(name string) (string, error)
	Set(name string, content string) error
	Delete(name string) error
}

// ErrKeyNotFound is returned when a name is not present in the store.
type ErrKeyNotFound struct {
	Key string
}

func (e *ErrKeyNotFound) Error() string {
	return fmt.Sprintf("key not found: %s", e.Key)
}

// ErrInternal is returned when the backing engine fails.
type ErrInternal struct {
	Err error
}

func (e *ErrInternal) Error() string {
	return fmt.Sprintf("internal error: %v", e.Err)
}

func (e *ErrInternal) Unwrap() error {
	return e.Err
}
