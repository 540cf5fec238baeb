package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means neither the cache nor the durable store holds the entity.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable is matched by every UnavailableError.
	ErrUnavailable = errors.New("store unavailable")
)

// Layer names which half of the write-through pair failed.
type Layer string

const (
	LayerCache   Layer = "cache"
	LayerDurable Layer = "durable"
)

// UnavailableError reports a backend that could not answer. It is never
// returned for a plain miss.
type UnavailableError struct {
	Layer Layer
	Op    string
	Err   error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Layer, e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() []error {
	return []error{ErrUnavailable, e.Err}
}

func unavailable(layer Layer, op string, err error) error {
	return &UnavailableError{Layer: layer, Op: op, Err: err}
}
