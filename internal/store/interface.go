package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a resource or item does not exist
	ErrNotFound = errors.New("not found")
	// ErrNotCollection is returned for item operations on a singleton resource
	ErrNotCollection = errors.New("resource is not a collection")
	// ErrExists is returned when inserting an item whose id is already taken
	ErrExists = errors.New("item already exists")
)

// Store owns the parsed data file model and guards all access to it
type Store interface {
	// Path returns the resolved absolute path of the data file
	Path() string

	// Reload discards the cached model and re-reads the file from disk.
	// On failure the previous model is kept and the error is recorded.
	Reload(ctx context.Context) error

	// Snapshot returns a deep copy of the whole model
	Snapshot() map[string]interface{}

	// Resource returns a deep copy of one top-level value
	Resource(name string) (interface{}, bool)

	// Find returns the item of a collection whose id renders equal to id
	Find(resource, id string) (map[string]interface{}, error)

	// Insert adds an item to a collection, assigning an id if absent,
	// and persists the model to disk
	Insert(ctx context.Context, resource string, item map[string]interface{}) (map[string]interface{}, error)

	// Replace swaps an item wholesale, preserving its id, and persists
	Replace(ctx context.Context, resource, id string, item map[string]interface{}) (map[string]interface{}, error)

	// Merge overlays fields onto an existing item and persists
	Merge(ctx context.Context, resource, id string, fields map[string]interface{}) (map[string]interface{}, error)

	// Delete removes an item from a collection and persists
	Delete(ctx context.Context, resource, id string) error

	// State reports the reload observability state
	State() State
}

// State is the process-wide reload state, kept for observability only
type State struct {
	Version   uint64
	LoadedAt  time.Time
	LastError error
}
