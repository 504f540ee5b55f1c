package watcher

import "context"

// Watcher defines the interface for data file change monitoring
type Watcher interface {
	Start(ctx context.Context) error
	Stop() error
}

// ChangeHandler reacts to a detected change of the watched file
type ChangeHandler func(ctx context.Context) error
