package watcher

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/nguyentantai21042004/mockjson/internal/logger"
)

// New creates a Watcher for a single file. The file's containing directory
// is subscribed non-recursively; events for other entries are ignored.
func New(filePath string, handler ChangeHandler, log logger.Logger, debounce time.Duration) (Watcher, error) {
	abs, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("resolve watch path: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}

	return &implWatcher{
		dir:      filepath.Dir(abs),
		file:     filepath.Base(abs),
		handler:  handler,
		logger:   log,
		watcher:  fsw,
		debounce: debounce,
	}, nil
}
