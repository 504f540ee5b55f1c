package store

import (
	"fmt"
	"path/filepath"

	"github.com/nguyentantai21042004/mockjson/internal/logger"
)

// New creates a Store bound to the given data file and performs the
// initial read. A file that is missing or malformed at startup is an error.
func New(path string, log logger.Logger) (Store, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve data file path: %w", err)
	}

	s := &implStore{
		path:   abs,
		logger: log,
	}

	model, err := s.readModel()
	if err != nil {
		return nil, err
	}
	s.swap(model)

	return s, nil
}
