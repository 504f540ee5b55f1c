package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/nguyentantai21042004/mockjson/internal/logger"
)

type implStore struct {
	path   string
	logger logger.Logger

	// mu guards model and the reload state. Handlers read under RLock;
	// reload and writes mutate under Lock, so at most one mutator is
	// ever in flight.
	mu       sync.RWMutex
	model    map[string]interface{}
	version  uint64
	loadedAt time.Time
	lastErr  error
}

func (s *implStore) Path() string {
	return s.path
}

// readModel reads and parses the data file, bypassing any cached state
func (s *implStore) readModel() (map[string]interface{}, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read data file: %w", err)
	}

	var model map[string]interface{}
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("parse data file: %w", err)
	}
	if model == nil {
		model = map[string]interface{}{}
	}

	return model, nil
}

func (s *implStore) swap(model map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = model
	s.version++
	s.loadedAt = time.Now()
	s.lastErr = nil
}

func (s *implStore) Reload(ctx context.Context) error {
	model, err := s.readModel()
	if err != nil {
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		return err
	}

	s.swap(model)
	s.logger.Debug(ctx, "model reloaded from %s", s.path)
	return nil
}

func (s *implStore) Snapshot() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return deepCopy(s.model).(map[string]interface{})
}

func (s *implStore) Resource(name string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.model[name]
	if !ok {
		return nil, false
	}
	return deepCopy(v), true
}

func (s *implStore) Find(resource, id string) (map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items, err := s.collection(resource)
	if err != nil {
		return nil, err
	}

	for _, v := range items {
		item, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		if RenderID(item["id"]) == id {
			return deepCopy(item).(map[string]interface{}), nil
		}
	}

	return nil, ErrNotFound
}

func (s *implStore) Insert(ctx context.Context, resource string, item map[string]interface{}) (map[string]interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.collection(resource)
	if err != nil {
		return nil, err
	}

	item = deepCopy(item).(map[string]interface{})
	if _, ok := item["id"]; ok {
		id := RenderID(item["id"])
		for _, v := range items {
			existing, ok := v.(map[string]interface{})
			if ok && RenderID(existing["id"]) == id {
				return nil, ErrExists
			}
		}
	} else {
		item["id"] = nextID(items)
	}

	updated := make([]interface{}, 0, len(items)+1)
	updated = append(updated, items...)
	updated = append(updated, item)

	if err := s.commitLocked(ctx, resource, updated); err != nil {
		return nil, err
	}

	return deepCopy(item).(map[string]interface{}), nil
}

func (s *implStore) Replace(ctx context.Context, resource, id string, item map[string]interface{}) (map[string]interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, idx, err := s.locate(resource, id)
	if err != nil {
		return nil, err
	}

	existing := items[idx].(map[string]interface{})
	item = deepCopy(item).(map[string]interface{})
	item["id"] = existing["id"] // id comes from the path, never the body

	updated := make([]interface{}, len(items))
	copy(updated, items)
	updated[idx] = item

	if err := s.commitLocked(ctx, resource, updated); err != nil {
		return nil, err
	}

	return deepCopy(item).(map[string]interface{}), nil
}

func (s *implStore) Merge(ctx context.Context, resource, id string, fields map[string]interface{}) (map[string]interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, idx, err := s.locate(resource, id)
	if err != nil {
		return nil, err
	}

	item := deepCopy(items[idx]).(map[string]interface{})
	for k, v := range fields {
		if k == "id" {
			continue
		}
		item[k] = deepCopy(v)
	}

	updated := make([]interface{}, len(items))
	copy(updated, items)
	updated[idx] = item

	if err := s.commitLocked(ctx, resource, updated); err != nil {
		return nil, err
	}

	return deepCopy(item).(map[string]interface{}), nil
}

func (s *implStore) Delete(ctx context.Context, resource, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, idx, err := s.locate(resource, id)
	if err != nil {
		return err
	}

	updated := make([]interface{}, 0, len(items)-1)
	updated = append(updated, items[:idx]...)
	updated = append(updated, items[idx+1:]...)

	return s.commitLocked(ctx, resource, updated)
}

func (s *implStore) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		Version:   s.version,
		LoadedAt:  s.loadedAt,
		LastError: s.lastErr,
	}
}

// collection returns the raw slice for a resource; callers hold the lock
func (s *implStore) collection(resource string) ([]interface{}, error) {
	v, ok := s.model[resource]
	if !ok {
		return nil, ErrNotFound
	}
	items, ok := v.([]interface{})
	if !ok {
		return nil, ErrNotCollection
	}
	return items, nil
}

// locate returns the collection and the index of the item matching id
func (s *implStore) locate(resource, id string) ([]interface{}, int, error) {
	items, err := s.collection(resource)
	if err != nil {
		return nil, 0, err
	}

	for i, v := range items {
		item, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		if RenderID(item["id"]) == id {
			return items, i, nil
		}
	}

	return nil, 0, ErrNotFound
}

// commitLocked persists a candidate model holding the updated collection
// and swaps it into the served model only once the write succeeded, so a
// persist failure never leaves memory ahead of the file. Callers hold the
// lock. The resulting change event triggers a reload, which re-reads the
// same bytes.
func (s *implStore) commitLocked(ctx context.Context, resource string, items []interface{}) error {
	model := make(map[string]interface{}, len(s.model)+1)
	for k, v := range s.model {
		model[k] = v
	}
	model[resource] = items

	data, err := json.MarshalIndent(model, "", "  ")
	if err != nil {
		return fmt.Errorf("encode data file: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("write data file: %w", err)
	}

	s.model = model
	s.version++
	s.logger.Debug(ctx, "model persisted to %s", s.path)
	return nil
}

// RenderID renders an item's id for comparison against a path segment.
// JSON numbers decode as float64; integral ids must render without a
// fractional part so that 1 matches "1".
func RenderID(v interface{}) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}

// nextID picks max(numeric ids)+1, starting at 1 for an empty collection
func nextID(items []interface{}) float64 {
	var max float64
	for _, v := range items {
		item, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		switch id := item["id"].(type) {
		case float64:
			if id > max {
				max = id
			}
		case string:
			if n, err := strconv.ParseFloat(id, 64); err == nil && n > max {
				max = n
			}
		}
	}
	return max + 1
}

func deepCopy(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = deepCopy(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = deepCopy(item)
		}
		return out
	default:
		return v
	}
}
