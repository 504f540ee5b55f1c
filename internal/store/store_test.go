package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/nguyentantai21042004/mockjson/internal/logger"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func newTestStore(t *testing.T, content string) (Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "db.json")
	writeFile(t, path, content)

	s, err := New(path, logger.New("error"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s, path
}

func TestNew(t *testing.T) {
	s, _ := newTestStore(t, `{"posts": [], "profile": {"name": "mockjson"}}`)

	snap := s.Snapshot()
	if _, ok := snap["posts"]; !ok {
		t.Error("Snapshot() missing posts key")
	}
	if _, ok := snap["profile"]; !ok {
		t.Error("Snapshot() missing profile key")
	}

	if got := s.State().Version; got != 1 {
		t.Errorf("Version = %v, want 1", got)
	}
}

func TestNewErrors(t *testing.T) {
	log := logger.New("error")

	if _, err := New(filepath.Join(t.TempDir(), "missing.json"), log); err == nil {
		t.Error("New() should fail for a missing file")
	}

	path := filepath.Join(t.TempDir(), "db.json")
	writeFile(t, path, `{"posts": [`)
	if _, err := New(path, log); err == nil {
		t.Error("New() should fail for malformed JSON")
	}
}

func TestReload(t *testing.T) {
	ctx := context.Background()
	s, path := newTestStore(t, `{"posts": []}`)

	writeFile(t, path, `{"posts": [{"id": 1, "title": "hello"}]}`)
	if err := s.Reload(ctx); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	v, ok := s.Resource("posts")
	if !ok {
		t.Fatal("Resource(posts) not found after reload")
	}
	items := v.([]interface{})
	if len(items) != 1 {
		t.Fatalf("posts length = %d, want 1", len(items))
	}
	if got := items[0].(map[string]interface{})["title"]; got != "hello" {
		t.Errorf("title = %v, want hello", got)
	}

	state := s.State()
	if state.Version != 2 {
		t.Errorf("Version = %v, want 2", state.Version)
	}
	if state.LastError != nil {
		t.Errorf("LastError = %v, want nil", state.LastError)
	}
	if state.LoadedAt.IsZero() {
		t.Error("LoadedAt should be set")
	}
}

func TestReloadMalformedKeepsModel(t *testing.T) {
	ctx := context.Background()
	s, path := newTestStore(t, `{"posts": [{"id": 1}]}`)

	writeFile(t, path, `{"posts": [{"id": 1},`)
	if err := s.Reload(ctx); err == nil {
		t.Fatal("Reload() should fail for truncated JSON")
	}

	// Previous model stays served
	v, ok := s.Resource("posts")
	if !ok {
		t.Fatal("Resource(posts) lost after failed reload")
	}
	if len(v.([]interface{})) != 1 {
		t.Error("previous model should stay intact after failed reload")
	}
	if s.State().LastError == nil {
		t.Error("LastError should be recorded")
	}

	// A good write recovers
	writeFile(t, path, `{"posts": [{"id": 1}, {"id": 2}]}`)
	if err := s.Reload(ctx); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if s.State().LastError != nil {
		t.Error("LastError should be cleared after successful reload")
	}
	v, _ = s.Resource("posts")
	if len(v.([]interface{})) != 2 {
		t.Error("model should reflect recovered file")
	}
}

func TestReloadIdempotent(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, `{"posts": [{"id": 1, "title": "same"}]}`)

	before := s.Snapshot()
	if err := s.Reload(ctx); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if err := s.Reload(ctx); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	if !reflect.DeepEqual(before, s.Snapshot()) {
		t.Error("reloading unchanged content should serve identical data")
	}
}

func TestInsert(t *testing.T) {
	ctx := context.Background()
	s, path := newTestStore(t, `{"posts": [{"id": 1}]}`)

	created, err := s.Insert(ctx, "posts", map[string]interface{}{"title": "new"})
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if got := created["id"]; got != float64(2) {
		t.Errorf("assigned id = %v, want 2", got)
	}

	// Persisted to disk
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var onDisk map[string]interface{}
	if err := json.Unmarshal(data, &onDisk); err != nil {
		t.Fatalf("persisted file is not valid JSON: %v", err)
	}
	if len(onDisk["posts"].([]interface{})) != 2 {
		t.Error("insert should persist the new item")
	}

	// Duplicate explicit id
	_, err = s.Insert(ctx, "posts", map[string]interface{}{"id": float64(1)})
	if !errors.Is(err, ErrExists) {
		t.Errorf("Insert() error = %v, want ErrExists", err)
	}

	// Unknown resource
	_, err = s.Insert(ctx, "comments", map[string]interface{}{})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Insert() error = %v, want ErrNotFound", err)
	}
}

func TestFind(t *testing.T) {
	s, _ := newTestStore(t, `{"posts": [{"id": 1}, {"id": "abc"}], "profile": {"name": "x"}}`)

	tests := []struct {
		name     string
		resource string
		id       string
		wantErr  error
	}{
		{"numeric id", "posts", "1", nil},
		{"string id", "posts", "abc", nil},
		{"missing item", "posts", "99", ErrNotFound},
		{"missing resource", "comments", "1", ErrNotFound},
		{"singleton resource", "profile", "1", ErrNotCollection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Find(tt.resource, tt.id)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Find() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestReplace(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, `{"posts": [{"id": 1, "title": "old", "draft": true}]}`)

	got, err := s.Replace(ctx, "posts", "1", map[string]interface{}{"title": "new"})
	if err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if got["title"] != "new" {
		t.Errorf("title = %v, want new", got["title"])
	}
	if got["id"] != float64(1) {
		t.Errorf("id = %v, want 1 (path id wins)", got["id"])
	}
	if _, ok := got["draft"]; ok {
		t.Error("Replace() should drop fields absent from the body")
	}

	if _, err := s.Replace(ctx, "posts", "99", map[string]interface{}{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Replace() error = %v, want ErrNotFound", err)
	}
}

func TestMerge(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, `{"posts": [{"id": 1, "title": "old", "draft": true}]}`)

	got, err := s.Merge(ctx, "posts", "1", map[string]interface{}{"title": "new", "id": float64(7)})
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if got["title"] != "new" {
		t.Errorf("title = %v, want new", got["title"])
	}
	if got["draft"] != true {
		t.Error("Merge() should keep fields absent from the body")
	}
	if got["id"] != float64(1) {
		t.Error("Merge() must not overwrite the id")
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s, path := newTestStore(t, `{"posts": [{"id": 1}, {"id": 2}]}`)

	if err := s.Delete(ctx, "posts", "1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Find("posts", "1"); !errors.Is(err, ErrNotFound) {
		t.Error("deleted item should be gone")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), `"id": 1`) {
		t.Error("delete should persist")
	}

	if err := s.Delete(ctx, "posts", "1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
}

func TestPersistFailureLeavesModelUnchanged(t *testing.T) {
	ctx := context.Background()
	s, path := newTestStore(t, `{"posts": [{"id": 1, "title": "kept"}, {"id": 2}]}`)

	// Make the data file unwritable by replacing it with a directory
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(path, 0755); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Insert(ctx, "posts", map[string]interface{}{"title": "ghost"}); err == nil {
		t.Fatal("Insert() should fail when the file cannot be written")
	}
	if _, err := s.Find("posts", "3"); !errors.Is(err, ErrNotFound) {
		t.Errorf("failed insert left item in served model: Find error = %v, want ErrNotFound", err)
	}

	if _, err := s.Replace(ctx, "posts", "1", map[string]interface{}{"title": "ghost"}); err == nil {
		t.Fatal("Replace() should fail when the file cannot be written")
	}
	if _, err := s.Merge(ctx, "posts", "1", map[string]interface{}{"title": "ghost"}); err == nil {
		t.Fatal("Merge() should fail when the file cannot be written")
	}
	item, err := s.Find("posts", "1")
	if err != nil {
		t.Fatal(err)
	}
	if item["title"] != "kept" {
		t.Errorf("failed write mutated served item: title = %v, want kept", item["title"])
	}

	if err := s.Delete(ctx, "posts", "2"); err == nil {
		t.Fatal("Delete() should fail when the file cannot be written")
	}
	if _, err := s.Find("posts", "2"); err != nil {
		t.Errorf("failed delete removed item from served model: %v", err)
	}

	if got := len(s.Snapshot()["posts"].([]interface{})); got != 2 {
		t.Errorf("posts length = %d, want 2 after failed writes", got)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	s, _ := newTestStore(t, `{"posts": [{"id": 1}]}`)

	snap := s.Snapshot()
	snap["posts"].([]interface{})[0].(map[string]interface{})["id"] = float64(99)

	if _, err := s.Find("posts", "1"); err != nil {
		t.Error("mutating a snapshot must not affect the served model")
	}
}

func TestRenderID(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want string
	}{
		{"integral float", float64(1), "1"},
		{"large integral float", float64(12345), "12345"},
		{"fractional float", 1.5, "1.5"},
		{"string", "abc", "abc"},
		{"nil", nil, ""},
		{"bool", true, "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RenderID(tt.in); got != tt.want {
				t.Errorf("RenderID(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
