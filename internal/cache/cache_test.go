package cache

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFreshRoundTrip(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "quality.json"))
	written := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	ttl := 5 * time.Minute

	if err := store.Put("/repo/a.ts", NewEntry("h1", "type:OK | lint:OK", written)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	tests := []struct {
		name string
		hash string
		now  time.Time
		want bool
	}{
		{"immediately", "h1", written.Add(time.Second), true},
		{"just before ttl", "h1", written.Add(ttl - time.Millisecond), true},
		{"at ttl", "h1", written.Add(ttl), false},
		{"after ttl", "h1", written.Add(ttl + time.Minute), false},
		{"hash changed", "h2", written.Add(time.Second), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, ok, err := store.Get("/repo/a.ts")
			if err != nil || !ok {
				t.Fatalf("Get() = %v, %v", ok, err)
			}
			if got := Fresh(e, tt.hash, ttl, tt.now); got != tt.want {
				t.Errorf("Fresh() = %v, want %v", got, tt.want)
			}
			if e.Result != "type:OK | lint:OK" {
				t.Errorf("Result = %q", e.Result)
			}
		})
	}
}

func TestFileStoreMissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "none.json"))
	_, ok, err := store.Get("k")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("Get() on missing file should report absent")
	}
}

func TestFileStoreIgnoresUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	content := `{
  "/a.ts": {"hash": "x", "time": 1700000000.5, "result": "type:OK", "future_field": [1, 2]},
  "broken": "not an object"
}`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	all, err := NewFileStore(path).All()
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("All() returned %d entries, want 1", len(all))
	}
	e := all["/a.ts"]
	if e.Hash != "x" || e.Result != "type:OK" {
		t.Errorf("entry = %+v", e)
	}
	if got := e.Timestamp().Unix(); got != 1700000000 {
		t.Errorf("Timestamp().Unix() = %d", got)
	}
}

func TestFileStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	if err := os.WriteFile(path, []byte("{truncated"), 0600); err != nil {
		t.Fatal(err)
	}
	store := NewFileStore(path)

	if _, _, err := store.Get("k"); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Get() error = %v, want ErrCorrupt", err)
	}

	if err := store.Put("k", NewEntry("h", "r", time.Now())); err != nil {
		t.Fatalf("Put() over corrupt file error = %v", err)
	}
	if _, ok, err := store.Get("k"); err != nil || !ok {
		t.Errorf("Get() after repair = %v, %v", ok, err)
	}
}

func TestEntryWithoutTimeIsStale(t *testing.T) {
	e := Entry{Hash: "h"}
	if Fresh(e, "h", time.Hour, time.Now()) {
		t.Error("entry without time should never be fresh")
	}
}

func TestRepoKey(t *testing.T) {
	a := RepoKey("/home/u/repo")
	b := RepoKey("/home/u/other")
	if !strings.HasPrefix(a, "repo:") || len(a) != len("repo:")+12 {
		t.Errorf("RepoKey() = %q", a)
	}
	if a == b {
		t.Error("different roots should produce different keys")
	}
	if a != RepoKey("/home/u/repo") {
		t.Error("RepoKey() should be stable")
	}
}
