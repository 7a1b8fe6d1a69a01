// Package cache stores results of expensive checks keyed by file path or
// repository identifier.
//
// The file store does not lock. Concurrent hook processes may interleave
// their read-modify-write cycles and the last writer wins. That is accepted:
// the cache only saves redundant rechecks and is never the source of truth
// for a blocking decision. Writes go through a rename so a reader never sees
// truncated JSON.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/adrianpk/hookgate/internal/fsutil"
)

// ErrCorrupt is returned when a cache file exists but is not a JSON object.
var ErrCorrupt = errors.New("cache file is corrupt")

// Entry is a single cached check result. Time is stored as fractional unix
// seconds so files written by older tooling stay readable.
type Entry struct {
	Hash     string            `json:"hash,omitempty"`
	Time     float64           `json:"time"`
	Result   string            `json:"result,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
	Meta     map[string]string `json:"meta,omitempty"`
}

// Timestamp returns the entry write time.
func (e Entry) Timestamp() time.Time {
	if e.Time <= 0 {
		return time.Time{}
	}
	sec, frac := math.Modf(e.Time)
	return time.Unix(int64(sec), int64(frac*1e9))
}

// Age returns how long ago the entry was written. Entries without a
// timestamp are infinitely old.
func (e Entry) Age(now time.Time) time.Duration {
	if e.Time <= 0 {
		return time.Duration(math.MaxInt64)
	}
	return now.Sub(e.Timestamp())
}

// NewEntry stamps an entry with the given time.
func NewEntry(hash, result string, now time.Time) Entry {
	return Entry{
		Hash:   hash,
		Time:   float64(now.UnixNano()) / 1e9,
		Result: result,
	}
}

// Fresh reports whether the entry still describes content with the given
// hash and was written less than ttl ago.
func Fresh(e Entry, hash string, ttl time.Duration, now time.Time) bool {
	if e.Hash != hash {
		return false
	}
	return e.Age(now) < ttl
}

// Store is a key/value store for cache entries.
type Store interface {
	Get(key string) (Entry, bool, error)
	Put(key string, e Entry) error
	All() (map[string]Entry, error)
}

// FileStore keeps all entries in one JSON object on disk.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by the JSON file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Get returns the entry for key. A missing file is an empty store.
func (s *FileStore) Get(key string) (Entry, bool, error) {
	all, err := s.All()
	if err != nil {
		return Entry{}, false, err
	}
	e, ok := all[key]
	return e, ok, nil
}

// Put replaces the entry for key.
func (s *FileStore) Put(key string, e Entry) error {
	all, err := s.All()
	if err != nil {
		// A corrupt file is replaced rather than blocking new writes.
		if !errors.Is(err, ErrCorrupt) {
			return err
		}
		all = make(map[string]Entry)
	}
	all[key] = e

	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	return fsutil.WriteFileAtomic(s.path, data, 0600)
}

// All returns every entry. Values that are not objects are skipped.
func (s *FileStore) All() (map[string]Entry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]Entry), nil
		}
		return nil, fmt.Errorf("read cache %s: %w", s.path, err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.path, err)
	}

	out := make(map[string]Entry, len(raw))
	for k, v := range raw {
		var e Entry
		if err := json.Unmarshal(v, &e); err != nil {
			continue
		}
		out[k] = e
	}
	return out, nil
}

// HashBytes returns the hex sha256 of data.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashFile returns the hex sha256 of the file content.
func HashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return HashBytes(data), nil
}

// RepoKey derives a stable key for a repository root.
func RepoKey(root string) string {
	return "repo:" + HashBytes([]byte(root))[:12]
}
