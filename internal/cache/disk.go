package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// persistedEntry is the on-disk layout: one JSON file per entry, named by
// the entry's stage and fingerprint, holding payload bytes, creation
// timestamp and TTL. Entries surviving a restart stay valid until their
// TTL lapses.
type persistedEntry struct {
	Stage       Stage         `json:"stage"`
	Fingerprint string        `json:"fingerprint"`
	Payload     []byte        `json:"payload"`
	CreatedAt   time.Time     `json:"created_at"`
	TTL         time.Duration `json:"ttl"`
}

const cacheFileExt = ".json"

// cacheDirPerm and cacheFilePerm are the permissions for the cache dir
// and entry files.
const (
	cacheDirPerm  = 0o755
	cacheFilePerm = 0o644
)

// diskStore persists cache entries as individual files.
type diskStore struct {
	dir string
}

func newDiskStore(dir string) (*diskStore, error) {
	if err := os.MkdirAll(dir, cacheDirPerm); err != nil {
		return nil, err
	}
	return &diskStore{dir: dir}, nil
}

func (d *diskStore) path(key Key) string {
	return filepath.Join(d.dir, key.id()+cacheFileExt)
}

// write persists one entry.
func (d *diskStore) write(e *entry) error {
	data, err := json.Marshal(persistedEntry{
		Stage:       e.key.Stage,
		Fingerprint: e.key.Fingerprint,
		Payload:     e.payload,
		CreatedAt:   e.createdAt,
		TTL:         e.ttl,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(d.path(e.key), data, cacheFilePerm)
}

// remove deletes the entry's file, ignoring entries never persisted.
func (d *diskStore) remove(key Key) {
	_ = os.Remove(d.path(key))
}

// loadAll restores all valid persisted entries. Unreadable or malformed
// files are cache corruption: they count as absent and are deleted.
// Returns the restored entries and the number of corrupted files removed.
func (d *diskStore) loadAll(now time.Time) ([]*entry, int) {
	names, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, 0
	}

	var restored []*entry
	corrupted := 0
	for _, f := range names {
		if f.IsDir() || !strings.HasSuffix(f.Name(), cacheFileExt) {
			continue
		}

		path := filepath.Join(d.dir, f.Name())
		e, loadErr := loadEntry(path)
		if loadErr != nil {
			_ = os.Remove(path)
			corrupted++
			continue
		}

		if e.expired(now) {
			_ = os.Remove(path)
			continue
		}
		restored = append(restored, e)
	}
	return restored, corrupted
}

// loadEntry reads and validates one persisted entry file.
func loadEntry(path string) (*entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var p persistedEntry
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	if p.Fingerprint == "" || p.TTL <= 0 || p.CreatedAt.IsZero() {
		return nil, os.ErrInvalid
	}

	return &entry{
		key:       Key{Stage: p.Stage, Fingerprint: p.Fingerprint},
		payload:   p.Payload,
		createdAt: p.CreatedAt,
		ttl:       p.TTL,
	}, nil
}

// sweep deletes expired and corrupted files, returning how many were
// removed.
func (d *diskStore) sweep(now time.Time) int {
	names, err := os.ReadDir(d.dir)
	if err != nil {
		return 0
	}

	removed := 0
	for _, f := range names {
		if f.IsDir() || !strings.HasSuffix(f.Name(), cacheFileExt) {
			continue
		}

		path := filepath.Join(d.dir, f.Name())
		e, loadErr := loadEntry(path)
		if loadErr != nil || e.expired(now) {
			if os.Remove(path) == nil {
				removed++
			}
		}
	}
	return removed
}

// clear removes every entry file.
func (d *diskStore) clear() error {
	names, err := os.ReadDir(d.dir)
	if err != nil {
		return err
	}
	for _, f := range names {
		if f.IsDir() || !strings.HasSuffix(f.Name(), cacheFileExt) {
			continue
		}
		if err := os.Remove(filepath.Join(d.dir, f.Name())); err != nil {
			return err
		}
	}
	return nil
}
