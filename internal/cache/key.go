// Package cache provides a content-addressed, TTL-bounded store for
// search-stage and drill-down-stage results, with single-flight
// de-duplication of concurrent identical requests and file persistence
// across process restarts.
package cache

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/partscout/partscout/internal/textutil"
)

// Stage distinguishes the two fetch stages sharing the store.
type Stage string

const (
	// StageSearch keys search-result payloads by query.
	StageSearch Stage = "search"
	// StageProduct keys drill-down payloads by product reference.
	StageProduct Stage = "product"
)

// Key is the deterministic fingerprint of a (stage, query) pair. Queries
// are normalized before hashing so trivially different spellings of the
// same request share an entry.
type Key struct {
	Stage       Stage
	Fingerprint string
}

// NewKey fingerprints a stage and query.
func NewKey(stage Stage, query string) Key {
	sum := sha256.Sum256([]byte(string(stage) + "\x00" + textutil.NormalizeText(query)))
	return Key{
		Stage:       stage,
		Fingerprint: hex.EncodeToString(sum[:]),
	}
}

// id is the store-internal identity of the key.
func (k Key) id() string {
	return string(k.Stage) + "_" + k.Fingerprint
}
