// Package fetch defines the marketplace fetch collaborator contract
// consumed by the pipeline, its error taxonomy, and a colly-based
// implementation. The core pipeline only ever sees the structured records
// returned here; it never parses markup.
package fetch

import (
	"context"
	"errors"
	"fmt"

	"github.com/partscout/partscout/internal/domain"
)

// Searcher executes the first fetch stage: a keyword search returning raw
// candidate records. Implementations must be safe for concurrent use.
type Searcher interface {
	Search(ctx context.Context, query string) ([]domain.SearchCandidate, error)
}

// DrillDowner executes the second fetch stage: enumerating seller offers
// on a specific product's detail page. Implementations must be safe for
// concurrent use.
type DrillDowner interface {
	DrillDown(ctx context.Context, productRef string) ([]domain.RawOffer, error)
}

// Client is the full fetch collaborator contract.
type Client interface {
	Searcher
	DrillDowner
}

// ErrorKind classifies fetch failures.
type ErrorKind int

const (
	// KindTransient covers timeouts, rate limiting and transport
	// failures. Transient errors are retried with backoff.
	KindTransient ErrorKind = iota
	// KindPermanent covers not-found and malformed responses. Permanent
	// errors are never retried; they are recorded per candidate or per
	// part.
	KindPermanent
)

// String returns the kind label.
func (k ErrorKind) String() string {
	if k == KindPermanent {
		return "permanent"
	}
	return "transient"
}

// Error is a classified fetch failure.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// Error returns the error message.
func (e *Error) Error() string {
	return fmt.Sprintf("fetch %s (%s): %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Transient wraps err as a retryable fetch error.
func Transient(op string, err error) *Error {
	return &Error{Kind: KindTransient, Op: op, Err: err}
}

// Permanent wraps err as a non-retryable fetch error.
func Permanent(op string, err error) *Error {
	return &Error{Kind: KindPermanent, Op: op, Err: err}
}

// IsTransient reports whether err should be retried. Unclassified errors
// count as transient: an unknown failure mode from the network layer is
// worth one more attempt, while permanence must be proven.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind == KindTransient
	}
	return true
}
