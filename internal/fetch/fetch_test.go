package fetch_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/partscout/partscout/internal/fetch"
)

func TestErrorTaxonomy(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")

	transient := fetch.Transient("search", cause)
	assert.True(t, fetch.IsTransient(transient))
	assert.ErrorIs(t, transient, cause)
	assert.Contains(t, transient.Error(), "search")
	assert.Contains(t, transient.Error(), "transient")

	permanent := fetch.Permanent("drill_down", cause)
	assert.False(t, fetch.IsTransient(permanent))
	assert.Contains(t, permanent.Error(), "permanent")
}

func TestIsTransientUnclassified(t *testing.T) {
	t.Parallel()

	assert.True(t, fetch.IsTransient(errors.New("unknown network issue")),
		"unclassified errors default to transient")
	assert.False(t, fetch.IsTransient(nil))
}

func TestIsTransientWrapped(t *testing.T) {
	t.Parallel()

	inner := fetch.Permanent("search", errors.New("gone"))
	wrapped := fmt.Errorf("stage failed: %w", inner)
	assert.False(t, fetch.IsTransient(wrapped), "classification survives wrapping")
}
