// Package domain provides domain models used across the application.
package domain

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ErrMissingPartName is returned when a part request has no name.
var ErrMissingPartName = errors.New("part request missing part name")

// PartRequest describes one automotive part to price. It is immutable once
// submitted to a batch.
type PartRequest struct {
	ID       string `json:"part_id" yaml:"part_id" mapstructure:"part_id"`
	Name     string `json:"part_name" yaml:"part_name" mapstructure:"part_name"`
	Code     string `json:"part_code,omitempty" yaml:"part_code" mapstructure:"part_code"`
	Keywords string `json:"keywords,omitempty" yaml:"keywords" mapstructure:"keywords"`
}

// Normalize fills defaults and validates the request: a missing ID gets a
// generated UUID and empty keywords default to the part name.
func (p PartRequest) Normalize() (PartRequest, error) {
	if strings.TrimSpace(p.Name) == "" {
		return PartRequest{}, ErrMissingPartName
	}
	if strings.TrimSpace(p.ID) == "" {
		p.ID = uuid.NewString()
	}
	if strings.TrimSpace(p.Keywords) == "" {
		p.Keywords = p.Name
	}
	return p, nil
}

// SearchCandidate is a raw result from the search stage. Candidates are
// ephemeral: produced per search call and discarded after filtering.
type SearchCandidate struct {
	Title        string `json:"title"`
	ProductRef   string `json:"product_ref"`
	PriceHint    string `json:"price_hint,omitempty"`
	CategoryHint string `json:"category_hint,omitempty"`
}

// RankedCandidate is a search candidate with its relevance score and rank.
type RankedCandidate struct {
	SearchCandidate

	Score float64 `json:"score"`
	Rank  int     `json:"rank"`
	// PartKey is the canonical part classification extracted from the
	// title, in the form BODY:<TYPE>:<SIDE>:<TECH>:<TRIM>.
	PartKey string `json:"part_key,omitempty"`
}
