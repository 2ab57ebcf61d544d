package id

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator creates opaque IDs suitable for external references.
type Generator interface {
	NewID() (string, error)
}

// UUIDGenerator issues time-ordered UUIDv7 values so ledger ids sort by creation.
type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) NewID() (string, error) {
	v, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return v.String(), nil
}

// PrefixedGenerator prepends a stable prefix such as "pick_" to ids from next.
type PrefixedGenerator struct {
	prefix string
	next   Generator
}

func WithPrefix(prefix string, next Generator) *PrefixedGenerator {
	if next == nil {
		next = NewUUIDGenerator()
	}
	return &PrefixedGenerator{prefix: prefix, next: next}
}

func (g *PrefixedGenerator) NewID() (string, error) {
	raw, err := g.next.NewID()
	if err != nil {
		return "", err
	}
	return g.prefix + raw, nil
}
