// Package canon collapses cosmetic and state variants of an item onto one
// canonical item id before any catalog or provider lookup.
package canon

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidID is returned for ids that can never name an item.
var ErrInvalidID = errors.New("canon: invalid item id")

// Canonicalizer maps a raw observed item id to its canonical form.
//
// Postcondition: a nil error implies the returned id is > 0.
type Canonicalizer interface {
	Canonicalize(raw int) (int, error)
}

// Func adapts a plain function into a Canonicalizer.
type Func func(raw int) (int, error)

// Canonicalize calls f.
func (f Func) Canonicalize(raw int) (int, error) { return f(raw) }

// Identity returns raw unchanged for any positive id.
var Identity Canonicalizer = Func(func(raw int) (int, error) {
	if raw <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidID, raw)
	}
	return raw, nil
})

// VariantTable is a static raw-id → canonical-id table. Ids absent from the
// table are their own canonical form.
type VariantTable struct {
	variants map[int]int
}

// variantFile is the on-disk shape of a variant table.
type variantFile struct {
	Variants []struct {
		Canonical int   `yaml:"canonical"`
		Raw       []int `yaml:"raw"`
	} `yaml:"variants"`
}

// NewVariantTable builds a table from an explicit map.
//
// Precondition: every key and value must be > 0.
// Postcondition: returns an error naming the first invalid entry.
func NewVariantTable(variants map[int]int) (*VariantTable, error) {
	t := &VariantTable{variants: make(map[int]int, len(variants))}
	for raw, canonical := range variants {
		if raw <= 0 || canonical <= 0 {
			return nil, fmt.Errorf("%w: variant %d -> %d", ErrInvalidID, raw, canonical)
		}
		t.variants[raw] = canonical
	}
	return t, nil
}

// LoadVariantTable reads a YAML (or JSON) variant table from path.
//
// Precondition: path names a readable file.
// Postcondition: returns a usable table or a non-nil error; a raw id listed
// under two canonical ids is an error.
func LoadVariantTable(path string) (*VariantTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("canon: reading %q: %w", path, err)
	}
	var f variantFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("canon: parsing %q: %w", path, err)
	}
	m := make(map[int]int)
	for _, v := range f.Variants {
		for _, raw := range v.Raw {
			if prev, dup := m[raw]; dup && prev != v.Canonical {
				return nil, fmt.Errorf("canon: raw id %d listed under %d and %d", raw, prev, v.Canonical)
			}
			m[raw] = v.Canonical
		}
	}
	return NewVariantTable(m)
}

// Canonicalize implements Canonicalizer.
func (t *VariantTable) Canonicalize(raw int) (int, error) {
	if raw <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidID, raw)
	}
	if c, ok := t.variants[raw]; ok {
		return c, nil
	}
	return raw, nil
}

// Len returns the number of explicit variants.
func (t *VariantTable) Len() int { return len(t.variants) }
