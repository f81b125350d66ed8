// Package provider describes which items supply spell resources, and whether
// they must be worn to do so.
package provider

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

var (
	// ErrDuplicateProvider is returned when two declarations share a name or an item id.
	ErrDuplicateProvider = errors.New("provider: duplicate declaration")
	// ErrForwardReference is returned when a declaration names a component declared at or after itself.
	ErrForwardReference = errors.New("provider: component declared later")
	// ErrUnknownReference is returned when a declaration names a component that does not exist.
	ErrUnknownReference = errors.New("provider: unknown component")
	// ErrInvalidDeclaration is returned for declarations with a blank name or non-positive id.
	ErrInvalidDeclaration = errors.New("provider: invalid declaration")
)

// Declaration is one entry of the provider table.
// An entry with no Components is a plain resource that provides exactly its own id.
type Declaration struct {
	Name             string   `yaml:"name"`
	ID               int      `yaml:"id"`
	RequiresEquipped bool     `yaml:"requires_equipped"`
	Components       []string `yaml:"components"`
}

// Registry is the flattened, read-only provider table.
type Registry struct {
	equipped map[int]bool
	carried  map[int]bool
	provides map[int][]int
	names    map[int]string
}

// Build resolves decls in two passes: the first registers every entry, the
// second unions component sets. A component must be declared strictly before
// the entry that references it.
//
// Postcondition: returns a Registry, or an error wrapping one of the package
// sentinel errors and naming the offending declaration.
func Build(decls []Declaration) (*Registry, error) {
	byName := make(map[string]int, len(decls))
	byID := make(map[int]string, len(decls))
	for i, d := range decls {
		if d.Name == "" || d.ID <= 0 {
			return nil, fmt.Errorf("%w: entry %d (%q, id %d)", ErrInvalidDeclaration, i, d.Name, d.ID)
		}
		if _, dup := byName[d.Name]; dup {
			return nil, fmt.Errorf("%w: name %q", ErrDuplicateProvider, d.Name)
		}
		if other, dup := byID[d.ID]; dup {
			return nil, fmt.Errorf("%w: id %d registered by %q and %q", ErrDuplicateProvider, d.ID, other, d.Name)
		}
		byName[d.Name] = i
		byID[d.ID] = d.Name
	}

	resolved := make([]map[int]bool, len(decls))
	for i, d := range decls {
		set := make(map[int]bool)
		if len(d.Components) == 0 {
			set[d.ID] = true
		}
		for _, comp := range d.Components {
			j, ok := byName[comp]
			if !ok {
				return nil, fmt.Errorf("%w: %q references %q", ErrUnknownReference, d.Name, comp)
			}
			if j >= i {
				return nil, fmt.Errorf("%w: %q references %q", ErrForwardReference, d.Name, comp)
			}
			for id := range resolved[j] {
				set[id] = true
			}
		}
		resolved[i] = set
	}

	r := &Registry{
		equipped: make(map[int]bool),
		carried:  make(map[int]bool),
		provides: make(map[int][]int, len(decls)),
		names:    make(map[int]string, len(decls)),
	}
	for i, d := range decls {
		ids := make([]int, 0, len(resolved[i]))
		for id := range resolved[i] {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		r.provides[d.ID] = ids
		r.names[d.ID] = d.Name
		if d.RequiresEquipped {
			r.equipped[d.ID] = true
		} else {
			r.carried[d.ID] = true
		}
	}
	return r, nil
}

// Default builds the registry from DefaultDeclarations.
// It panics on error because the built-in table is fixed at compile time.
func Default() *Registry {
	r, err := Build(DefaultDeclarations())
	if err != nil {
		panic(fmt.Sprintf("building default provider registry: %v", err))
	}
	return r
}

// LoadDeclarations reads an ordered provider table from a YAML or JSON file.
//
// Precondition: path names a readable file whose top level is a list.
func LoadDeclarations(path string) ([]Declaration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("provider: reading %q: %w", path, err)
	}
	var decls []Declaration
	if err := yaml.Unmarshal(data, &decls); err != nil {
		return nil, fmt.Errorf("provider: parsing %q: %w", path, err)
	}
	return decls, nil
}

// IsEquippedProvider reports whether id only provides while worn.
func (r *Registry) IsEquippedProvider(id int) bool { return r.equipped[id] }

// IsCarriedProvider reports whether id provides from any carried container.
func (r *Registry) IsCarriedProvider(id int) bool { return r.carried[id] }

// ProvidedResources returns a sorted copy of the resource ids id supplies,
// or an empty slice when id is not a provider.
func (r *Registry) ProvidedResources(id int) []int {
	src := r.provides[id]
	out := make([]int, len(src))
	copy(out, src)
	return out
}

// Name returns the declaration name registered for id.
func (r *Registry) Name(id int) (string, bool) {
	n, ok := r.names[id]
	return n, ok
}

// Len returns the number of registered providers.
func (r *Registry) Len() int { return len(r.provides) }
