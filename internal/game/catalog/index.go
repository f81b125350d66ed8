// Package catalog indexes item bases (logical item families) against the
// concrete item ids that belong to them.
package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/choiceman/internal/observability"
)

// ErrEmptyCatalog is returned when a catalog document holds no records at all.
var ErrEmptyCatalog = errors.New("catalog: document is empty")

// table is one fully parsed catalog. It is never mutated after parse.
type table struct {
	order     []string
	baseToIDs map[string][]int
	idToBase  map[int]string
}

func newTable() *table {
	return &table{
		baseToIDs: make(map[string][]int),
		idToBase:  make(map[int]string),
	}
}

// Index is the bidirectional base ⇄ id lookup.
// All methods are safe for concurrent use; loads swap the whole table at once.
type Index struct {
	mu     sync.RWMutex
	tbl    *table
	logger *zap.Logger
}

// NewIndex returns an empty Index.
//
// Postcondition: AllBases() is empty until a load succeeds.
func NewIndex(logger *zap.Logger) *Index {
	return &Index{
		tbl:    newTable(),
		logger: observability.Component(logger, "catalog"),
	}
}

// LoadDefault replaces the index with the catalog at path.
// Any failure leaves the index empty rather than partially applied.
//
// Postcondition: on error, AllBases() is empty; the error is also logged.
func (x *Index) LoadDefault(path string) error {
	tbl, err := parseFile(path)
	if err != nil {
		x.swap(newTable())
		x.logger.Warn("default catalog unavailable, index cleared",
			zap.String("path", path),
			zap.Error(err),
		)
		return err
	}
	x.swap(tbl)
	x.logger.Info("catalog loaded",
		zap.String("path", path),
		zap.Int("bases", len(tbl.order)),
		zap.Int("ids", len(tbl.idToBase)),
	)
	return nil
}

// LoadSupplementary replaces the index with the catalog read from r.
// On failure the current index is kept unchanged.
func (x *Index) LoadSupplementary(r io.Reader) error {
	if r == nil {
		return errors.New("catalog: nil reader")
	}
	tbl, err := parse(r)
	if err != nil {
		x.logger.Warn("supplementary catalog rejected, keeping current index", zap.Error(err))
		return err
	}
	x.swap(tbl)
	x.logger.Info("supplementary catalog loaded", zap.Int("bases", len(tbl.order)))
	return nil
}

// LoadSupplementaryFile opens path and calls LoadSupplementary.
func (x *Index) LoadSupplementaryFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		x.logger.Warn("supplementary catalog unreadable", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("catalog: opening %q: %w", path, err)
	}
	defer f.Close()
	return x.LoadSupplementary(f)
}

func (x *Index) swap(tbl *table) {
	x.mu.Lock()
	x.tbl = tbl
	x.mu.Unlock()
}

func (x *Index) current() *table {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.tbl
}

// BaseOf returns the base a canonical id belongs to.
//
// Postcondition: ok is false iff id is not tracked.
func (x *Index) BaseOf(id int) (string, bool) {
	base, ok := x.current().idToBase[id]
	return base, ok
}

// IDsOf returns a copy of the member ids of base in catalog order, or an
// empty slice when base is unknown.
func (x *Index) IDsOf(base string) []int {
	ids := x.current().baseToIDs[base]
	out := make([]int, len(ids))
	copy(out, ids)
	return out
}

// RepresentativeID returns the smallest member id of base.
func (x *Index) RepresentativeID(base string) (int, bool) {
	ids := x.current().baseToIDs[base]
	if len(ids) == 0 {
		return 0, false
	}
	lowest := ids[0]
	for _, id := range ids[1:] {
		if id < lowest {
			lowest = id
		}
	}
	return lowest, true
}

// AllBases returns every base name in catalog order.
func (x *Index) AllBases() []string {
	order := x.current().order
	out := make([]string, len(order))
	copy(out, order)
	return out
}

// IsTracked reports whether base exists in the index.
func (x *Index) IsTracked(base string) bool {
	_, ok := x.current().baseToIDs[base]
	return ok
}

// StillLocked returns the bases, in catalog order, for which isUnlocked is false.
//
// Precondition: isUnlocked must be non-nil.
func (x *Index) StillLocked(isUnlocked func(base string) bool) []string {
	var out []string
	for _, b := range x.current().order {
		if !isUnlocked(b) {
			out = append(out, b)
		}
	}
	return out
}

// Len returns the number of tracked bases.
func (x *Index) Len() int {
	return len(x.current().order)
}

func parseFile(path string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: opening %q: %w", path, err)
	}
	defer f.Close()
	return parse(f)
}

// parse decodes a catalog document. JSON documents are accepted because
// they are valid YAML.
func parse(r io.Reader) (*table, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyCatalog
		}
		return nil, fmt.Errorf("catalog: decoding: %w", err)
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) == 1 {
		root = root.Content[0]
	}
	if root.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("catalog: top level must be a list of records, got kind %d", root.Kind)
	}

	tbl := newTable()
	for _, rec := range root.Content {
		addRecord(tbl, rec)
	}
	return tbl, nil
}

// addRecord applies one catalog record. Malformed records, records whose
// name was already seen, and ids already owned by another base are skipped.
func addRecord(tbl *table, rec *yaml.Node) {
	if rec.Kind != yaml.MappingNode {
		return
	}
	fields := make(map[string]*yaml.Node, len(rec.Content)/2)
	for i := 0; i+1 < len(rec.Content); i += 2 {
		fields[rec.Content[i].Value] = rec.Content[i+1]
	}

	nameNode, ok := fields["name"]
	if !ok || nameNode.Kind != yaml.ScalarNode {
		return
	}
	name := strings.TrimSpace(nameNode.Value)
	if name == "" {
		return
	}
	if _, dup := tbl.baseToIDs[name]; dup {
		return
	}

	var ids []int
	seen := make(map[int]bool)
	add := func(id int) bool {
		if id <= 0 || seen[id] {
			return false
		}
		if owner, taken := tbl.idToBase[id]; taken && owner != name {
			return false
		}
		seen[id] = true
		ids = append(ids, id)
		return true
	}

	if n, ok := fields["ids"]; ok && n.Kind == yaml.SequenceNode {
		for _, el := range n.Content {
			if id, ok := scalarInt(el); ok {
				add(id)
			}
		}
	}
	if len(ids) == 0 {
		if n, ok := fields["id"]; ok {
			if id, ok := scalarInt(n); ok {
				add(id)
			}
		}
	}
	if len(ids) == 0 {
		if n, ok := fields["itemid"]; ok {
			for _, id := range itemIDField(n) {
				add(id)
			}
		}
	}
	if len(ids) == 0 {
		return
	}

	tbl.order = append(tbl.order, name)
	tbl.baseToIDs[name] = ids
	for _, id := range ids {
		tbl.idToBase[id] = name
	}
}

// itemIDField accepts a list, a single number, or a comma-delimited string.
func itemIDField(n *yaml.Node) []int {
	var out []int
	switch n.Kind {
	case yaml.SequenceNode:
		for _, el := range n.Content {
			if id, ok := scalarInt(el); ok {
				out = append(out, id)
			}
		}
	case yaml.ScalarNode:
		if n.Tag == "!!str" {
			for _, part := range strings.Split(n.Value, ",") {
				if id, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
					out = append(out, id)
				}
			}
			return out
		}
		if id, ok := scalarInt(n); ok {
			out = append(out, id)
		}
	}
	return out
}

func scalarInt(n *yaml.Node) (int, bool) {
	if n.Kind != yaml.ScalarNode {
		return 0, false
	}
	id, err := strconv.Atoi(strings.TrimSpace(n.Value))
	if err != nil {
		return 0, false
	}
	return id, true
}

// SortedIDs returns ids sorted ascending; used for stable presentation.
func SortedIDs(ids []int) []int {
	out := make([]int, len(ids))
	copy(out, ids)
	sort.Ints(out)
	return out
}
