// Package availability recomputes, once per cycle, which skill actions are
// enabled and which spell resources are available, and answers spell and
// skill-action queries against the most recent result.
package availability

import (
	"context"
	"sort"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/cory-johannsen/choiceman/internal/game/action"
	"github.com/cory-johannsen/choiceman/internal/game/canon"
	"github.com/cory-johannsen/choiceman/internal/game/provider"
	"github.com/cory-johannsen/choiceman/internal/game/spell"
	"github.com/cory-johannsen/choiceman/internal/observability"
)

// PouchSlotCount is the number of resource pouch slots the host reports.
const PouchSlotCount = 6

// PouchSlot is one resource pouch slot: a type index and an amount.
type PouchSlot struct {
	TypeIndex int
	Amount    int
}

// Requirement is the content of a spell requirement display.
// Present is false when the display is not shown at all. Entries equal to
// EmptyEntry are placeholders and are skipped.
type Requirement struct {
	Present bool
	IDs     []int
}

// EmptyEntry marks an unused requirement display child.
const EmptyEntry = -1

// World is the host's view of the player, read once per query or cycle.
// Every read may fail; a failing read contributes nothing.
type World interface {
	Worn() ([]int, error)
	Carried() ([]int, error)
	Pouch() ([PouchSlotCount]PouchSlot, error)
	// PouchResource resolves a pouch type index to a raw item id.
	PouchResource(typeIndex int) (int, error)
	AutocastRequirement() (Requirement, error)
	SpellRequirement() (Requirement, error)
	InExemptZone() (bool, error)
	InExemptMode() (bool, error)
}

// Bases resolves canonical item ids to their base names.
type Bases interface {
	BaseOf(id int) (string, bool)
}

// Usability reports whether a base is tracked and unlocked.
type Usability interface {
	IsUsable(base string) bool
}

// Snapshot is the immutable result of one cycle.
type Snapshot struct {
	actions   map[action.Action]bool
	resources map[int]bool
}

func newSnapshot() *Snapshot {
	return &Snapshot{actions: make(map[action.Action]bool), resources: make(map[int]bool)}
}

// ActionEnabled reports whether a was enabled by some worn or carried tool.
func (s *Snapshot) ActionEnabled(a action.Action) bool { return s.actions[a] }

// ResourceAvailable reports whether the canonical resource id is provided.
func (s *Snapshot) ResourceAvailable(id int) bool { return s.resources[id] }

// Actions returns the enabled actions in declaration order.
func (s *Snapshot) Actions() []action.Action {
	var out []action.Action
	for _, a := range action.All() {
		if s.actions[a] {
			out = append(out, a)
		}
	}
	return out
}

// Resources returns the available canonical resource ids in ascending order.
func (s *Snapshot) Resources() []int {
	out := make([]int, 0, len(s.resources))
	for id := range s.resources {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// ResourceCount returns the number of available resources.
func (s *Snapshot) ResourceCount() int { return len(s.resources) }

// Deps bundles the evaluator's collaborators.
type Deps struct {
	World     World
	Canon     canon.Canonicalizer
	Bases     Bases
	Usability Usability
	Providers *provider.Registry
	Tools     *action.Tools
	Sacks     *spell.Sacks
}

// Evaluator computes and publishes availability snapshots.
// Cycle is expected to run on one goroutine; queries may run concurrently
// with it and always observe a fully built snapshot.
type Evaluator struct {
	deps    Deps
	current atomic.Pointer[Snapshot]
	logger  *zap.Logger
}

// NewEvaluator returns an Evaluator whose initial snapshot is empty.
//
// Precondition: every field of deps must be non-nil.
func NewEvaluator(deps Deps, logger *zap.Logger) *Evaluator {
	e := &Evaluator{deps: deps, logger: observability.Component(logger, "availability")}
	e.current.Store(newSnapshot())
	return e
}

// Snapshot returns the most recently published snapshot.
func (e *Evaluator) Snapshot() *Snapshot { return e.current.Load() }

// Cycle rebuilds the snapshot from the current world and publishes it.
//
// Postcondition: the returned snapshot is the one subsequent queries see.
func (e *Evaluator) Cycle(ctx context.Context) *Snapshot {
	snap := newSnapshot()

	if worn, err := e.deps.World.Worn(); err != nil {
		e.logger.Debug("reading worn items failed", zap.Error(err))
	} else {
		for _, raw := range worn {
			if ctx.Err() != nil {
				break
			}
			id, ok := e.canonical(raw)
			if !ok {
				continue
			}
			e.enableTool(snap, id)
			if e.deps.Providers.IsEquippedProvider(id) || e.deps.Providers.IsCarriedProvider(id) {
				e.addProvided(snap, id)
			}
		}
	}

	if carried, err := e.deps.World.Carried(); err != nil {
		e.logger.Debug("reading carried items failed", zap.Error(err))
	} else {
		for _, raw := range carried {
			if ctx.Err() != nil {
				break
			}
			id, ok := e.canonical(raw)
			if !ok {
				continue
			}
			e.enableTool(snap, id)
			if e.deps.Providers.IsCarriedProvider(id) {
				e.addProvided(snap, id)
			}
		}
	}

	e.addPouch(snap)

	e.current.Store(snap)
	return snap
}

func (e *Evaluator) addPouch(snap *Snapshot) {
	slots, err := e.deps.World.Pouch()
	if err != nil {
		e.logger.Debug("reading pouch failed", zap.Error(err))
		return
	}
	for i, slot := range slots {
		if slot.Amount <= 0 {
			continue
		}
		raw, err := e.deps.World.PouchResource(slot.TypeIndex)
		if err != nil {
			e.logger.Debug("resolving pouch slot failed", zap.Int("slot", i), zap.Int("type_index", slot.TypeIndex), zap.Error(err))
			continue
		}
		id, ok := e.canonical(raw)
		if !ok {
			continue
		}
		if e.deps.Providers.IsCarriedProvider(id) && e.usableID(id) {
			snap.resources[id] = true
		}
	}
}

func (e *Evaluator) enableTool(snap *Snapshot, id int) {
	tool, ok := e.deps.Tools.Lookup(id)
	if !ok {
		return
	}
	if !tool.RequiresUnlock || e.usableID(id) {
		snap.actions[tool.Action] = true
	}
}

// addProvided adds the resources of a provider whose own base is usable,
// keeping only resources whose base is usable too.
func (e *Evaluator) addProvided(snap *Snapshot, providerID int) {
	if !e.usableID(providerID) {
		return
	}
	for _, raw := range e.deps.Providers.ProvidedResources(providerID) {
		id, ok := e.canonical(raw)
		if ok && e.usableID(id) {
			snap.resources[id] = true
		}
	}
}

func (e *Evaluator) canonical(raw int) (int, bool) {
	id, err := e.deps.Canon.Canonicalize(raw)
	if err != nil {
		e.logger.Debug("canonicalizing item failed", zap.Int("id", raw), zap.Error(err))
		return 0, false
	}
	return id, true
}

// usableID reports whether the canonical id belongs to a tracked, unlocked base.
func (e *Evaluator) usableID(id int) bool {
	base, ok := e.deps.Bases.BaseOf(id)
	return ok && e.deps.Usability.IsUsable(base)
}

// IsSkillActionEnabled reports whether option names a known action enabled
// in the current snapshot.
func (e *Evaluator) IsSkillActionEnabled(option string) bool {
	a, ok := action.Parse(option)
	return ok && e.Snapshot().ActionEnabled(a)
}

// IsSpellEnabled decides whether the named spell may be cast now.
// Exempt zones and modes allow everything. A spell granted by a carried sack
// is allowed by the sack. Otherwise the autocast requirement display, or the
// manual one when autocast is absent, must list only available resources.
func (e *Evaluator) IsSpellEnabled(name string) bool {
	if e.exempt() {
		return true
	}
	if e.sackGrants(name) {
		return true
	}

	snap := e.Snapshot()
	req, err := e.deps.World.AutocastRequirement()
	if err != nil {
		e.logger.Debug("reading autocast requirement failed", zap.Error(err))
	}
	if err == nil && req.Present {
		return e.requirementMet(snap, req)
	}
	req, err = e.deps.World.SpellRequirement()
	if err != nil {
		e.logger.Debug("reading spell requirement failed", zap.Error(err))
		return false
	}
	if !req.Present {
		return false
	}
	return e.requirementMet(snap, req)
}

func (e *Evaluator) exempt() bool {
	zone, err := e.deps.World.InExemptZone()
	if err != nil {
		e.logger.Debug("exempt zone check failed", zap.Error(err))
	}
	if err == nil && zone {
		return true
	}
	mode, err := e.deps.World.InExemptMode()
	if err != nil {
		e.logger.Debug("exempt mode check failed", zap.Error(err))
		return false
	}
	return mode
}

func (e *Evaluator) sackGrants(name string) bool {
	sack, ok := e.deps.Sacks.ForSpell(name)
	if !ok {
		return false
	}
	carried, err := e.deps.World.Carried()
	if err != nil {
		e.logger.Debug("reading carried items failed", zap.Error(err))
		return false
	}
	for _, raw := range carried {
		if raw != sack.ItemID {
			continue
		}
		if sack.PresenceOnly {
			return true
		}
		id, ok := e.canonical(raw)
		return ok && e.usableID(id)
	}
	return false
}

func (e *Evaluator) requirementMet(snap *Snapshot, req Requirement) bool {
	for _, raw := range req.IDs {
		if raw == EmptyEntry {
			continue
		}
		id, ok := e.canonical(raw)
		if !ok || !e.usableID(id) || !snap.ResourceAvailable(id) {
			return false
		}
	}
	return true
}
