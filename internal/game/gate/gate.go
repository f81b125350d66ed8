// Package gate decides whether a candidate player interaction may proceed
// under the unlock rules, and dims the rows it refuses.
package gate

import (
	"regexp"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/cory-johannsen/choiceman/internal/game/action"
	"github.com/cory-johannsen/choiceman/internal/game/canon"
	"github.com/cory-johannsen/choiceman/internal/game/spell"
	"github.com/cory-johannsen/choiceman/internal/observability"
)

// Surface identifies a benign UI surface in which a fixed set of verbs is
// always permitted.
type Surface int32

const (
	// SurfaceNone means no benign surface is open.
	SurfaceNone Surface = 0
	// SurfaceBank is the bank view.
	SurfaceBank Surface = 12
	// SurfaceDepositBox is the deposit box view.
	SurfaceDepositBox Surface = 192
)

// IsBenign reports whether id names one of the benign surfaces.
func IsBenign(id int) bool {
	switch Surface(id) {
	case SurfaceBank, SurfaceDepositBox:
		return true
	}
	return false
}

// Kind classifies where an interaction comes from.
type Kind int

const (
	// KindMenu is an ordinary menu row.
	KindMenu Kind = iota
	// KindGround is an action on an item lying on the ground.
	KindGround
	// KindUse is "use item on ..." targeting something else.
	KindUse
)

// Interaction is one candidate menu row. ItemID is the raw item id, or a
// value <= 0 when the row references no item.
type Interaction struct {
	Kind   Kind
	Option string
	Target string
	ItemID int
}

// Row is an Interaction as displayed, after the gate has had a chance to dim it.
type Row struct {
	Interaction
	Suppressed bool
}

// Reason explains a Decision.
type Reason string

const (
	ReasonSafeVerb     Reason = "safe_verb"
	ReasonSkillAction  Reason = "skill_action"
	ReasonSpell        Reason = "spell"
	ReasonNoItem       Reason = "no_item"
	ReasonUntracked    Reason = "untracked"
	ReasonSurface      Reason = "surface"
	ReasonUsable       Reason = "usable"
	ReasonLocked       Reason = "locked"
	ReasonGround       Reason = "ground"
	ReasonUse          Reason = "use"
	ReasonSuppressed   Reason = "suppressed"
	ReasonNotConcerned Reason = "not_concerned"
)

// Decision is the gate's verdict on an interaction.
type Decision struct {
	Allow  bool
	Reason Reason
}

func allow(r Reason) Decision { return Decision{Allow: true, Reason: r} }
func deny(r Reason) Decision  { return Decision{Allow: false, Reason: r} }

// Availability answers skill-action and spell questions from the latest snapshot.
type Availability interface {
	IsSkillActionEnabled(option string) bool
	IsSpellEnabled(name string) bool
}

// Bases resolves canonical ids to base names.
type Bases interface {
	BaseOf(id int) (string, bool)
}

// Usability reports whether a base is tracked and unlocked.
type Usability interface {
	IsUsable(base string) bool
}

// DimColor is the tag prefixed to the labels of refused rows.
const DimColor = "<col=808080>"

var (
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
	safeVerbs    = []string{"examine", "drop", "destroy", "release"}
	surfaceVerbs = []string{"Deposit", "Withdraw", "Examine", "Release", "Destroy"}
)

// StripTags removes markup tags from menu text.
func StripTags(s string) string { return tagPattern.ReplaceAllString(s, "") }

// IsSafeVerb reports whether option is one of the verbs allowed on any item.
// Comparison ignores case and markup.
func IsSafeVerb(option string) bool {
	option = StripTags(option)
	for _, v := range safeVerbs {
		if strings.EqualFold(option, v) {
			return true
		}
	}
	return false
}

func surfaceAllows(option string) bool {
	for _, p := range surfaceVerbs {
		if strings.HasPrefix(option, p) {
			return true
		}
	}
	return false
}

// Deps bundles the gate's collaborators.
type Deps struct {
	Availability Availability
	Spells       *spell.Book
	Canon        canon.Canonicalizer
	Bases        Bases
	Usability    Usability
}

// Gate is the interaction gate. The open surface may be changed from any
// goroutine; decisions read it atomically.
type Gate struct {
	deps    Deps
	surface atomic.Int32
	logger  *zap.Logger
}

// New returns a Gate with no surface open.
//
// Precondition: every field of deps must be non-nil.
func New(deps Deps, logger *zap.Logger) *Gate {
	return &Gate{deps: deps, logger: observability.Component(logger, "gate")}
}

// SurfaceOpened records that surface id opened. Non-benign ids are ignored.
func (g *Gate) SurfaceOpened(id int) {
	if IsBenign(id) {
		g.surface.Store(int32(id))
	}
}

// SurfaceClosed clears the open surface when a benign surface closes.
func (g *Gate) SurfaceClosed(id int) {
	if IsBenign(id) {
		g.surface.Store(int32(SurfaceNone))
	}
}

// OpenSurface returns the currently open benign surface, if any.
func (g *Gate) OpenSurface() (Surface, bool) {
	s := Surface(g.surface.Load())
	return s, s != SurfaceNone
}

// Reset clears all gate state.
func (g *Gate) Reset() { g.surface.Store(int32(SurfaceNone)) }

// Evaluate decides a candidate row when it is first offered.
func (g *Gate) Evaluate(in Interaction) Decision {
	if in.Kind == KindGround {
		if g.AllowGroundPickup(in.ItemID) {
			return allow(ReasonGround)
		}
		return deny(ReasonGround)
	}

	option := StripTags(in.Option)
	target := StripTags(in.Target)

	if IsSafeVerb(option) {
		return allow(ReasonSafeVerb)
	}
	if _, ok := action.Parse(option); ok {
		return Decision{Allow: g.deps.Availability.IsSkillActionEnabled(option), Reason: ReasonSkillAction}
	}
	if name, ok := g.deps.Spells.Match(option); ok {
		return Decision{Allow: g.deps.Availability.IsSpellEnabled(name), Reason: ReasonSpell}
	}
	if name, ok := g.deps.Spells.Match(target); ok {
		return Decision{Allow: g.deps.Availability.IsSpellEnabled(name), Reason: ReasonSpell}
	}

	base, tracked, hasItem := g.lookup(in.ItemID)
	if !hasItem {
		return allow(ReasonNoItem)
	}
	if !tracked {
		return allow(ReasonUntracked)
	}
	if _, open := g.OpenSurface(); open {
		return Decision{Allow: surfaceAllows(option), Reason: ReasonSurface}
	}
	if g.deps.Usability.IsUsable(base) {
		return allow(ReasonUsable)
	}
	return deny(ReasonLocked)
}

// AllowGroundPickup reports whether a ground item may be taken: allowed
// unless it is tracked and its base is not usable.
func (g *Gate) AllowGroundPickup(rawID int) bool {
	base, tracked, _ := g.lookup(rawID)
	return !tracked || g.deps.Usability.IsUsable(base)
}

// AllowUseOn reports whether an item may be used on another target.
// Rows that carry no item are always allowed.
func (g *Gate) AllowUseOn(usedID int) bool {
	if usedID <= 0 {
		return true
	}
	base, tracked, _ := g.lookup(usedID)
	return !tracked || g.deps.Usability.IsUsable(base)
}

// ConfirmClick rechecks a row at the moment it is clicked. A row suppressed
// when offered stays refused; every other row is rechecked against the
// current unlock state.
func (g *Gate) ConfirmClick(row Row) Decision {
	if row.Suppressed {
		return deny(ReasonSuppressed)
	}
	switch row.Kind {
	case KindGround:
		if !g.AllowGroundPickup(row.ItemID) {
			return deny(ReasonGround)
		}
		return allow(ReasonGround)
	case KindUse:
		if !g.AllowUseOn(row.ItemID) {
			return deny(ReasonUse)
		}
	}
	if row.ItemID <= 0 {
		return allow(ReasonNotConcerned)
	}

	option := StripTags(row.Option)
	if IsSafeVerb(option) {
		return allow(ReasonSafeVerb)
	}
	if _, open := g.OpenSurface(); open && surfaceAllows(option) {
		return allow(ReasonSurface)
	}
	base, tracked, _ := g.lookup(row.ItemID)
	if tracked && !g.deps.Usability.IsUsable(base) {
		return deny(ReasonLocked)
	}
	return allow(ReasonNotConcerned)
}

// Decorate evaluates row and, when refused, dims its labels and marks it
// suppressed. Allowed rows are returned unchanged.
func (g *Gate) Decorate(row Row) (Row, Decision) {
	d := g.Evaluate(row.Interaction)
	if d.Allow {
		return row, d
	}
	row.Option = DimColor + StripTags(row.Option)
	row.Target = DimColor + StripTags(row.Target)
	row.Suppressed = true
	g.logger.Debug("interaction refused",
		zap.String("option", StripTags(row.Option)),
		zap.Int("id", row.ItemID),
		zap.String("reason", string(d.Reason)),
	)
	return row, d
}

// lookup canonicalizes raw and resolves its base. hasItem is false when raw
// names no item or cannot be canonicalized.
func (g *Gate) lookup(raw int) (base string, tracked, hasItem bool) {
	if raw <= 0 {
		return "", false, false
	}
	id, err := g.deps.Canon.Canonicalize(raw)
	if err != nil {
		g.logger.Debug("canonicalizing item failed", zap.Int("id", raw), zap.Error(err))
		return "", false, false
	}
	base, tracked = g.deps.Bases.BaseOf(id)
	return base, tracked, true
}
