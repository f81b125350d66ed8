package progression

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/choiceman/internal/observability"
)

// OfferFilterHook is the Lua global consulted for each candidate base.
// Returning false excludes the base; any other value keeps it.
const OfferFilterHook = "offer_filter"

// OfferScope is the scripting scope the offer filter is loaded into.
const OfferScope = "offers"

var (
	// ErrNoActiveOffer is returned by Pick when no offer is outstanding.
	ErrNoActiveOffer = errors.New("progression: no active offer")
	// ErrUnknownOffer is returned by Pick for an id that is not the active offer.
	ErrUnknownOffer = errors.New("progression: unknown offer")
	// ErrNotOffered is returned by Pick for a base the offer does not contain.
	ErrNotOffered = errors.New("progression: base was not offered")
)

// Offer is one presentation of bases to choose from.
type Offer struct {
	ID        uuid.UUID
	Bases     []string
	Milestone bool
	// Total is the total level the offer size was computed from.
	Total int
}

// Pool lists the bases still available to offer, in catalog order.
type Pool interface {
	StillLocked() []string
}

// Unlocker applies a pick.
type Unlocker interface {
	Unlock(ctx context.Context, base string) (bool, error)
	Save(ctx context.Context) error
}

// HookCaller invokes a named Lua hook.
type HookCaller interface {
	HasHook(scope, hook string) bool
	CallHook(scope, hook string, args ...lua.LValue) (lua.LValue, error)
}

// OfferGenerator presents one offer at a time while choices are pending.
type OfferGenerator struct {
	mu      sync.Mutex
	levels  *LevelTracker
	pool    Pool
	src     Source
	scripts HookCaller
	active  *Offer
	logger  *zap.Logger
}

// NewOfferGenerator returns a generator over levels and pool.
// scripts may be nil, in which case no filter applies.
//
// Precondition: levels, pool and src must be non-nil.
func NewOfferGenerator(levels *LevelTracker, pool Pool, src Source, scripts HookCaller, logger *zap.Logger) *OfferGenerator {
	return &OfferGenerator{
		levels:  levels,
		pool:    pool,
		src:     src,
		scripts: scripts,
		logger:  observability.Component(logger, "offers"),
	}
}

// Active returns the outstanding offer, if any.
func (g *OfferGenerator) Active() (Offer, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active == nil {
		return Offer{}, false
	}
	return copyOffer(*g.active), true
}

// Next returns the outstanding offer, or starts a new one when choices are
// pending. An empty pool drains the queue.
//
// Postcondition: ok is false iff no choice is pending or nothing is left to offer.
func (g *OfferGenerator) Next() (Offer, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.active != nil {
		return copyOffer(*g.active), true
	}
	if g.levels.Pending() <= 0 {
		return Offer{}, false
	}

	pool := g.filter(g.pool.StillLocked())
	if len(pool) == 0 {
		g.levels.drain()
		g.logger.Info("nothing left to offer, queue cleared")
		return Offer{}, false
	}

	total, _ := g.levels.Total()
	n := ChoiceCount(total)
	if n > len(pool) {
		n = len(pool)
	}
	Shuffle(g.src, pool)

	offer := &Offer{
		ID:        uuid.New(),
		Bases:     append([]string(nil), pool[:n]...),
		Milestone: g.levels.takeMilestone(),
		Total:     total,
	}
	g.active = offer
	g.logger.Info("offer presented",
		zap.String("offer", offer.ID.String()),
		zap.Strings("bases", offer.Bases),
		zap.Bool("milestone", offer.Milestone),
	)
	return copyOffer(*offer), true
}

func (g *OfferGenerator) filter(pool []string) []string {
	if g.scripts == nil || !g.scripts.HasHook(OfferScope, OfferFilterHook) {
		return pool
	}
	kept := pool[:0]
	for _, base := range pool {
		ret, err := g.scripts.CallHook(OfferScope, OfferFilterHook, lua.LString(base))
		if err != nil {
			g.logger.Warn("offer filter failed", zap.String("base", base), zap.Error(err))
			kept = append(kept, base)
			continue
		}
		if ret == lua.LFalse {
			continue
		}
		kept = append(kept, base)
	}
	return kept
}

// resolve closes the active offer if id matches and base is part of it.
func (g *OfferGenerator) resolve(id uuid.UUID, base string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active == nil {
		return ErrNoActiveOffer
	}
	if g.active.ID != id {
		return fmt.Errorf("%w: %s", ErrUnknownOffer, id)
	}
	for _, b := range g.active.Bases {
		if b == base {
			g.active = nil
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrNotOffered, base)
}

// Reset drops the outstanding offer.
func (g *OfferGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.active = nil
}

func copyOffer(o Offer) Offer {
	o.Bases = append([]string(nil), o.Bases...)
	return o
}

// Picker applies the player's choice from the active offer.
type Picker struct {
	offers *OfferGenerator
	levels *LevelTracker
	store  Unlocker
	logger *zap.Logger
}

// NewPicker returns a Picker.
//
// Precondition: offers, levels and store must be non-nil.
func NewPicker(offers *OfferGenerator, levels *LevelTracker, store Unlocker, logger *zap.Logger) *Picker {
	return &Picker{offers: offers, levels: levels, store: store, logger: observability.Component(logger, "picker")}
}

// Pick unlocks base from offer offerID, saves, and advances the queue.
// It returns the number of choices still pending.
//
// Precondition: offerID names the active offer and base is one of its bases.
func (p *Picker) Pick(ctx context.Context, offerID uuid.UUID, base string) (int, error) {
	if err := p.offers.resolve(offerID, base); err != nil {
		return p.levels.Pending(), err
	}
	if _, err := p.store.Unlock(ctx, base); err != nil {
		return p.levels.Pending(), fmt.Errorf("progression: unlocking %q: %w", base, err)
	}
	if err := p.store.Save(ctx); err != nil {
		p.logger.Warn("saving after pick failed", zap.String("base", base), zap.Error(err))
	}
	remaining := p.levels.consumeChoice()
	p.logger.Info("base picked", zap.String("base", base), zap.Int("remaining", remaining))
	return remaining, nil
}
