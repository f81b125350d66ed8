package progression

import (
	"context"

	"go.uber.org/zap"

	"github.com/cory-johannsen/choiceman/internal/game/canon"
	"github.com/cory-johannsen/choiceman/internal/observability"
)

// Bases resolves canonical ids to base names.
type Bases interface {
	BaseOf(id int) (string, bool)
}

// ObtainedMarker records first sightings.
type ObtainedMarker interface {
	MarkObtainedIfFirst(ctx context.Context, base string) bool
}

// ObtainedTracker marks bases obtained the first time they show up in the
// player's carried container.
type ObtainedTracker struct {
	canon  canon.Canonicalizer
	bases  Bases
	marker ObtainedMarker
	logger *zap.Logger
}

// NewObtainedTracker returns an ObtainedTracker.
func NewObtainedTracker(c canon.Canonicalizer, bases Bases, marker ObtainedMarker, logger *zap.Logger) *ObtainedTracker {
	return &ObtainedTracker{canon: c, bases: bases, marker: marker, logger: observability.Component(logger, "obtained")}
}

// Observe inspects the carried items and returns the bases obtained for the
// first time, in container order.
func (t *ObtainedTracker) Observe(ctx context.Context, carried []int) []string {
	var first []string
	for _, raw := range carried {
		if raw <= 0 {
			continue
		}
		id, err := t.canon.Canonicalize(raw)
		if err != nil {
			t.logger.Debug("canonicalizing item failed", zap.Int("id", raw), zap.Error(err))
			continue
		}
		base, ok := t.bases.BaseOf(id)
		if !ok {
			continue
		}
		if t.marker.MarkObtainedIfFirst(ctx, base) {
			first = append(first, base)
		}
	}
	return first
}

// UnlockQuery answers unlock and obtain questions.
type UnlockQuery interface {
	IsUnlocked(base string) bool
	IsObtained(base string) bool
}

// ExchangeFilter decides which exchange search results stay visible: only
// bases that are both unlocked and obtained.
type ExchangeFilter struct {
	canon canon.Canonicalizer
	bases Bases
	state UnlockQuery
}

// NewExchangeFilter returns an ExchangeFilter.
func NewExchangeFilter(c canon.Canonicalizer, bases Bases, state UnlockQuery) *ExchangeFilter {
	return &ExchangeFilter{canon: c, bases: bases, state: state}
}

// Visible reports whether the listing for raw stays visible. Untracked items
// are hidden.
func (f *ExchangeFilter) Visible(raw int) bool {
	id, err := f.canon.Canonicalize(raw)
	if err != nil {
		return false
	}
	base, ok := f.bases.BaseOf(id)
	return ok && f.state.IsUnlocked(base) && f.state.IsObtained(base)
}

// WorldType names a kind of game world.
type WorldType string

const (
	WorldDeadman           WorldType = "DEADMAN"
	WorldSeasonal          WorldType = "SEASONAL"
	WorldBeta              WorldType = "BETA_WORLD"
	WorldPvPArena          WorldType = "PVP_ARENA"
	WorldQuestSpeedrunning WorldType = "QUEST_SPEEDRUNNING"
	WorldTournament        WorldType = "TOURNAMENT_WORLD"
	WorldLastManStanding   WorldType = "LAST_MAN_STANDING"
	WorldMembers           WorldType = "MEMBERS"
)

var excludedWorlds = map[WorldType]bool{
	WorldDeadman:           true,
	WorldSeasonal:          true,
	WorldBeta:              true,
	WorldPvPArena:          true,
	WorldQuestSpeedrunning: true,
	WorldTournament:        true,
}

// IsNormalWorld reports whether unlock rules apply on a world of the given types.
func IsNormalWorld(types []WorldType) bool {
	for _, t := range types {
		if excludedWorlds[t] {
			return false
		}
	}
	return true
}
