package gate_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/choiceman/internal/game/canon"
	"github.com/cory-johannsen/choiceman/internal/game/catalog"
	"github.com/cory-johannsen/choiceman/internal/game/gate"
	"github.com/cory-johannsen/choiceman/internal/game/spell"
	"github.com/cory-johannsen/choiceman/internal/game/unlock"
)

type stubAvailability struct {
	skills map[string]bool
	spells map[string]bool
}

func (s stubAvailability) IsSkillActionEnabled(option string) bool { return s.skills[option] }
func (s stubAvailability) IsSpellEnabled(name string) bool         { return s.spells[name] }

type nopPersister struct{}

func (nopPersister) Load(context.Context) (unlock.State, error) { return unlock.State{}, nil }
func (nopPersister) Save(context.Context, unlock.State) error   { return nil }

type fixture struct {
	gate  *gate.Gate
	store *unlock.Store
}

func newFixture(t *testing.T, avail stubAvailability) fixture {
	t.Helper()
	idx := catalog.NewIndex(zap.NewNop())
	require.NoError(t, idx.LoadSupplementary(strings.NewReader(`[
		{"name": "Bronze axe", "ids": [1, 2]},
		{"name": "Lobster", "id": 379}
	]`)))
	store := unlock.NewStore(idx, nopPersister{}, zap.NewNop())
	g := gate.New(gate.Deps{
		Availability: avail,
		Spells:       spell.DefaultBook(),
		Canon:        canon.Identity,
		Bases:        idx,
		Usability:    store,
	}, zap.NewNop())
	return fixture{gate: g, store: store}
}

func TestGroundPickup_BronzeAxe(t *testing.T) {
	f := newFixture(t, stubAvailability{})
	assert.False(t, f.gate.AllowGroundPickup(2))

	_, err := f.store.Unlock(context.Background(), "Bronze axe")
	require.NoError(t, err)
	assert.True(t, f.gate.AllowGroundPickup(2))
	assert.True(t, f.gate.AllowGroundPickup(1))
}

func TestGroundPickup_Untracked(t *testing.T) {
	f := newFixture(t, stubAvailability{})
	assert.True(t, f.gate.AllowGroundPickup(995))
	assert.True(t, f.gate.AllowGroundPickup(0))
}

func TestEvaluate_SafeVerbsAlwaysAllowed(t *testing.T) {
	f := newFixture(t, stubAvailability{})
	f.gate.SurfaceOpened(int(gate.SurfaceBank))
	for _, verb := range []string{"Examine", "drop", "DESTROY", "Release", "<col=ff9040>Drop</col>"} {
		d := f.gate.Evaluate(gate.Interaction{Option: verb, Target: "Bronze axe", ItemID: 1})
		assert.True(t, d.Allow, "verb %q", verb)
		assert.Equal(t, gate.ReasonSafeVerb, d.Reason)
	}
}

func TestEvaluate_LockedItemDenied(t *testing.T) {
	f := newFixture(t, stubAvailability{})
	d := f.gate.Evaluate(gate.Interaction{Option: "Wield", Target: "Bronze axe", ItemID: 1})
	assert.False(t, d.Allow)
	assert.Equal(t, gate.ReasonLocked, d.Reason)

	_, err := f.store.Unlock(context.Background(), "Bronze axe")
	require.NoError(t, err)
	d = f.gate.Evaluate(gate.Interaction{Option: "Wield", Target: "Bronze axe", ItemID: 1})
	assert.True(t, d.Allow)
	assert.Equal(t, gate.ReasonUsable, d.Reason)
}

func TestEvaluate_NonItemAndUntracked(t *testing.T) {
	f := newFixture(t, stubAvailability{})
	d := f.gate.Evaluate(gate.Interaction{Option: "Walk here"})
	assert.True(t, d.Allow)
	assert.Equal(t, gate.ReasonNoItem, d.Reason)

	d = f.gate.Evaluate(gate.Interaction{Option: "Eat", Target: "Cake", ItemID: 1891})
	assert.True(t, d.Allow)
	assert.Equal(t, gate.ReasonUntracked, d.Reason)
}

func TestEvaluate_BankSurface(t *testing.T) {
	f := newFixture(t, stubAvailability{})
	f.gate.SurfaceOpened(int(gate.SurfaceBank))

	d := f.gate.Evaluate(gate.Interaction{Option: "Withdraw-1", Target: "Lobster", ItemID: 379})
	assert.True(t, d.Allow)
	assert.Equal(t, gate.ReasonSurface, d.Reason)

	d = f.gate.Evaluate(gate.Interaction{Option: "Wield", Target: "Lobster", ItemID: 379})
	assert.False(t, d.Allow)

	f.gate.SurfaceClosed(int(gate.SurfaceBank))
	_, open := f.gate.OpenSurface()
	assert.False(t, open)
	d = f.gate.Evaluate(gate.Interaction{Option: "Withdraw-1", Target: "Lobster", ItemID: 379})
	assert.False(t, d.Allow)
}

func TestSurface_IgnoresOtherWidgets(t *testing.T) {
	f := newFixture(t, stubAvailability{})
	f.gate.SurfaceOpened(149)
	_, open := f.gate.OpenSurface()
	assert.False(t, open)

	f.gate.SurfaceOpened(int(gate.SurfaceDepositBox))
	s, open := f.gate.OpenSurface()
	assert.True(t, open)
	assert.Equal(t, gate.SurfaceDepositBox, s)

	f.gate.SurfaceClosed(149)
	_, open = f.gate.OpenSurface()
	assert.True(t, open)
}

func TestEvaluate_DelegatesSkillActionsAndSpells(t *testing.T) {
	f := newFixture(t, stubAvailability{
		skills: map[string]bool{"Mine": true},
		spells: map[string]bool{"Fire Strike": true},
	})
	assert.True(t, f.gate.Evaluate(gate.Interaction{Option: "Mine", Target: "Rocks"}).Allow)
	assert.False(t, f.gate.Evaluate(gate.Interaction{Option: "Chop down", Target: "Tree"}).Allow)

	d := f.gate.Evaluate(gate.Interaction{Option: "Cast", Target: "<col=00ff00>Fire Strike</col> -> Goblin"})
	assert.True(t, d.Allow)
	assert.Equal(t, gate.ReasonSpell, d.Reason)
	assert.False(t, f.gate.Evaluate(gate.Interaction{Option: "Wind Strike"}).Allow)
}

func TestConfirmClick(t *testing.T) {
	f := newFixture(t, stubAvailability{})

	d := f.gate.ConfirmClick(gate.Row{Interaction: gate.Interaction{Option: "Walk here"}, Suppressed: true})
	assert.False(t, d.Allow)
	assert.Equal(t, gate.ReasonSuppressed, d.Reason)

	d = f.gate.ConfirmClick(gate.Row{Interaction: gate.Interaction{Kind: gate.KindGround, Option: "Take", ItemID: 2}})
	assert.False(t, d.Allow)

	d = f.gate.ConfirmClick(gate.Row{Interaction: gate.Interaction{Kind: gate.KindUse, Option: "Use", Target: "Bronze axe -> Tree", ItemID: 1}})
	assert.False(t, d.Allow)
	assert.Equal(t, gate.ReasonUse, d.Reason)

	d = f.gate.ConfirmClick(gate.Row{Interaction: gate.Interaction{Kind: gate.KindUse, Option: "Use", Target: "Tree"}})
	assert.True(t, d.Allow)

	d = f.gate.ConfirmClick(gate.Row{Interaction: gate.Interaction{Option: "Wield", ItemID: 1}})
	assert.False(t, d.Allow)
	d = f.gate.ConfirmClick(gate.Row{Interaction: gate.Interaction{Option: "Drop", ItemID: 1}})
	assert.True(t, d.Allow)

	f.gate.SurfaceOpened(int(gate.SurfaceBank))
	d = f.gate.ConfirmClick(gate.Row{Interaction: gate.Interaction{Option: "Deposit-All", ItemID: 1}})
	assert.True(t, d.Allow)
}

func TestDecorate(t *testing.T) {
	f := newFixture(t, stubAvailability{})
	in := gate.Row{Interaction: gate.Interaction{Option: "Wield", Target: "<col=ff9040>Bronze axe", ItemID: 1}}
	out, d := f.gate.Decorate(in)
	assert.False(t, d.Allow)
	assert.True(t, out.Suppressed)
	assert.Equal(t, gate.DimColor+"Wield", out.Option)
	assert.Equal(t, gate.DimColor+"Bronze axe", out.Target)
	assert.Equal(t, "<col=ff9040>Bronze axe", in.Target)

	allowed := gate.Row{Interaction: gate.Interaction{Option: "Examine", Target: "Bronze axe", ItemID: 1}}
	out, d = f.gate.Decorate(allowed)
	assert.True(t, d.Allow)
	assert.Equal(t, allowed, out)
}

func TestStripTags(t *testing.T) {
	assert.Equal(t, "Fire Strike -> Goblin", gate.StripTags("<col=00ff00>Fire Strike</col> -> <col=ffff00>Goblin"))
}

func TestProperty_SafeVerbsAnyCase(t *testing.T) {
	f := newFixture(t, stubAvailability{})
	rapid.Check(t, func(rt *rapid.T) {
		verb := rapid.SampledFrom([]string{"examine", "drop", "destroy", "release"}).Draw(rt, "verb")
		var b strings.Builder
		for _, r := range verb {
			if rapid.Bool().Draw(rt, "upper") {
				b.WriteString(strings.ToUpper(string(r)))
			} else {
				b.WriteRune(r)
			}
		}
		id := rapid.IntRange(-1, 400).Draw(rt, "id")
		if rapid.Bool().Draw(rt, "bank") {
			f.gate.SurfaceOpened(int(gate.SurfaceBank))
		} else {
			f.gate.Reset()
		}
		d := f.gate.Evaluate(gate.Interaction{Option: b.String(), ItemID: id})
		if !d.Allow {
			rt.Fatalf("safe verb %q refused for id %d", b.String(), id)
		}
	})
}
