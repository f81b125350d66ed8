package gameserver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/choiceman/internal/config"
	"github.com/cory-johannsen/choiceman/internal/game/availability"
	"github.com/cory-johannsen/choiceman/internal/game/progression"
	"github.com/cory-johannsen/choiceman/internal/gameserver"
)

var _ availability.World = (*gameserver.HostState)(nil)

func TestHostState_ReadsFailBeforePush(t *testing.T) {
	h := gameserver.NewHostState(exemptZone, nil)
	_, err := h.Worn()
	assert.ErrorIs(t, err, gameserver.ErrNoCycle)
	_, err = h.Pouch()
	assert.ErrorIs(t, err, gameserver.ErrNoCycle)
	_, err = h.InExemptZone()
	assert.ErrorIs(t, err, gameserver.ErrNoCycle)
}

func TestHostState_UpdateCopiesInput(t *testing.T) {
	h := gameserver.NewHostState(exemptZone, nil)
	worn := []int{1383}
	h.Update(gameserver.HostPush{Worn: worn, PouchTypes: map[int]int{1: 556}})
	worn[0] = 1
	got, err := h.Worn()
	require.NoError(t, err)
	assert.Equal(t, []int{1383}, got)

	id, err := h.PouchResource(1)
	require.NoError(t, err)
	assert.Equal(t, 556, id)
	_, err = h.PouchResource(9)
	assert.Error(t, err)

	h.Clear()
	_, err = h.Carried()
	assert.ErrorIs(t, err, gameserver.ErrNoCycle)
}

func TestHostState_ExemptZoneNeedsPosition(t *testing.T) {
	h := gameserver.NewHostState(exemptZone, nil)
	h.Update(gameserver.HostPush{})
	_, err := h.InExemptZone()
	assert.ErrorIs(t, err, gameserver.ErrNoPosition)

	for _, tc := range []struct {
		pos  gameserver.Position
		want bool
	}{
		{gameserver.Position{X: 3367, Y: 3890}, true},
		{gameserver.Position{X: 3379, Y: 3898}, true},
		{gameserver.Position{X: 3380, Y: 3898}, false},
		{gameserver.Position{X: 3367, Y: 3899}, false},
		{gameserver.Position{X: 3370, Y: 3895, Plane: 1}, false},
	} {
		pos := tc.pos
		h.Update(gameserver.HostPush{Position: &pos})
		in, err := h.InExemptZone()
		require.NoError(t, err)
		assert.Equal(t, tc.want, in, "%+v", tc.pos)
	}
}

func TestHostState_ExemptModeIgnoresCase(t *testing.T) {
	h := gameserver.NewHostState(exemptZone, []string{"last_man_standing"})
	h.SetWorldTypes([]progression.WorldType{progression.WorldLastManStanding})
	h.Update(gameserver.HostPush{})
	in, err := h.InExemptMode()
	require.NoError(t, err)
	assert.True(t, in, "world types survive a push that carries none")

	h.Update(gameserver.HostPush{WorldTypes: []progression.WorldType{progression.WorldMembers}})
	in, err = h.InExemptMode()
	require.NoError(t, err)
	assert.False(t, in)
	assert.Equal(t, []progression.WorldType{progression.WorldMembers}, h.WorldTypes())
}

func TestProperty_ZoneContainment(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		zone := config.AreaConfig{
			X:      rapid.IntRange(0, 4000).Draw(rt, "x"),
			Y:      rapid.IntRange(0, 4000).Draw(rt, "y"),
			Width:  rapid.IntRange(0, 50).Draw(rt, "w"),
			Height: rapid.IntRange(0, 50).Draw(rt, "h"),
		}
		pos := gameserver.Position{
			X: rapid.IntRange(0, 4100).Draw(rt, "px"),
			Y: rapid.IntRange(0, 4100).Draw(rt, "py"),
		}
		h := gameserver.NewHostState(zone, nil)
		h.Update(gameserver.HostPush{Position: &pos})
		in, err := h.InExemptZone()
		if err != nil {
			rt.Fatal(err)
		}
		want := pos.X >= zone.X && pos.X-zone.X < zone.Width && pos.Y >= zone.Y && pos.Y-zone.Y < zone.Height
		if in != want {
			rt.Fatalf("zone %+v pos %+v: got %v want %v", zone, pos, in, want)
		}
	})
}
