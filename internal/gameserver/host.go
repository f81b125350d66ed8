package gameserver

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/cory-johannsen/choiceman/internal/config"
	"github.com/cory-johannsen/choiceman/internal/game/availability"
	"github.com/cory-johannsen/choiceman/internal/game/progression"
)

var (
	// ErrNoCycle is returned by HostState reads before the host pushed any state.
	ErrNoCycle = errors.New("gameserver: host has not pushed a cycle")
	// ErrNoPosition is returned by InExemptZone when the host sent no position.
	ErrNoPosition = errors.New("gameserver: player position unknown")
)

// Position is a tile on a plane.
type Position struct {
	X, Y, Plane int
}

// HostPush is the host's view of the player for one cycle.
type HostPush struct {
	Worn    []int
	Carried []int
	Pouch   [availability.PouchSlotCount]availability.PouchSlot
	// PouchTypes maps a pouch type index to the raw id of its rune.
	PouchTypes map[int]int
	Autocast   availability.Requirement
	Manual     availability.Requirement
	Position   *Position
	WorldTypes []progression.WorldType
}

// HostState holds the latest HostPush and implements availability.World
// over it. Exempt zone and modes come from configuration.
type HostState struct {
	mu     sync.RWMutex
	pushed bool
	push   HostPush
	zone   config.AreaConfig
	modes  []string
}

// NewHostState returns a HostState with no push yet.
func NewHostState(zone config.AreaConfig, exemptModes []string) *HostState {
	return &HostState{zone: zone, modes: append([]string(nil), exemptModes...)}
}

// Update replaces the current push. A push without world types keeps the
// ones already known for the session.
func (h *HostState) Update(p HostPush) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(p.WorldTypes) == 0 {
		p.WorldTypes = h.push.WorldTypes
	}
	p.Worn = append([]int(nil), p.Worn...)
	p.Carried = append([]int(nil), p.Carried...)
	types := make(map[int]int, len(p.PouchTypes))
	for k, v := range p.PouchTypes {
		types[k] = v
	}
	p.PouchTypes = types
	h.push = p
	h.pushed = true
}

// SetWorldTypes replaces only the world types, keeping the rest of the push.
func (h *HostState) SetWorldTypes(types []progression.WorldType) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.push.WorldTypes = append([]progression.WorldType(nil), types...)
}

// Clear forgets the current push.
func (h *HostState) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.push = HostPush{}
	h.pushed = false
}

func (h *HostState) read() (HostPush, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.pushed {
		return HostPush{}, ErrNoCycle
	}
	return h.push, nil
}

// Worn returns the worn item ids.
func (h *HostState) Worn() ([]int, error) {
	p, err := h.read()
	if err != nil {
		return nil, err
	}
	return append([]int(nil), p.Worn...), nil
}

// Carried returns the carried item ids.
func (h *HostState) Carried() ([]int, error) {
	p, err := h.read()
	if err != nil {
		return nil, err
	}
	return append([]int(nil), p.Carried...), nil
}

// Pouch returns the pouch slots.
func (h *HostState) Pouch() ([availability.PouchSlotCount]availability.PouchSlot, error) {
	p, err := h.read()
	if err != nil {
		return [availability.PouchSlotCount]availability.PouchSlot{}, err
	}
	return p.Pouch, nil
}

// PouchResource resolves a pouch type index to a raw item id.
func (h *HostState) PouchResource(typeIndex int) (int, error) {
	p, err := h.read()
	if err != nil {
		return 0, err
	}
	id, ok := p.PouchTypes[typeIndex]
	if !ok {
		return 0, fmt.Errorf("gameserver: unknown pouch type index %d", typeIndex)
	}
	return id, nil
}

// AutocastRequirement returns the autocast requirement display.
func (h *HostState) AutocastRequirement() (availability.Requirement, error) {
	p, err := h.read()
	if err != nil {
		return availability.Requirement{}, err
	}
	return p.Autocast, nil
}

// SpellRequirement returns the manual spell requirement display.
func (h *HostState) SpellRequirement() (availability.Requirement, error) {
	p, err := h.read()
	if err != nil {
		return availability.Requirement{}, err
	}
	return p.Manual, nil
}

// InExemptZone reports whether the player stands inside the exempt area.
func (h *HostState) InExemptZone() (bool, error) {
	p, err := h.read()
	if err != nil {
		return false, err
	}
	if p.Position == nil {
		return false, ErrNoPosition
	}
	return contains(h.zone, *p.Position), nil
}

// InExemptMode reports whether any current world type is an exempt mode.
// Mode names compare case-insensitively.
func (h *HostState) InExemptMode() (bool, error) {
	p, err := h.read()
	if err != nil {
		return false, err
	}
	for _, t := range p.WorldTypes {
		for _, m := range h.modes {
			if strings.EqualFold(string(t), m) {
				return true, nil
			}
		}
	}
	return false, nil
}

// WorldTypes returns the world types of the latest push.
func (h *HostState) WorldTypes() []progression.WorldType {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]progression.WorldType(nil), h.push.WorldTypes...)
}

func contains(a config.AreaConfig, p Position) bool {
	return p.Plane == a.Plane &&
		p.X >= a.X && p.X < a.X+a.Width &&
		p.Y >= a.Y && p.Y < a.Y+a.Height
}
