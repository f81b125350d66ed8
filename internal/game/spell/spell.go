// Package spell names the castable spells the engine recognizes and the
// consumable sacks that can stand in for a spell's runes.
package spell

import "strings"

// targetSeparator splits "Spell -> Target" menu text.
const targetSeparator = " -> "

// Book is a set of recognized spell names.
type Book struct {
	names map[string]bool
}

// NewBook indexes names. Blank names are ignored.
func NewBook(names []string) *Book {
	b := &Book{names: make(map[string]bool, len(names))}
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			b.names[n] = true
		}
	}
	return b
}

// DefaultBook returns the built-in spell list.
func DefaultBook() *Book { return NewBook(defaultSpells) }

// Match resolves menu text to a spell name. Text of the form
// "Spell -> Target" matches on the part before the arrow.
//
// Postcondition: ok is true iff the (trimmed) text names a known spell.
func (b *Book) Match(text string) (string, bool) {
	name := strings.TrimSpace(text)
	if i := strings.Index(name, targetSeparator); i >= 0 {
		name = strings.TrimSpace(name[:i])
	}
	if name == "" || !b.names[name] {
		return "", false
	}
	return name, true
}

// Len returns the number of known spells.
func (b *Book) Len() int { return len(b.names) }

// Sack is a consumable item class that grants a fixed group of spells.
type Sack struct {
	Name   string
	ItemID int
	// PresenceOnly sacks grant their spells whenever carried; all others
	// also require their own base to be usable.
	PresenceOnly bool
	Spells       []string
}

// Sacks maps spell names to the sack that grants them.
type Sacks struct {
	bySpell map[string]Sack
}

// NewSacks indexes sacks by every spell they grant. A spell granted by two
// sacks resolves to the later one.
func NewSacks(sacks []Sack) *Sacks {
	s := &Sacks{bySpell: make(map[string]Sack)}
	for _, sack := range sacks {
		for _, sp := range sack.Spells {
			s.bySpell[sp] = sack
		}
	}
	return s
}

// DefaultSacks returns the built-in sack table.
func DefaultSacks() *Sacks { return NewSacks(defaultSacks) }

// ForSpell returns the sack granting spell, if any.
func (s *Sacks) ForSpell(spell string) (Sack, bool) {
	sack, ok := s.bySpell[spell]
	return sack, ok
}

var defaultSacks = []Sack{
	{Name: "entangle", ItemID: 24613, Spells: []string{"Snare", "Entangle", "Bind"}},
	{Name: "surge", ItemID: 24617, PresenceOnly: true, Spells: []string{
		"Wind Surge", "Water Surge", "Earth Surge", "Fire Surge",
		"Wind Wave", "Water Wave", "Earth Wave", "Fire Wave",
	}},
	{Name: "teleblock", ItemID: 24615, Spells: []string{"Tele Block", "Teleport to Target"}},
	{Name: "vengeance", ItemID: 24621, Spells: []string{"Vengeance", "Vengeance Other"}},
	{Name: "ancient_ice", ItemID: 24607, Spells: []string{"Ice Rush", "Ice Burst", "Ice Blitz", "Ice Barrage"}},
}

var defaultSpells = []string{
	// standard combat
	"Wind Strike", "Water Strike", "Earth Strike", "Fire Strike",
	"Wind Bolt", "Water Bolt", "Earth Bolt", "Fire Bolt",
	"Wind Blast", "Water Blast", "Earth Blast", "Fire Blast",
	"Wind Wave", "Water Wave", "Earth Wave", "Fire Wave",
	"Wind Surge", "Water Surge", "Earth Surge", "Fire Surge",
	"Crumble Undead", "Magic Dart", "Iban Blast", "Saradomin Strike",
	"Claws of Guthix", "Flames of Zamorak",
	"Confuse", "Weaken", "Curse", "Bind", "Snare", "Entangle",
	"Vulnerability", "Enfeeble", "Stun", "Tele Block",
	// standard utility
	"Low Level Alchemy", "High Level Alchemy", "Superheat Item",
	"Bones to Bananas", "Bones to Peaches", "Telekinetic Grab",
	"Lvl-1 Enchant", "Lvl-2 Enchant", "Lvl-3 Enchant", "Lvl-4 Enchant",
	"Lvl-5 Enchant", "Lvl-6 Enchant", "Lvl-7 Enchant", "Charge",
	"Charge Water Orb", "Charge Earth Orb", "Charge Fire Orb", "Charge Air Orb",
	// standard teleports
	"Varrock Teleport", "Lumbridge Teleport", "Falador Teleport",
	"Teleport to House", "Camelot Teleport", "Ardougne Teleport",
	"Watchtower Teleport", "Trollheim Teleport", "Teleport to Target",
	// ancient
	"Smoke Rush", "Shadow Rush", "Blood Rush", "Ice Rush",
	"Smoke Burst", "Shadow Burst", "Blood Burst", "Ice Burst",
	"Smoke Blitz", "Shadow Blitz", "Blood Blitz", "Ice Blitz",
	"Smoke Barrage", "Shadow Barrage", "Blood Barrage", "Ice Barrage",
	// lunar
	"Vengeance", "Vengeance Other", "Humidify", "Plank Make", "Spin Flax",
	"Cure Me", "Heal Other", "NPC Contact",
}
