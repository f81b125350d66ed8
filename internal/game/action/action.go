// Package action defines the tool/skill menu actions the engine gates and
// the tool items that enable them.
package action

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Action identifies a tool/skill menu action.
type Action string

// Known actions, named by the exact menu option text the client displays.
const (
	ChopDown  Action = "Chop down"
	Mine      Action = "Mine"
	Net       Action = "Net"
	Cage      Action = "Cage"
	Bait      Action = "Bait"
	Lure      Action = "Lure"
	Rake      Action = "Rake"
	Prune     Action = "Prune"
	Cure      Action = "Cure"
	Grind     Action = "Grind"
	Smith     Action = "Smith"
	Smelt     Action = "Smelt"
	Shear     Action = "Shear"
	Clean     Action = "Clean"
	Fire      Action = "Fire"
	CraftRune Action = "Craft-rune"
)

var known = map[string]Action{}

func init() {
	for _, a := range All() {
		known[string(a)] = a
	}
}

// All returns every known action in declaration order.
func All() []Action {
	return []Action{
		ChopDown, Mine, Net, Cage, Bait, Lure, Rake, Prune,
		Cure, Grind, Smith, Smelt, Shear, Clean, Fire, CraftRune,
	}
}

// Parse returns the action whose menu text is exactly option.
//
// Postcondition: ok is false for unknown or differently-cased text.
func Parse(option string) (Action, bool) {
	a, ok := known[option]
	return a, ok
}

// Tool is an item that enables an action while worn or carried.
type Tool struct {
	ID     int    `yaml:"id"`
	Action Action `yaml:"action"`
	// RequiresUnlock is false for tools that enable their action even while
	// their own base is locked.
	RequiresUnlock bool `yaml:"requires_unlock"`
}

// Tools maps a canonical item id to the tool it represents.
type Tools struct {
	byID map[int]Tool
}

// NewTools validates and indexes tools.
//
// Postcondition: returns an error for an unknown action, a non-positive id,
// or an id listed twice.
func NewTools(tools []Tool) (*Tools, error) {
	t := &Tools{byID: make(map[int]Tool, len(tools))}
	for _, tool := range tools {
		if tool.ID <= 0 {
			return nil, fmt.Errorf("action: tool id must be > 0, got %d", tool.ID)
		}
		if _, ok := known[string(tool.Action)]; !ok {
			return nil, fmt.Errorf("action: tool %d names unknown action %q", tool.ID, tool.Action)
		}
		if _, dup := t.byID[tool.ID]; dup {
			return nil, fmt.Errorf("action: tool id %d listed twice", tool.ID)
		}
		t.byID[tool.ID] = tool
	}
	return t, nil
}

// DefaultTools builds the built-in tool table.
func DefaultTools() *Tools {
	t, err := NewTools(defaultTools)
	if err != nil {
		panic(fmt.Sprintf("building default tool table: %v", err))
	}
	return t
}

// LoadTools reads a YAML or JSON tool list from path.
func LoadTools(path string) (*Tools, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("action: reading %q: %w", path, err)
	}
	var tools []Tool
	if err := yaml.Unmarshal(data, &tools); err != nil {
		return nil, fmt.Errorf("action: parsing %q: %w", path, err)
	}
	return NewTools(tools)
}

// Lookup returns the tool registered for a canonical item id.
func (t *Tools) Lookup(id int) (Tool, bool) {
	tool, ok := t.byID[id]
	return tool, ok
}

// Len returns the number of registered tools.
func (t *Tools) Len() int { return len(t.byID) }

var defaultTools = []Tool{
	// axes
	{ID: 1351, Action: ChopDown, RequiresUnlock: true},
	{ID: 1349, Action: ChopDown, RequiresUnlock: true},
	{ID: 1353, Action: ChopDown, RequiresUnlock: true},
	{ID: 1361, Action: ChopDown, RequiresUnlock: true},
	{ID: 1355, Action: ChopDown, RequiresUnlock: true},
	{ID: 1357, Action: ChopDown, RequiresUnlock: true},
	{ID: 1359, Action: ChopDown, RequiresUnlock: true},
	{ID: 6739, Action: ChopDown, RequiresUnlock: true},
	// pickaxes
	{ID: 1265, Action: Mine, RequiresUnlock: true},
	{ID: 1267, Action: Mine, RequiresUnlock: true},
	{ID: 1269, Action: Mine, RequiresUnlock: true},
	{ID: 1273, Action: Mine, RequiresUnlock: true},
	{ID: 1271, Action: Mine, RequiresUnlock: true},
	{ID: 1275, Action: Mine, RequiresUnlock: true},
	{ID: 11920, Action: Mine, RequiresUnlock: true},
	// fishing
	{ID: 303, Action: Net, RequiresUnlock: true},
	{ID: 305, Action: Net, RequiresUnlock: true},
	{ID: 301, Action: Cage, RequiresUnlock: true},
	{ID: 307, Action: Bait, RequiresUnlock: true},
	{ID: 309, Action: Lure, RequiresUnlock: true},
	// farming
	{ID: 5341, Action: Rake, RequiresUnlock: true},
	{ID: 5329, Action: Prune, RequiresUnlock: true},
	{ID: 6036, Action: Cure, RequiresUnlock: true},
	// processing
	{ID: 233, Action: Grind, RequiresUnlock: true},
	{ID: 2347, Action: Smith, RequiresUnlock: true},
	{ID: 776, Action: Smelt, RequiresUnlock: true},
	{ID: 1735, Action: Shear, RequiresUnlock: true},
	{ID: 590, Action: Fire, RequiresUnlock: true},
	// essence is gated as an item, not as a tool
	{ID: 1436, Action: CraftRune, RequiresUnlock: false},
	{ID: 7936, Action: CraftRune, RequiresUnlock: false},
}
