package gameserver

import (
	"fmt"
	"math"
	"strconv"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cory-johannsen/choiceman/internal/game/availability"
	"github.com/cory-johannsen/choiceman/internal/game/gate"
	"github.com/cory-johannsen/choiceman/internal/game/progression"
)

func invalid(format string, args ...any) error {
	return status.Errorf(codes.InvalidArgument, format, args...)
}

func field(s *structpb.Struct, key string) (*structpb.Value, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s.GetFields()[key]
	if !ok {
		return nil, false
	}
	if _, null := v.GetKind().(*structpb.Value_NullValue); null {
		return nil, false
	}
	return v, true
}

func toInt(v *structpb.Value) (int, error) {
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("expected number, got %T", v.GetKind())
	}
	if n.NumberValue != math.Trunc(n.NumberValue) {
		return 0, fmt.Errorf("expected integer, got %v", n.NumberValue)
	}
	return int(n.NumberValue), nil
}

// intField returns the integer at key; ok is false when the key is absent.
func intField(s *structpb.Struct, key string) (n int, ok bool, err error) {
	v, ok := field(s, key)
	if !ok {
		return 0, false, nil
	}
	n, err = toInt(v)
	if err != nil {
		return 0, true, invalid("%s: %v", key, err)
	}
	return n, true, nil
}

func stringField(s *structpb.Struct, key string) (string, error) {
	v, ok := field(s, key)
	if !ok {
		return "", nil
	}
	str, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", invalid("%s: expected string", key)
	}
	return str.StringValue, nil
}

func boolField(s *structpb.Struct, key string) (bool, error) {
	v, ok := field(s, key)
	if !ok {
		return false, nil
	}
	b, ok := v.GetKind().(*structpb.Value_BoolValue)
	if !ok {
		return false, invalid("%s: expected bool", key)
	}
	return b.BoolValue, nil
}

func listField(s *structpb.Struct, key string) ([]*structpb.Value, bool, error) {
	v, ok := field(s, key)
	if !ok {
		return nil, false, nil
	}
	l, ok := v.GetKind().(*structpb.Value_ListValue)
	if !ok {
		return nil, true, invalid("%s: expected list", key)
	}
	return l.ListValue.GetValues(), true, nil
}

// intList returns the integers at key; present is false when the key is absent.
func intList(s *structpb.Struct, key string) (ids []int, present bool, err error) {
	vals, present, err := listField(s, key)
	if err != nil || !present {
		return nil, present, err
	}
	ids = make([]int, 0, len(vals))
	for i, v := range vals {
		n, err := toInt(v)
		if err != nil {
			return nil, true, invalid("%s[%d]: %v", key, i, err)
		}
		ids = append(ids, n)
	}
	return ids, true, nil
}

func stringList(s *structpb.Struct, key string) ([]string, error) {
	vals, _, err := listField(s, key)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(vals))
	for i, v := range vals {
		str, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, invalid("%s[%d]: expected string", key, i)
		}
		out = append(out, str.StringValue)
	}
	return out, nil
}

func structField(s *structpb.Struct, key string) (*structpb.Struct, bool, error) {
	v, ok := field(s, key)
	if !ok {
		return nil, false, nil
	}
	st, ok := v.GetKind().(*structpb.Value_StructValue)
	if !ok {
		return nil, true, invalid("%s: expected object", key)
	}
	return st.StructValue, true, nil
}

func requirement(s *structpb.Struct, key string) (availability.Requirement, error) {
	ids, present, err := intList(s, key)
	if err != nil {
		return availability.Requirement{}, err
	}
	return availability.Requirement{Present: present, IDs: ids}, nil
}

func worldTypes(s *structpb.Struct) ([]progression.WorldType, error) {
	names, err := stringList(s, "world_types")
	if err != nil {
		return nil, err
	}
	out := make([]progression.WorldType, 0, len(names))
	for _, n := range names {
		out = append(out, progression.WorldType(n))
	}
	return out, nil
}

// decodePush reads a PushCycle request:
//
//	{"worn": [id], "carried": [id],
//	 "pouch": [{"type": n, "amount": n}],
//	 "pouch_types": {"<type>": id},
//	 "autocast": [id] | null, "manual": [id] | null,
//	 "position": {"x": n, "y": n, "plane": n},
//	 "world_types": ["..."]}
func decodePush(s *structpb.Struct) (HostPush, error) {
	var p HostPush
	var err error
	if p.Worn, _, err = intList(s, "worn"); err != nil {
		return p, err
	}
	if p.Carried, _, err = intList(s, "carried"); err != nil {
		return p, err
	}

	slots, _, err := listField(s, "pouch")
	if err != nil {
		return p, err
	}
	if len(slots) > availability.PouchSlotCount {
		return p, invalid("pouch: at most %d slots, got %d", availability.PouchSlotCount, len(slots))
	}
	for i, v := range slots {
		st, ok := v.GetKind().(*structpb.Value_StructValue)
		if !ok {
			return p, invalid("pouch[%d]: expected object", i)
		}
		typ, _, err := intField(st.StructValue, "type")
		if err != nil {
			return p, err
		}
		amount, _, err := intField(st.StructValue, "amount")
		if err != nil {
			return p, err
		}
		p.Pouch[i] = availability.PouchSlot{TypeIndex: typ, Amount: amount}
	}

	types, _, err := structField(s, "pouch_types")
	if err != nil {
		return p, err
	}
	p.PouchTypes = make(map[int]int)
	for k := range types.GetFields() {
		idx, convErr := strconv.Atoi(k)
		if convErr != nil {
			return p, invalid("pouch_types: key %q is not an integer", k)
		}
		id, _, err := intField(types, k)
		if err != nil {
			return p, err
		}
		p.PouchTypes[idx] = id
	}

	if p.Autocast, err = requirement(s, "autocast"); err != nil {
		return p, err
	}
	if p.Manual, err = requirement(s, "manual"); err != nil {
		return p, err
	}

	pos, present, err := structField(s, "position")
	if err != nil {
		return p, err
	}
	if present {
		var q Position
		if q.X, _, err = intField(pos, "x"); err != nil {
			return p, err
		}
		if q.Y, _, err = intField(pos, "y"); err != nil {
			return p, err
		}
		if q.Plane, _, err = intField(pos, "plane"); err != nil {
			return p, err
		}
		p.Position = &q
	}

	p.WorldTypes, err = worldTypes(s)
	return p, err
}

var kinds = map[string]gate.Kind{
	"":       gate.KindMenu,
	"menu":   gate.KindMenu,
	"ground": gate.KindGround,
	"use":    gate.KindUse,
}

// decodeRow reads {"kind", "option", "target", "item_id", "suppressed"}.
func decodeRow(s *structpb.Struct) (gate.Row, error) {
	var row gate.Row
	kind, err := stringField(s, "kind")
	if err != nil {
		return row, err
	}
	k, ok := kinds[kind]
	if !ok {
		return row, invalid("kind: unknown %q", kind)
	}
	row.Kind = k
	if row.Option, err = stringField(s, "option"); err != nil {
		return row, err
	}
	if row.Target, err = stringField(s, "target"); err != nil {
		return row, err
	}
	if row.ItemID, _, err = intField(s, "item_id"); err != nil {
		return row, err
	}
	row.Suppressed, err = boolField(s, "suppressed")
	return row, err
}

func anyStrings(in []string) []any {
	out := make([]any, 0, len(in))
	for _, s := range in {
		out = append(out, s)
	}
	return out
}

func anyInts(in []int) []any {
	out := make([]any, 0, len(in))
	for _, n := range in {
		out = append(out, n)
	}
	return out
}

func anyBools(in []bool) []any {
	out := make([]any, 0, len(in))
	for _, b := range in {
		out = append(out, b)
	}
	return out
}

func encode(m map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding response: %v", err)
	}
	return s, nil
}
