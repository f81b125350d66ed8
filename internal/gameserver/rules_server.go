package gameserver

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/cory-johannsen/choiceman/internal/game/gate"
	"github.com/cory-johannsen/choiceman/internal/game/progression"
	"github.com/cory-johannsen/choiceman/internal/game/unlock"
	"github.com/cory-johannsen/choiceman/internal/observability"
)

// reasonInactive is reported for interactions on worlds where the rules are off.
const reasonInactive = "inactive"

// RulesServer implements RulesService over one Engine. Calls are processed
// one at a time in arrival order.
type RulesServer struct {
	mu     sync.Mutex
	engine *Engine
	active bool
	logger *zap.Logger
}

// NewRulesServer returns a server over engine with the rules active.
//
// Precondition: engine must be non-nil.
func NewRulesServer(engine *Engine, logger *zap.Logger) *RulesServer {
	return &RulesServer{engine: engine, active: true, logger: observability.Component(logger, "rules_server")}
}

// Active reports whether the rules apply on the current world.
func (s *RulesServer) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// StartSession begins a login: {"world_types": ["..."]}.
// It reloads unlock state, resets per-session state and decides whether the
// rules apply on this world.
//
// Postcondition: the next ObserveTotalLevel only sets the baseline.
func (s *RulesServer) StartSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	types, err := worldTypes(req)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.engine
	if err := e.Store.Load(ctx); err != nil {
		s.logger.Warn("session started without persisted state", zap.Error(err))
	}
	e.Gate.Reset()
	e.Offers.Reset()
	e.Levels.ResetBaseline()
	e.Host.Clear()
	e.Host.SetWorldTypes(types)
	s.active = progression.IsNormalWorld(types)

	s.logger.Info("session started",
		zap.Bool("active", s.active),
		zap.Int("unlocked", len(e.Store.UnlockedList())),
		zap.Int("obtained", len(e.Store.ObtainedList())),
	)
	return encode(map[string]any{
		"active":   s.active,
		"unlocked": len(e.Store.UnlockedList()),
		"obtained": len(e.Store.ObtainedList()),
	})
}

// EndSession ends a login. Queued choices and the baseline are dropped and
// the unlock state is saved.
func (s *RulesServer) EndSession(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.engine
	saved := true
	if err := e.Store.Save(ctx); err != nil {
		saved = false
		s.logger.Warn("saving at session end failed", zap.Error(err))
	}
	e.Levels.Clear()
	e.Offers.Reset()
	e.Gate.Reset()
	e.Host.Clear()
	s.logger.Info("session ended", zap.Bool("saved", saved))
	return encode(map[string]any{"saved": saved})
}

// PushCycle stores the host's per-cycle view (see decodePush) and recomputes
// availability. Responds {"actions": [...], "resources": [...]}.
func (s *RulesServer) PushCycle(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	push, err := decodePush(req)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.engine
	e.Host.Update(push)
	snap := e.Evaluator.Cycle(ctx)

	actions := make([]string, 0)
	for _, a := range snap.Actions() {
		actions = append(actions, string(a))
	}
	return encode(map[string]any{
		"actions":   anyStrings(actions),
		"resources": anyInts(snap.Resources()),
	})
}

// CheckInteraction decides a menu row as it is offered:
// {"kind": "menu"|"ground"|"use", "option", "target", "item_id"}.
// Responds with the decision and the row as it should be displayed.
func (s *RulesServer) CheckInteraction(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	row, err := decodeRow(req)
	if err != nil {
		return nil, err
	}
	row.Suppressed = false
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return rowResponse(row, true, reasonInactive)
	}
	out, d := s.engine.Gate.Decorate(row)
	return rowResponse(out, d.Allow, string(d.Reason))
}

// ConfirmClick rechecks a row when clicked; the request carries the
// "suppressed" flag returned by CheckInteraction.
func (s *RulesServer) ConfirmClick(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	row, err := decodeRow(req)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return encode(map[string]any{"allow": true, "reason": reasonInactive})
	}
	d := s.engine.Gate.ConfirmClick(row)
	if !d.Allow {
		s.logger.Debug("click refused",
			zap.String("option", gate.StripTags(row.Option)),
			zap.Int("id", row.ItemID),
			zap.String("reason", string(d.Reason)),
		)
	}
	return encode(map[string]any{"allow": d.Allow, "reason": string(d.Reason)})
}

// SurfaceEvent records a surface opening or closing: {"surface": id, "open": bool}.
func (s *RulesServer) SurfaceEvent(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, ok, err := intField(req, "surface")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, invalid("surface is required")
	}
	open, err := boolField(req, "open")
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.engine.Gate
	if open {
		g.SurfaceOpened(id)
	} else {
		g.SurfaceClosed(id)
	}
	current, isOpen := g.OpenSurface()
	return encode(map[string]any{"surface": int(current), "open": isOpen})
}

// IsSpellEnabled answers {"name": spell}.
func (s *RulesServer) IsSpellEnabled(_ context.Context, req *structpb.Struct) (*wrapperspb.BoolValue, error) {
	name, err := stringField(req, "name")
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return wrapperspb.Bool(true), nil
	}
	return wrapperspb.Bool(s.engine.Evaluator.IsSpellEnabled(name)), nil
}

// IsSkillActionEnabled answers {"option": verb}.
func (s *RulesServer) IsSkillActionEnabled(_ context.Context, req *structpb.Struct) (*wrapperspb.BoolValue, error) {
	option, err := stringField(req, "option")
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return wrapperspb.Bool(true), nil
	}
	return wrapperspb.Bool(s.engine.Evaluator.IsSkillActionEnabled(option)), nil
}

// Unlock unlocks {"base": name}. Responds {"changed": bool}.
// An untracked base is NotFound.
func (s *RulesServer) Unlock(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	base, err := stringField(req, "base")
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	changed, err := s.engine.Store.Unlock(ctx, base)
	if errors.Is(err, unlock.ErrNotTracked) {
		return nil, status.Errorf(codes.NotFound, "base %q is not tracked", base)
	}
	if err != nil {
		return nil, status.Errorf(codes.Internal, "unlocking %q: %v", base, err)
	}
	return encode(map[string]any{"changed": changed})
}

// BaseState describes {"base": name} or {"item_id": id}.
func (s *RulesServer) BaseState(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	base, err := stringField(req, "base")
	if err != nil {
		return nil, err
	}
	raw, hasID, err := intField(req, "item_id")
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.engine
	if base == "" && hasID {
		base, _ = e.BaseOfRaw(raw)
	}
	tracked := base != "" && e.Index.IsTracked(base)
	return encode(map[string]any{
		"base":     base,
		"tracked":  tracked,
		"unlocked": e.Store.IsUnlocked(base),
		"obtained": e.Store.IsObtained(base),
		"usable":   e.Store.IsUsable(base),
		"ids":      anyInts(e.Index.IDsOf(base)),
	})
}

// StillLocked lists tracked bases not yet unlocked, in catalog order.
func (s *RulesServer) StillLocked(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return encode(map[string]any{"bases": anyStrings(s.engine.Store.StillLocked())})
}

// ObserveInventory marks bases seen in {"carried": [id]} as obtained.
// Responds {"first_obtained": [...]}.
func (s *RulesServer) ObserveInventory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	carried, _, err := intList(req, "carried")
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	first := []string{}
	if s.active {
		first = append(first, s.engine.Obtained.Observe(ctx, carried)...)
	}
	return encode(map[string]any{"first_obtained": anyStrings(first)})
}

// FilterExchange answers {"item_ids": [id]} with {"visible": [bool]} in order.
func (s *RulesServer) FilterExchange(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ids, _, err := intList(req, "item_ids")
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	visible := make([]bool, len(ids))
	for i, id := range ids {
		visible[i] = !s.active || s.engine.Exchange.Visible(id)
	}
	return encode(map[string]any{"visible": anyBools(visible)})
}

// ObserveTotalLevel records {"total": n}.
// Responds {"baseline", "gained", "milestones", "pending", "hint"}.
func (s *RulesServer) ObserveTotalLevel(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	total, ok, err := intField(req, "total")
	if err != nil {
		return nil, err
	}
	if !ok || total < 0 {
		return nil, invalid("total must be a non-negative integer")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return encode(map[string]any{"baseline": false, "gained": 0, "milestones": 0, "pending": 0, "hint": ""})
	}
	obs := s.engine.Levels.Observe(total)
	return encode(map[string]any{
		"baseline":   obs.Baseline,
		"gained":     obs.Gained,
		"milestones": obs.Milestones,
		"pending":    obs.Pending,
		"hint":       obs.Hint,
	})
}

// NextOffer returns the outstanding offer, starting one if choices are
// pending. Responds {"offer_id", "bases", "milestone", "pending"}; offer_id
// is empty when there is nothing to choose.
func (s *RulesServer) NextOffer(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.engine
	if !s.active {
		return encode(map[string]any{"offer_id": "", "bases": []any{}, "milestone": false, "pending": 0})
	}
	offer, ok := e.Offers.Next()
	if !ok {
		return encode(map[string]any{"offer_id": "", "bases": []any{}, "milestone": false, "pending": e.Levels.Pending()})
	}
	return encode(map[string]any{
		"offer_id":  offer.ID.String(),
		"bases":     anyStrings(offer.Bases),
		"milestone": offer.Milestone,
		"pending":   e.Levels.Pending(),
	})
}

// Pick applies {"offer_id", "base"}. Responds {"remaining": n}.
func (s *RulesServer) Pick(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	rawID, err := stringField(req, "offer_id")
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, invalid("offer_id: %v", err)
	}
	base, err := stringField(req, "base")
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	remaining, err := s.engine.Picker.Pick(ctx, id, base)
	switch {
	case errors.Is(err, progression.ErrNoActiveOffer):
		return nil, status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, progression.ErrUnknownOffer), errors.Is(err, progression.ErrNotOffered):
		return nil, status.Error(codes.InvalidArgument, err.Error())
	case err != nil:
		return nil, status.Error(codes.Internal, err.Error())
	}
	return encode(map[string]any{"remaining": remaining})
}

func rowResponse(row gate.Row, allow bool, reason string) (*structpb.Struct, error) {
	return encode(map[string]any{
		"allow":      allow,
		"reason":     reason,
		"option":     row.Option,
		"target":     row.Target,
		"suppressed": row.Suppressed,
	})
}
