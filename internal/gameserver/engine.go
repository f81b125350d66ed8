// Package gameserver exposes the unlock rule engine to a game host over gRPC.
package gameserver

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/choiceman/internal/config"
	"github.com/cory-johannsen/choiceman/internal/game/action"
	"github.com/cory-johannsen/choiceman/internal/game/availability"
	"github.com/cory-johannsen/choiceman/internal/game/canon"
	"github.com/cory-johannsen/choiceman/internal/game/catalog"
	"github.com/cory-johannsen/choiceman/internal/game/gate"
	"github.com/cory-johannsen/choiceman/internal/game/progression"
	"github.com/cory-johannsen/choiceman/internal/game/provider"
	"github.com/cory-johannsen/choiceman/internal/game/spell"
	"github.com/cory-johannsen/choiceman/internal/game/unlock"
)

// EngineConfig lists the pieces an Engine is assembled from. Nil optional
// fields fall back to the built-in tables.
type EngineConfig struct {
	Index     *catalog.Index
	Persister unlock.Persister

	Canon     canon.Canonicalizer
	Providers *provider.Registry
	Tools     *action.Tools
	Spells    *spell.Book
	Sacks     *spell.Sacks
	Source    progression.Source
	// Scripts supplies the offer filter hook; nil disables filtering.
	Scripts progression.HookCaller

	ExemptZone  config.AreaConfig
	ExemptModes []string
}

// Engine is one player's fully wired rule engine.
type Engine struct {
	Index     *catalog.Index
	Canon     canon.Canonicalizer
	Store     *unlock.Store
	Host      *HostState
	Evaluator *availability.Evaluator
	Gate      *gate.Gate
	Levels    *progression.LevelTracker
	Offers    *progression.OfferGenerator
	Picker    *progression.Picker
	Obtained  *progression.ObtainedTracker
	Exchange  *progression.ExchangeFilter
}

// NewEngine wires every component of the engine.
//
// Precondition: cfg.Index and cfg.Persister must be non-nil.
// Postcondition: the store is empty until Store.Load is called.
func NewEngine(cfg EngineConfig, logger *zap.Logger) *Engine {
	if cfg.Canon == nil {
		cfg.Canon = canon.Identity
	}
	if cfg.Providers == nil {
		cfg.Providers = provider.Default()
	}
	if cfg.Tools == nil {
		cfg.Tools = action.DefaultTools()
	}
	if cfg.Spells == nil {
		cfg.Spells = spell.DefaultBook()
	}
	if cfg.Sacks == nil {
		cfg.Sacks = spell.DefaultSacks()
	}
	if cfg.Source == nil {
		cfg.Source = progression.NewCryptoSource()
	}

	store := unlock.NewStore(cfg.Index, cfg.Persister, logger)
	host := NewHostState(cfg.ExemptZone, cfg.ExemptModes)
	eval := availability.NewEvaluator(availability.Deps{
		World:     host,
		Canon:     cfg.Canon,
		Bases:     cfg.Index,
		Usability: store,
		Providers: cfg.Providers,
		Tools:     cfg.Tools,
		Sacks:     cfg.Sacks,
	}, logger)
	g := gate.New(gate.Deps{
		Availability: eval,
		Spells:       cfg.Spells,
		Canon:        cfg.Canon,
		Bases:        cfg.Index,
		Usability:    store,
	}, logger)
	levels := progression.NewLevelTracker(logger)
	offers := progression.NewOfferGenerator(levels, store, cfg.Source, cfg.Scripts, logger)

	return &Engine{
		Index:     cfg.Index,
		Canon:     cfg.Canon,
		Store:     store,
		Host:      host,
		Evaluator: eval,
		Gate:      g,
		Levels:    levels,
		Offers:    offers,
		Picker:    progression.NewPicker(offers, levels, store, logger),
		Obtained:  progression.NewObtainedTracker(cfg.Canon, cfg.Index, store, logger),
		Exchange:  progression.NewExchangeFilter(cfg.Canon, cfg.Index, store),
	}
}

// BaseOfRaw canonicalizes raw and resolves its base.
func (e *Engine) BaseOfRaw(raw int) (string, bool) {
	id, err := e.Canon.Canonicalize(raw)
	if err != nil {
		return "", false
	}
	return e.Index.BaseOf(id)
}
