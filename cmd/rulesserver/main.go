// Package main provides the rules server binary that exposes the unlock
// rule engine to a game host over gRPC.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/cory-johannsen/choiceman/internal/config"
	"github.com/cory-johannsen/choiceman/internal/game/action"
	"github.com/cory-johannsen/choiceman/internal/game/canon"
	"github.com/cory-johannsen/choiceman/internal/game/catalog"
	"github.com/cory-johannsen/choiceman/internal/game/progression"
	"github.com/cory-johannsen/choiceman/internal/game/provider"
	"github.com/cory-johannsen/choiceman/internal/gameserver"
	"github.com/cory-johannsen/choiceman/internal/observability"
	"github.com/cory-johannsen/choiceman/internal/scripting"
	"github.com/cory-johannsen/choiceman/internal/server"
	"github.com/cory-johannsen/choiceman/internal/storage/backend"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	offerScripts := flag.String("offer-scripts", "", "directory of Lua offer filter scripts; overrides rules.offer_script_dir")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *offerScripts != "" {
		cfg.Rules.OfferScriptDir = *offerScripts
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting rules server",
		zap.String("grpc_addr", cfg.Server.Addr()),
		zap.String("storage", cfg.Storage.Backend),
	)

	// Catalog: a missing default catalog leaves the index empty, which only
	// disables gating.
	idx := catalog.NewIndex(logger)
	_ = idx.LoadDefault(cfg.Rules.CatalogPath)
	if cfg.Rules.SupplementaryCatalogPath != "" {
		_ = idx.LoadSupplementaryFile(cfg.Rules.SupplementaryCatalogPath)
	}

	var canonicalizer canon.Canonicalizer = canon.Identity
	if cfg.Rules.VariantsPath != "" {
		variants, err := canon.LoadVariantTable(cfg.Rules.VariantsPath)
		if err != nil {
			logger.Fatal("loading variant table", zap.String("path", cfg.Rules.VariantsPath), zap.Error(err))
		}
		canonicalizer = variants
		logger.Info("variant table loaded", zap.Int("variants", variants.Len()))
	}

	providers := provider.Default()
	if cfg.Rules.ProvidersPath != "" {
		decls, err := provider.LoadDeclarations(cfg.Rules.ProvidersPath)
		if err != nil {
			logger.Fatal("loading provider table", zap.Error(err))
		}
		if providers, err = provider.Build(decls); err != nil {
			logger.Fatal("building provider registry", zap.Error(err))
		}
	}
	tools := action.DefaultTools()
	if cfg.Rules.ToolsPath != "" {
		if tools, err = action.LoadTools(cfg.Rules.ToolsPath); err != nil {
			logger.Fatal("loading tool table", zap.Error(err))
		}
	}
	logger.Info("rule tables ready",
		zap.Int("bases", idx.Len()),
		zap.Int("providers", providers.Len()),
		zap.Int("tools", tools.Len()),
	)

	store, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("opening storage", zap.Error(err))
	}
	defer store.Close()
	persister, err := store.Persister()
	if err != nil {
		logger.Fatal("creating persister", zap.Error(err))
	}

	engineCfg := gameserver.EngineConfig{
		Index:       idx,
		Persister:   persister,
		Canon:       canonicalizer,
		Providers:   providers,
		Tools:       tools,
		ExemptZone:  cfg.Rules.ExemptZone,
		ExemptModes: cfg.Rules.ExemptModes,
	}
	var scriptMgr *scripting.Manager
	if cfg.Rules.OfferScriptDir != "" {
		scriptMgr = scripting.NewManager(logger)
		scriptMgr.IDsOf = idx.IDsOf
		if err := scriptMgr.LoadScope(progression.OfferScope, cfg.Rules.OfferScriptDir, cfg.Rules.ScriptInstructionLimit); err != nil {
			logger.Fatal("loading offer scripts", zap.Error(err))
		}
		defer scriptMgr.Close()
		engineCfg.Scripts = scriptMgr
	}

	engine := gameserver.NewEngine(engineCfg, logger)
	if scriptMgr != nil {
		scriptMgr.IsUnlocked = engine.Store.IsUnlocked
		scriptMgr.IsObtained = engine.Store.IsObtained
	}
	if err := engine.Store.Load(ctx); err != nil {
		logger.Warn("starting with empty unlock state", zap.Error(err))
	}

	grpcServer := grpc.NewServer(gameserver.ServerOptions(logger)...)
	gameserver.RegisterRulesService(grpcServer, gameserver.NewRulesServer(engine, logger))

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("grpc", server.NewGRPCService(cfg.Server.Addr(), grpcServer, logger))
	if cfg.Storage.AutosaveInterval > 0 {
		ticker := gameserver.NewTicker(cfg.Storage.AutosaveInterval, logger)
		ticker.Register("autosave", gameserver.AutosaveJob(engine.Store, cfg.Storage.Timeout, logger))
		lifecycle.Add("ticker", server.NewRunnerService(ticker.Run))
	}

	logger.Info("rules server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("grpc_addr", cfg.Server.Addr()),
	)

	runErr := lifecycle.Run(ctx)
	if err := engine.Store.Save(ctx); err != nil {
		logger.Error("final save failed", zap.Error(err))
	}
	if runErr != nil {
		logger.Fatal("rules server stopped", zap.Error(runErr))
	}
}
