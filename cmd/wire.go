package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	orchestratorx "github.com/tanpawarit/Chative-Desktop-Assistant/agent/agents/orchestrator"
	"github.com/tanpawarit/Chative-Desktop-Assistant/agent/catalog"
	contractx "github.com/tanpawarit/Chative-Desktop-Assistant/agent/contract"
	"github.com/tanpawarit/Chative-Desktop-Assistant/agent/desktop"
	llmx "github.com/tanpawarit/Chative-Desktop-Assistant/agent/llm"
	"github.com/tanpawarit/Chative-Desktop-Assistant/agent/parser"
	promptx "github.com/tanpawarit/Chative-Desktop-Assistant/agent/prompt"
	statex "github.com/tanpawarit/Chative-Desktop-Assistant/agent/state"
	"github.com/tanpawarit/Chative-Desktop-Assistant/agent/tool"
	configx "github.com/tanpawarit/Chative-Desktop-Assistant/pkg/config"
	metricsx "github.com/tanpawarit/Chative-Desktop-Assistant/pkg/metrics"
	openaicompatx "github.com/tanpawarit/Chative-Desktop-Assistant/pkg/openaicompat"
)

type app struct {
	cfg          AppConfig
	catalog      *catalog.Catalog
	orchestrator *orchestratorx.Orchestrator
	metrics      *metricsx.Metrics
	closers      []io.Closer
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	return errors.Join(errs...)
}

// newCompleter builds the inference client for the mode. Tests swap it out.
var newCompleter = func(ctx context.Context, mode parser.Mode, cfg llmx.Config) (contractx.Completer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	endpoint := cfg.Endpoint()
	if mode == parser.ModeMarker {
		chatModel, err := endpoint.NewChatModel(ctx)
		if err != nil {
			return nil, err
		}
		return llmx.NewChatCompleter(ctx, chatModel)
	}
	return llmx.NewGrammarCompleter(openaicompatx.NewClient(endpoint), cfg)
}

func loadCatalog(ctx context.Context, cfg AppConfig) (*catalog.Catalog, error) {
	source := catalog.NewDesktopSource(cfg.desktopDirs(), cfg.DesktopPattern)
	apps, err := source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load application catalog: %w", err)
	}
	log.Info().Int("apps", apps.Len()).Msg("application catalog loaded")
	return apps, nil
}

func wireApp(ctx context.Context) (*app, error) {
	cfg, err := configx.New[AppConfig]("ASSISTANT")
	if err != nil {
		return nil, fmt.Errorf("read assistant config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mode, _ := parser.ParseMode(cfg.Mode)

	llmCfg, err := configx.New[llmx.Config]("LLM")
	if err != nil {
		return nil, fmt.Errorf("read llm config: %w", err)
	}
	storeCfg, err := configx.New[statex.StoreConfig]("STORE")
	if err != nil {
		return nil, fmt.Errorf("read store config: %w", err)
	}

	a := &app{cfg: *cfg, metrics: metricsx.New()}

	apps, err := loadCatalog(ctx, *cfg)
	if err != nil {
		return nil, err
	}
	a.catalog = apps

	resolver, err := catalog.NewResolver(apps)
	if err != nil {
		return nil, err
	}

	var (
		cpu desktop.CPUSampler
		mem desktop.MemoryReader
	)
	if stats, err := desktop.NewProcStats(cfg.ProcRoot); err != nil {
		log.Warn().Err(err).Msg("proc stats unavailable")
	} else {
		cpu, mem = stats, stats
	}

	dispatcher, err := tool.NewDispatcher(tool.Deps{
		Resolver:   resolver,
		Launcher:   desktop.NewProcessLauncher(),
		Windows:    desktop.NewWmctrl(),
		Files:      desktop.NewXdgOpen(),
		SystemInfo: tool.NewSystemInfoProbe(cpu, mem, desktop.NewDf(), cfg.CPUSampleInterval),
		Metrics:    a.metrics,
	})
	if err != nil {
		return nil, err
	}

	format, grammar := promptx.FormatJSON, promptx.Grammar()
	if mode == parser.ModeMarker {
		format, grammar = promptx.FormatMarker, ""
	}
	builder, err := promptx.NewBuilder(
		promptx.WithTools(tool.Describe(tool.Definitions())),
		promptx.WithFormat(format),
		promptx.WithApps(apps.Names(), cfg.AppsInPrompt),
	)
	if err != nil {
		return nil, err
	}

	completer, err := newCompleter(ctx, mode, *llmCfg)
	if err != nil {
		return nil, fmt.Errorf("wire completer: %w", err)
	}

	session, err := a.wireSession(ctx, *cfg, *storeCfg)
	if err != nil {
		return nil, err
	}

	o, err := orchestratorx.New(orchestratorx.Deps{
		Session:    session,
		Prompt:     builder,
		Completer:  completer,
		Parser:     parser.New(mode),
		Dispatcher: dispatcher,
		Metrics:    a.metrics,
	}, orchestratorx.Config{
		Grammar:      grammar,
		ResultPrefix: cfg.ResultPrefix,
	})
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.orchestrator = o

	log.Info().
		Str("mode", string(mode)).
		Str("model", llmCfg.Model).
		Str("store", storeCfg.Driver).
		Msg("assistant wired")
	return a, nil
}

func (a *app) wireSession(ctx context.Context, cfg AppConfig, storeCfg statex.StoreConfig) (*statex.Session, error) {
	store, err := statex.NewTranscriptStore(storeCfg, cfg.HistoryCapacity)
	if err != nil {
		return nil, fmt.Errorf("wire transcript store: %w", err)
	}
	if pg, ok := store.(*statex.PostgresStore); ok {
		a.closers = append(a.closers, pg)
		if err := pg.Migrate(ctx); err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("migrate transcript store: %w", err)
		}
	}

	history := statex.NewHistory(
		statex.WithCapacity(cfg.HistoryCapacity),
		statex.WithRenderWindow(cfg.HistoryWindow),
	)
	session := statex.NewSession(cfg.sessionID(), history, store)
	if err := session.Resume(ctx); err != nil {
		log.Warn().Err(err).Str("session_id", session.ID).Msg("resume session failed")
	}
	a.metrics.SetHistorySize(history.Len())
	return session, nil
}
