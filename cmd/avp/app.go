package main

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/tendorai/avp/internal/cache"
	"github.com/tendorai/avp/internal/config"
	"github.com/tendorai/avp/internal/database"
	"github.com/tendorai/avp/internal/llm"
	"github.com/tendorai/avp/internal/metrics"
	"github.com/tendorai/avp/internal/notifications"
	"github.com/tendorai/avp/internal/pdf"
	"github.com/tendorai/avp/internal/pipeline"
	"github.com/tendorai/avp/internal/platform"
	"github.com/tendorai/avp/internal/research"
	"github.com/tendorai/avp/internal/scanner"
	"github.com/tendorai/avp/internal/scheduler"
	"github.com/tendorai/avp/internal/siteprobe"
)

// app holds the process-wide singletons.
type app struct {
	cfg       *config.Config
	store     database.Store
	metrics   *metrics.Metrics
	platforms *platform.Registry
	pipeline  *pipeline.Pipeline
	scanner   *scanner.Scanner
	runner    *scheduler.Runner
	cache     cache.ReportCache
}

func newApp(cfg *config.Config) (*app, error) {
	store, err := database.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	m := metrics.New()

	provider, err := llm.NewResearchProvider(cfg.Research)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create research provider: %w", err)
	}
	provider = llm.Instrument(provider, m)

	var agent *research.Agent
	if cfg.Research.ProbeWebsites {
		agent = research.NewAgent(provider, store, siteprobe.NewProber())
	} else {
		agent = research.NewAgent(provider, store, nil)
	}

	registry := platform.NewRegistryFromConfig(cfg, m)

	p := pipeline.New(agent, pdf.NewRenderer(cfg.Server.FrontendURL), store, cfg.Server.FrontendURL).
		WithObserver(m)
	if cfg.Platforms.EmbedInReports {
		p = p.WithPlatforms(registry)
	}

	notifier, err := notifications.New(cfg.Email)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create notifier: %w", err)
	}

	a := &app{
		cfg:       cfg,
		store:     store,
		metrics:   m,
		platforms: registry,
		pipeline:  p,
		scanner:   scanner.New(cfg.Scanner, cfg.Research.Model, provider, store).WithObserver(m),
		runner:    scheduler.NewRunner(store, p, notifier, cfg.Reports.VendorPause),
	}
	if rc := cache.New(cfg.Redis); rc != nil {
		a.cache = rc
		log.Info().Str("addr", cfg.Redis.Addr).Msg("Report cache enabled")
	}

	log.Info().
		Str("database", cfg.Database.Driver).
		Str("research", cfg.Research.Provider).
		Bool("embed_platforms", cfg.Platforms.EmbedInReports).
		Str("email", cfg.Email.Mode).
		Msg("Components initialised")

	return a, nil
}

func (a *app) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close report cache")
		}
	}
	if err := a.store.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close database")
	}
}
