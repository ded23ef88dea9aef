package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	appconfig "github.com/adrianhensler/botterverse/internal/config"
	"github.com/adrianhensler/botterverse/internal/director"
	"github.com/adrianhensler/botterverse/internal/handlers"
	"github.com/adrianhensler/botterverse/internal/ingest"
	"github.com/adrianhensler/botterverse/internal/jobs"
	"github.com/adrianhensler/botterverse/internal/leader"
	"github.com/adrianhensler/botterverse/internal/models"
	"github.com/adrianhensler/botterverse/internal/store"
	"github.com/adrianhensler/botterverse/pkg/config"
	"github.com/adrianhensler/botterverse/pkg/database"
	"github.com/adrianhensler/botterverse/pkg/llm"
	"github.com/adrianhensler/botterverse/pkg/logging"
	"github.com/adrianhensler/botterverse/pkg/monitoring"
	"github.com/adrianhensler/botterverse/pkg/server"
	"github.com/adrianhensler/botterverse/pkg/version"
)

func main() {
	logger := logging.NewLoggerWithService("director")
	config.LoadEnv(logger)
	cfg := appconfig.LoadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage: Postgres when configured, in-memory otherwise.
	var st store.Store
	if cfg.DatabaseURL != "" {
		dbCfg := database.DefaultConfig()
		dbCfg.URL = cfg.DatabaseURL
		db := database.MustConnect(dbCfg, logger)
		defer db.Close()
		pg := store.NewPostgresStore(db)
		if err := pg.Migrate(ctx); err != nil {
			logger.WithError(err).Fatal("Failed to run store migrations")
		}
		st = pg
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory store")
		st = store.NewMemoryStore()
	}

	// Persona roster.
	roster, err := director.LoadRoster(cfg.PersonasFile)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load persona roster")
	}
	registry := director.NewRegistry()
	for _, p := range roster {
		registered := registry.Register(p)
		if err := st.AddAuthor(ctx, models.Author{
			ID:          registered.ID,
			Handle:      registered.Handle,
			DisplayName: registered.DisplayName,
			Type:        models.AuthorBot,
		}); err != nil {
			logger.WithError(err).WithField("handle", registered.Handle).Fatal("Failed to register persona author")
		}
	}
	logger.WithField("personas", registry.Len()).Info("Persona roster loaded")

	// Model routing: tier -> provider/model is configuration.
	dcfg := director.DefaultConfig()
	local := llm.NewLocalProvider()
	router := director.NewModelRouter(
		tierConfig(cfg.EconomyProvider, cfg.EconomyModel, cfg, local),
		tierConfig(cfg.PremiumProvider, cfg.PremiumModel, cfg, local),
		local,
		dcfg.PremiumTones,
		logger,
	)

	healthChecker := monitoring.NewHealthChecker("director", version.Version)
	metricsCollector := monitoring.NewMetricsCollector("director", version.Version, version.GitCommit)
	directorMetrics := metricsCollector.CreateDirectorMetrics()
	d := director.New(dcfg, registry, st, router, logger, directorMetrics, nil)
	if err := d.RestoreCadence(ctx); err != nil {
		logger.WithError(err).Warn("Could not restore cadence state from storage")
	}

	// Leader election: redis lease, file lease, or single-instance static.
	var elector leader.Elector = leader.Static{}
	switch {
	case cfg.RedisAddr != "":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		elector = leader.NewRedisElector(client, "", cfg.LeaderTTL)
	case cfg.LeaderLockPath != "":
		if err := leader.EnsureLeaseDir(cfg.LeaderLockPath); err != nil {
			logger.WithError(err).Fatal("Failed to create leader lock directory")
		}
		elector = leader.NewFileElector(cfg.LeaderLockPath, cfg.LeaderTTL)
	}
	election := leader.NewElection(elector, cfg.LeaderTTL/3, logger)
	go election.Run(ctx)

	healthChecker.AddCheck("leadership", monitoring.LeadershipHealthCheck(election.IsLeader))

	// Ingestion sources. Missing keys disable a source, they are not errors.
	var sources []ingest.Source
	if cfg.NewsAPIKey != "" {
		sources = append(sources, ingest.NewNewsSource(cfg.NewsAPIKey, "", cfg.NewsCategory))
	} else {
		logger.Info("NEWS_API_KEY not set, news ingestion disabled")
	}
	if cfg.WeatherLatitude != 0 || cfg.WeatherLongitude != 0 {
		sources = append(sources, ingest.NewWeatherSource("", cfg.WeatherLatitude, cfg.WeatherLongitude))
	}
	if cfg.SportsAPIBase != "" {
		sources = append(sources, ingest.NewSportsSource(cfg.SportsAPIBase, cfg.SportsLeagueID))
	}
	if cfg.GitHubUser != "" {
		sources = append(sources, ingest.NewGitHubSource(cfg.GitHubUser, cfg.GitHubToken, ""))
	}

	scheduler := jobs.NewScheduler(logger, election.IsLeader)
	mustAdd := func(name string, err error) {
		if err != nil {
			logger.WithError(err).WithField("job", name).Fatal("Failed to register job")
		}
	}
	mustAdd(director.JobDirector, scheduler.Add(director.JobDirector, cfg.DirectorInterval, cfg.DirectorInterval, d.Tick))
	mustAdd(director.JobDM, scheduler.Add(director.JobDM, cfg.DMInterval, cfg.DMInterval, d.DMTick))
	mustAdd(director.JobLike, scheduler.Add(director.JobLike, cfg.LikeInterval, cfg.LikeInterval, d.LikeTick))
	if len(sources) > 0 {
		mustAdd(director.JobIngest, scheduler.Add(director.JobIngest, cfg.IngestInterval, cfg.IngestInterval, func(jctx context.Context) {
			if d.Paused() {
				return
			}
			for _, ev := range ingest.PollAll(jctx, sources, logger) {
				d.RegisterEvent(ev)
			}
		}))
	}
	scheduler.Start()
	defer scheduler.Stop()

	app := server.SetupServiceRouter(logger, "director", healthChecker, metricsCollector)
	handlers.New(st, d, logger).Register(app)

	serverConfig := server.DefaultConfig("director", cfg.Port)
	if err := server.Start(serverConfig, app, logger); err != nil {
		logger.Fatal(err.Error())
	}
}

// tierConfig maps a configured provider name to a concrete adapter.
func tierConfig(provider, model string, cfg appconfig.Config, local *llm.LocalProvider) director.TierConfig {
	switch provider {
	case "openai":
		return director.TierConfig{
			Provider:  llm.NewOpenAIProvider(llm.Config{APIKey: cfg.OpenAIKey, APIURL: cfg.LLMAPIURL}),
			ModelName: model,
		}
	case "openrouter":
		return director.TierConfig{
			Provider:  llm.NewOpenRouterProvider(llm.Config{APIKey: cfg.OpenRouterKey, APIURL: cfg.LLMAPIURL}),
			ModelName: model,
		}
	default:
		return director.TierConfig{Provider: local, ModelName: llm.LocalModelName}
	}
}
