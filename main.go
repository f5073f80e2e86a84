package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"selecta/clients/platform"
	"selecta/jobqueue"
	"selecta/matching"
	"selecta/ratelimit"
	"selecta/repository"
	"selecta/snapshot"
	"selecta/sync"
	"selecta/types/config"
	"selecta/types/models"
	"selecta/utils/db"
	"selecta/utils/logger"
)

func main() {
	logger.Initialize()

	configPath := flag.String("config", "", "path to a YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger.SetLogLevel(level)

	database, err := db.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}

	tracks := repository.NewTrackRepository(database)
	links := repository.NewPlatformLinkRepository(database)
	playlists := repository.NewPlaylistRepository(database)
	bindings := repository.NewBindingRepository(database)
	snapshots := snapshot.NewStore(repository.NewSnapshotRepository(database))
	jobRuns := repository.NewJobRunRepository(database)
	schedules := repository.NewJobScheduleRepository(database)

	matcher := matching.NewMatcher()
	matcher.AutoThreshold = cfg.MatchAutoThreshold
	matcher.CandidateThreshold = cfg.MatchCandidateThreshold

	detector := sync.NewDetector(tracks, links, playlists, snapshots, matcher)
	planner := sync.NewPlanner()
	gate := sync.NewSafetyGate(cfg)
	executor := sync.NewExecutor(playlists, links, bindings, snapshots, gate)

	limiter := ratelimit.NewLimiter(ratelimit.Policy{
		MaxAttempts: cfg.RetryMaxAttempts,
		BaseDelay:   time.Duration(cfg.RetryBaseDelayMs) * time.Millisecond,
		JitterRatio: cfg.RetryJitterRatio,
	})
	adapters := map[models.Platform]platform.Adapter{
		models.PlatformSpotify:   platform.NewSpotifyAdapter(platform.SpotifyConfig{}),
		models.PlatformRekordbox: platform.NewRekordboxAdapter(platform.RekordboxConfig{}),
		models.PlatformDiscogs:   platform.NewDiscogsAdapter(platform.DiscogsConfig{}),
		models.PlatformYoutube:   platform.NewYoutubeAdapter(platform.YoutubeConfig{}),
	}
	for _, adapter := range adapters {
		limiter.Register(adapter.Name(), adapter.Capabilities().RateBudgetPerMinute)
	}

	queue := jobqueue.NewQueue(cfg.MaxGlobalSyncConcurrency, cfg.MaxPerAdapterConcurrency)
	scheduler := jobqueue.NewScheduler(schedules)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := &syncRunner{
		bindings:  bindings,
		playlists: playlists,
		adapters:  adapters,
		detector:  detector,
		planner:   planner,
		executor:  executor,
		limiter:   limiter,
		jobRuns:   jobRuns,
	}

	go func() {
		if err := queue.Serve(ctx); err != nil {
			log.Warn().Err(err).Msg("job queue stopped")
		}
	}()
	go runner.pollSchedule(ctx, scheduler, queue)

	log.Info().Str("database", cfg.DatabasePath).Msg("selecta-syncd composition root ready")
	<-ctx.Done()
	log.Info().Msg("shutting down")
}
