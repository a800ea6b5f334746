package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lms-personalization/internal/config"
	"lms-personalization/internal/domain/ports/adapter"
	"lms-personalization/internal/generation"
	aiAdapters "lms-personalization/internal/infra/adapters/ai"
	"lms-personalization/internal/infra/api"
	"lms-personalization/internal/infra/auth"
	pg "lms-personalization/internal/infra/db/postgres"
	"lms-personalization/internal/infra/extract"
	"lms-personalization/internal/infra/logging"
	"lms-personalization/internal/infra/metrics"
	red "lms-personalization/internal/infra/redis"
	"lms-personalization/internal/infra/worker"
	"lms-personalization/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, stub AI fallback)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("dev mode enabled")
	}
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	tm := pg.NewTxManager(pool)

	// ---- Redis (optional; orchestrator degrades to no-op lock/cache) ----
	var (
		locker usecase.PairLocker
		cache  usecase.JobCache
	)
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		locker = red.NewLocker(redisClient)
		cache = red.NewJobCache(redisClient, cfg.Redis.TTL)
	} else {
		logger.Warn().Msg("redis.url not set; pair locking and status cache disabled")
	}

	// ---- Repositories ----
	jobRepo := pg.NewJobRepo(pool, tm)
	courseRepo := pg.NewCourseRepo(pool)
	employeeRepo := pg.NewEmployeeRepo(pool)
	mappingRepo := pg.NewEmployeeUserMappingRepo(pool)
	enrollmentRepo := pg.NewEnrollmentRepo(pool)
	artifactRepo := pg.NewArtifactRepo(pool)

	// ---- AI adapter (OpenAI -> Groq -> Gemini -> dev stub) ----
	var ai adapter.AIServiceAdapter
	switch {
	case cfg.AI.OpenAIKey != "":
		ai, err = aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey, cfg.AI.DefaultModel)
		if err != nil {
			logger.Fatal().Err(err).Msg("openai adapter")
		}
		logger.Info().Str("model", cfg.AI.DefaultModel).Msg("AI adapter: OpenAI")
	case cfg.AI.GroqKey != "":
		ai, err = aiAdapters.NewGroqAdapter(cfg.AI.GroqKey, cfg.AI.DefaultModel, cfg.AI.GroqBaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("groq adapter")
		}
		logger.Info().Str("base", cfg.AI.GroqBaseURL).Str("model", cfg.AI.DefaultModel).Msg("AI adapter: Groq")
	case cfg.AI.GeminiKey != "":
		ai, err = aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, cfg.AI.DefaultModel)
		if err != nil {
			logger.Fatal().Err(err).Msg("gemini adapter")
		}
		logger.Info().Str("model", cfg.AI.DefaultModel).Msg("AI adapter: Gemini")
	case cfg.Runtime.Dev:
		ai = aiAdapters.NewNoopAI()
		logger.Warn().Msg("AI adapter: dev stub (no provider key configured)")
	default:
		logger.Fatal().Msg("no AI provider configured: set ai.openai_key, ai.groq_key, or ai.gemini_key")
	}
	ai = aiAdapters.NewLimitedAI(aiAdapters.NewTimeoutAI(ai, cfg.AI.CallTimeout), cfg.AI.ConcurrentLimit)

	// ---- Supporting adapters ----
	verifier := auth.NewJWTVerifier(cfg.Auth.JWTSecret)
	var extractor adapter.DocumentExtractor
	if cfg.Extractor.URL != "" {
		extractor = extract.NewHTTPExtractor(cfg.Extractor.URL)
	}

	// ---- Use cases ----
	profiles := usecase.NewProfileResolver(mappingRepo, employeeRepo, extractor, logger)
	engine := generation.NewEngine(ai, cfg.AI.DefaultModel, logger)

	wpool := worker.NewPool(cfg.Server.Workers, logger)
	orchestrator := usecase.NewJobOrchestrator(
		jobRepo, courseRepo, enrollmentRepo, artifactRepo,
		profiles, engine, wpool, locker, cache, logger,
	)

	// ---- Workers ----
	wpool.Start(ctx)
	defer wpool.Stop()
	processor := worker.NewJobProcessor(jobRepo, orchestrator, 2*time.Second, logger)
	go processor.Start(ctx, wpool)

	// ---- HTTP server ----
	srv := api.NewServer(orchestrator, profiles, enrollmentRepo, verifier, cfg.Server.RequestTimeout, logger)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Router(),
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutCancel()
	_ = server.Shutdown(shutCtx)
	cancel()
}
