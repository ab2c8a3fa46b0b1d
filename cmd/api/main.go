package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/wellmind/practice-platform/internal/api/router"
	"github.com/wellmind/practice-platform/internal/appointments"
	"github.com/wellmind/practice-platform/internal/assessments"
	"github.com/wellmind/practice-platform/internal/catalog"
	appconfig "github.com/wellmind/practice-platform/internal/config"
	"github.com/wellmind/practice-platform/internal/metrics"
	"github.com/wellmind/practice-platform/internal/patients"
	"github.com/wellmind/practice-platform/internal/summarizer"
	"github.com/wellmind/practice-platform/pkg/logging"
)

func main() {
	// A missing .env file is fine; the process environment wins either way.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting practice-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("database unreachable", "error", err)
		os.Exit(1)
	}

	m := metrics.New()

	patientsRepo := patients.NewRepository(pool)
	catalogRepo := catalog.NewRepository(pool)
	appointmentsRepo := appointments.NewRepository(pool)
	assessmentsRepo := assessments.NewRepository(pool)

	var definitionCache *assessments.DefinitionCache
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		definitionCache = assessments.NewDefinitionCache(redisClient, cfg.TestCacheTTL, logger)
		logger.Info("test definition cache enabled", "addr", cfg.RedisAddr)
	}

	drafter := buildDrafter(ctx, cfg, logger)

	appointmentsService := appointments.NewService(
		appointmentsRepo, patientsRepo, catalogRepo, drafter, cfg.ScheduleBuffer, logger, m)
	assessmentsService := assessments.NewService(
		assessmentsRepo, patientsRepo, definitionCache,
		assessments.StrategyFromName(cfg.ScoringStrategy), logger, m)

	r := router.New(&router.Config{
		Logger:              logger,
		AppointmentsHandler: appointments.NewHandler(appointmentsService, logger),
		AssessmentsHandler:  assessments.NewHandler(assessmentsService, logger),
		MetricsHandler:      m.Handler(),
		ClinicianJWTSecret:  cfg.ClinicianJWTSecret,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// buildDrafter wires the configured LLM provider, or returns an unconfigured
// drafter when summary drafting is disabled. Appointment completion works
// either way.
func buildDrafter(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) *summarizer.Drafter {
	switch cfg.SummaryProvider {
	case "bedrock":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			logger.Error("failed to load AWS config, summary drafting disabled", "error", err)
			return summarizer.NewDrafter(nil, "", 0, 0, logger)
		}
		client := summarizer.NewBedrockLLMClient(bedrockruntime.NewFromConfig(awsCfg))
		logger.Info("summary drafting enabled", "provider", "bedrock", "model", cfg.BedrockModelID)
		return summarizer.NewDrafter(client, cfg.BedrockModelID, cfg.SummaryMaxTokens, cfg.SummaryTimeout, logger)
	case "gemini":
		client, err := summarizer.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			logger.Error("failed to create Gemini client, summary drafting disabled", "error", err)
			return summarizer.NewDrafter(nil, "", 0, 0, logger)
		}
		logger.Info("summary drafting enabled", "provider", "gemini", "model", cfg.GeminiModelID)
		return summarizer.NewDrafter(client, cfg.GeminiModelID, cfg.SummaryMaxTokens, cfg.SummaryTimeout, logger)
	case "":
		logger.Info("summary drafting disabled")
		return summarizer.NewDrafter(nil, "", 0, 0, logger)
	default:
		logger.Error("unknown summary provider, drafting disabled", "provider", cfg.SummaryProvider)
		return summarizer.NewDrafter(nil, "", 0, 0, logger)
	}
}
