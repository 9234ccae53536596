package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dvloznov/finance-coach/internal/advisor"
	"github.com/dvloznov/finance-coach/internal/api/handlers"
	"github.com/dvloznov/finance-coach/internal/api/middleware"
	"github.com/dvloznov/finance-coach/internal/bank"
	"github.com/dvloznov/finance-coach/internal/coach"
	"github.com/dvloznov/finance-coach/internal/config"
	"github.com/dvloznov/finance-coach/internal/jobs"
	"github.com/dvloznov/finance-coach/internal/jobs/inmemory"
	"github.com/dvloznov/finance-coach/internal/logger"
	"github.com/dvloznov/finance-coach/internal/news"
	"github.com/dvloznov/finance-coach/internal/scheduler"
	"github.com/dvloznov/finance-coach/internal/store"
)

func main() {
	log := logger.New()

	cfg, err := config.Load(log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log = logger.NewWithLevel(cfg.LogLevel)

	ctx := context.Background()

	repo, err := store.Open(cfg.DatabasePath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer repo.Close()

	bankClient := bank.NewClient(cfg.NessieBaseURL, cfg.NessieAPIKey, log)
	newsClient := news.NewClient("", cfg.MediastackAPIKey, log)

	deps := coach.Deps{
		Bank:      bankClient,
		News:      newsClient,
		Repo:      repo,
		WarnRatio: cfg.WantsWarnRatio,
		Log:       log,
	}
	if cfg.GeminiAPIKey != "" {
		aiClient, err := advisor.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, log)
		if err != nil {
			log.Warn().Err(err).Msg("Could not initialize AI advisor, using fallbacks")
		} else {
			deps.Advisor = aiClient
		}
	}
	engine := coach.NewEngine(deps)

	// Job infrastructure for the periodic spending reports
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, 2, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	jobHandler := func(ctx context.Context, job jobs.Job) error {
		reportJob, ok := job.(*jobs.ReportJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().
			Str("job_id", reportJob.JobID).
			Str("account_key", reportJob.AccountKey).
			Msg("Processing report job")

		result, err := engine.AnalyzeAccount(ctx, reportJob.AccountKey)
		if err != nil {
			log.Error().
				Err(err).
				Str("job_id", reportJob.JobID).
				Str("account_key", reportJob.AccountKey).
				Msg("Report generation failed")
			return err
		}

		log.Info().
			Str("job_id", reportJob.JobID).
			Str("account_key", reportJob.AccountKey).
			Float64("needs_total", result.NeedsTotal).
			Float64("wants_total", result.WantsTotal).
			Msg("Report generated")
		return nil
	}

	go func() {
		log.Info().Msg("Starting report worker")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Report worker stopped with error")
		}
	}()

	reportScheduler := scheduler.New(engine, jobQueue, cfg.ReportInterval, log)
	go reportScheduler.Run(workerCtx)

	coachHandler := handlers.NewCoachHandler(engine, jobStore, log)

	r := chi.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS)
	coachHandler.Routes(r)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	log.Info().Msg("Server exited")
}
