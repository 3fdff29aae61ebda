// Command worker runs the analysis job pollers. Multiple worker processes
// may run concurrently against the same database; the claim protocol keeps
// each job with exactly one of them.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/reflecta/reflecta-api/internal/analyzer"
	"github.com/reflecta/reflecta-api/internal/config"
	"github.com/reflecta/reflecta-api/internal/platform/gemini"
	"github.com/reflecta/reflecta-api/internal/platform/logger"
	"github.com/reflecta/reflecta-api/internal/platform/postgres"
	"github.com/reflecta/reflecta-api/internal/service"
	"github.com/reflecta/reflecta-api/internal/worker"
)

func main() {
	if err := run(); err != nil {
		slog.Error("worker exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close database", "error", err)
		}
	}()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildAnalyzer(ctx, cfg, log)
	if err != nil {
		return err
	}

	journalStore := postgres.NewPostgresJournalStore(db, log)
	analysisStore := postgres.NewPostgresAnalysisStore(db, log)
	jobStore := postgres.NewPostgresJobStore(db, log)

	analysisService, err := service.NewAnalysisService(analysisStore, journalStore, log)
	if err != nil {
		return fmt.Errorf("failed to create analysis service: %w", err)
	}

	processor := worker.NewProcessor(journalStore, jobStore, a, analysisService, log)

	count := cfg.Worker.Count
	if count <= 0 {
		count = 1
	}
	log.Info("starting pollers", "count", count)

	var wg sync.WaitGroup
	for i := 0; i < count; i++ {
		poller := worker.NewPoller(jobStore, processor, cfg.Worker, log.With("poller", i))
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Run only returns the cancellation error.
			_ = poller.Run(ctx)
		}()
	}

	<-ctx.Done()
	log.Info("shutdown signal received, waiting for pollers")
	wg.Wait()

	log.Info("worker stopped")
	return nil
}

// buildAnalyzer picks the Gemini analyzer when an API key is configured and
// the deterministic static analyzer otherwise.
func buildAnalyzer(ctx context.Context, cfg *config.Config, log *slog.Logger) (analyzer.Analyzer, error) {
	if cfg.LLM.GeminiAPIKey == "" {
		log.Warn("no Gemini API key configured, using static analyzer")
		return analyzer.NewStaticAnalyzer(log), nil
	}

	a, err := gemini.NewAnalyzer(ctx, log, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini analyzer: %w", err)
	}
	return a, nil
}
