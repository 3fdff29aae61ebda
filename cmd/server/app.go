package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/reflecta/reflecta-api/internal/api"
	"github.com/reflecta/reflecta-api/internal/cache"
	"github.com/reflecta/reflecta-api/internal/config"
	"github.com/reflecta/reflecta-api/internal/events"
	"github.com/reflecta/reflecta-api/internal/platform/postgres"
	"github.com/reflecta/reflecta-api/internal/service"
	"github.com/reflecta/reflecta-api/internal/service/auth"
	"github.com/reflecta/reflecta-api/internal/worker"
	"github.com/reflecta/reflecta-api/migrations"
)

// application holds the wired-up dependency graph of the API server.
type application struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *sql.DB
	router http.Handler
}

// newApplication opens the database, applies migrations, and wires stores,
// services, and handlers into a router.
func newApplication(cfg *config.Config, log *slog.Logger) (*application, error) {
	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migrations.Up(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database migrations applied")

	var c cache.Cache
	if cfg.Redis.URL != "" {
		redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to configure redis cache: %w", err)
		}
		c = redisCache
	} else {
		log.Warn("no redis URL configured, rate limiting and token revocation disabled")
		c = cache.NewNoopCache()
	}

	// Stores
	userStore := postgres.NewPostgresUserStore(db, log)
	journalStore := postgres.NewPostgresJournalStore(db, log)
	analysisStore := postgres.NewPostgresAnalysisStore(db, log)
	jobStore := postgres.NewPostgresJobStore(db, log)

	// The API enqueues analysis work indirectly: the journal service emits
	// events and this handler writes the queue rows.
	emitter := events.NewInMemoryEventEmitter(log)
	emitter.RegisterHandler(worker.NewJobEnqueueHandler(jobStore, log))

	// Services
	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	authService, err := auth.NewAuthService(userStore, jwtService, auth.NewBcryptHasher(), c, cfg.Auth, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth service: %w", err)
	}

	journalService, err := service.NewJournalService(db, journalStore, emitter, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create journal service: %w", err)
	}

	analysisService, err := service.NewAnalysisService(analysisStore, journalStore, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create analysis service: %w", err)
	}

	jobService, err := service.NewJobService(jobStore, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create job service: %w", err)
	}

	// Handlers
	authHandler := api.NewAuthHandler(authService, log)
	journalHandler := api.NewJournalHandler(journalService, analysisService, log)
	analysisHandler := api.NewAnalysisHandler(analysisService, log)
	jobHandler := api.NewJobHandler(jobService, log)

	router := buildRouter(routerDeps{
		jwtService:      jwtService,
		authService:     authService,
		authHandler:     authHandler,
		journalHandler:  journalHandler,
		analysisHandler: analysisHandler,
		jobHandler:      jobHandler,
		db:              db,
	})

	return &application{
		cfg:    cfg,
		logger: log,
		db:     db,
		router: router,
	}, nil
}

// Router returns the application's HTTP handler.
func (a *application) Router() http.Handler {
	return a.router
}

// Close releases the application's resources.
func (a *application) Close() {
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", "error", err)
	}
}
