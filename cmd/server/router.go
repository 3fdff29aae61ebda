package main

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/reflecta/reflecta-api/internal/api"
	"github.com/reflecta/reflecta-api/internal/api/middleware"
	"github.com/reflecta/reflecta-api/internal/api/shared"
	"github.com/reflecta/reflecta-api/internal/service/auth"
)

type routerDeps struct {
	jwtService      auth.JWTService
	authService     *auth.AuthService
	authHandler     *api.AuthHandler
	journalHandler  *api.JournalHandler
	analysisHandler *api.AnalysisHandler
	jobHandler      *api.JobHandler
	db              *sql.DB
}

// buildRouter assembles the chi router: public auth routes, the health
// check, and the JWT-protected journal, analysis, and job routes.
func buildRouter(deps routerDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))
	r.Use(middleware.TraceMiddleware)

	authMiddleware := middleware.NewAuthMiddleware(deps.jwtService, deps.authService)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if err := deps.db.PingContext(req.Context()); err != nil {
			shared.RespondWithError(w, req, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		shared.RespondWithJSON(w, req, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", deps.authHandler.Register)
			r.Post("/login", deps.authHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.Authenticate)
				r.Post("/logout", deps.authHandler.Logout)
				r.Get("/me", deps.authHandler.Me)
				r.Patch("/me", deps.authHandler.UpdateMe)
				r.Delete("/me", deps.authHandler.DeleteMe)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Route("/journals", func(r chi.Router) {
				r.Post("/", deps.journalHandler.Create)
				r.Get("/", deps.journalHandler.List)
				r.Get("/{id}", deps.journalHandler.Get)
				r.Put("/{id}", deps.journalHandler.Update)
				r.Delete("/{id}", deps.journalHandler.Delete)
				r.Get("/{id}/analysis", deps.journalHandler.GetAnalysis)
			})

			r.Route("/analyses", func(r chi.Router) {
				r.Get("/", deps.analysisHandler.List)
				r.Post("/{id}/accept-reframe", deps.analysisHandler.AcceptReframe)
			})

			r.Route("/jobs", func(r chi.Router) {
				r.Get("/{id}", deps.jobHandler.Get)
				r.Post("/{id}/reset", deps.jobHandler.Reset)
			})
		})
	})

	return r
}
