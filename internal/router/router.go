// Package router sets up all HTTP routes and middleware chains for the
// refto API. It organizes routes into public, member and admin groups with
// appropriate middleware stacks.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"refto/internal/handlers"
	"refto/internal/middleware"
)

// Handlers bundles the handler groups the router mounts.
type Handlers struct {
	Feed        *handlers.Feed
	Sites       *handlers.Sites
	Admin       *handlers.Admin
	Auth        *handlers.Auth
	Submissions *handlers.Submissions
}

// Options tunes the cross-cutting middleware.
type Options struct {
	// SecureCookies marks the CSRF cookie HTTPS-only.
	SecureCookies bool
	// LoginLimiter throttles login attempts per client IP.
	LoginLimiter *middleware.RateLimiter
	// LikeLimiter throttles like toggles per user; nil disables it.
	LikeLimiter middleware.Allower
	// LikeWindow is the LikeLimiter window, reported in Retry-After.
	LikeWindow time.Duration
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(sessions middleware.SessionGetter, h Handlers, opts Options) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.Metrics)

	// Operational endpoints: no session, no CSRF.
	r.Get("/health", healthHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.LoadSession(sessions))
		r.Use(middleware.NewCSRF(opts.SecureCookies))

		// Auth
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if opts.LoginLimiter != nil {
					r.Use(opts.LoginLimiter.Middleware)
				}
				r.Post("/login", h.Auth.Login)
				r.Post("/register", h.Auth.Register)
			})
			r.Post("/logout", h.Auth.Logout)
			r.Get("/me", h.Auth.Me)
		})

		// Public reads
		r.Get("/feed", h.Feed.Latest)
		r.Get("/feed/weekly", h.Feed.Weekly)
		r.Get("/correlate", h.Feed.Correlate)
		r.Get("/leaderboard", h.Feed.Leaderboard)
		r.Get("/tags", h.Sites.Tags)
		r.Get("/sites/{slug}", h.Sites.Detail)
		r.Get("/sites/{id}/related", h.Feed.Related)
		r.Get("/pages/{id}/versions", h.Sites.PageVersions)
		r.Get("/pages/{id}/current", h.Sites.PageCurrent)
		r.Get("/versions/{id}/likes", h.Sites.VersionLikes)

		// Signed-in members
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.With(likeLimit(opts)...).Post("/versions/{id}/like", h.Feed.ToggleLike)
			r.Post("/submissions", h.Submissions.Create)
			r.Put("/submissions/{id}", h.Submissions.Update)
		})

		// Catalog administration
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin)

			r.Route("/sites", func(r chi.Router) {
				r.Post("/", h.Admin.CreateSite)
				r.Delete("/{id}", h.Admin.DeleteSite)
				r.Post("/{id}/versions", h.Admin.AddVersion)
				r.Post("/{id}/pages", h.Admin.CreatePage)
				r.Put("/{id}/default-page", h.Admin.SetDefaultPage)
			})
			r.Delete("/pages/{id}", h.Admin.DeletePage)

			r.Post("/tags", h.Admin.CreateTag)
			r.Delete("/tags/{id}", h.Admin.DeleteTag)

			r.Post("/uploads", h.Admin.PresignUpload)

			r.Route("/submissions", func(r chi.Router) {
				r.Get("/", h.Admin.ListSubmissions)
				r.Post("/{id}/approve", h.Admin.ApproveSubmission)
				r.Post("/{id}/reject", h.Admin.RejectSubmission)
			})
		})
	})

	return r
}

func likeLimit(opts Options) []func(http.Handler) http.Handler {
	if opts.LikeLimiter == nil {
		return nil
	}
	return []func(http.Handler) http.Handler{middleware.LimitByUser(opts.LikeLimiter, opts.LikeWindow)}
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
