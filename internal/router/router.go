package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	mw "github.com/openkanban/kanband/internal/middleware"
	"github.com/openkanban/kanband/internal/middleware/metrics"
	rl "github.com/openkanban/kanband/internal/middleware/ratelimiter"
	"github.com/openkanban/kanband/internal/setup"
)

// New creates and configures the chi router with all the routes.
// IMPORTANT! ratelimiters set with .Use limit requests for all endpoints
// combined in that group
func New(deps *setup.Dependencies, allowedOrigins []string) chi.Router {
	r := chi.NewRouter()

	r.Use(metrics.Middleware)

	// setup CORS for frontend
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	h := deps.Handler
	authMw := deps.AuthMiddleware

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(v1 chi.Router) {
		// Email-sending endpoint (signup triggers an OTP mail)
		v1.Group(func(g chi.Router) {
			g.Use(mw.RateLimit(rl.NewUserRateLimiter(1.0/10.0, 1, 1*time.Hour), mw.GetIP)) // 1 per 10 sec by IP
			g.Post("/signup", h.Signup)
		})

		// OTP verification (stricter limits to prevent brute force)
		v1.Group(func(g chi.Router) {
			g.Use(mw.RateLimit(rl.NewUserRateLimiter(5.0/600.0, 5, 1*time.Hour), mw.GetUsernameFromBody)) // 5 attempts per 10 minutes by username
			g.Use(mw.RateLimit(rl.NewUserRateLimiter(1, 1, 1*time.Hour), mw.GetIP))                       // 1 per second by IP (backup)
			g.Post("/verify-otp", h.VerifyOtp)
		})

		// Login endpoint (separate rate limiting)
		v1.Group(func(g chi.Router) {
			g.Use(mw.RateLimit(rl.NewUserRateLimiter(1, 1, 1*time.Hour), mw.GetIP)) // 1 per second by IP
			g.Post("/login", h.Login)
		})

		// Logout (no rate limits)
		v1.Post("/logout", h.Logout)

		// Logged-in user routes
		v1.Group(func(g chi.Router) {
			g.Use(authMw.NeedAuth())
			g.Use(mw.RateLimit(rl.NewUserRateLimiter(100, 100, 1*time.Hour), mw.GetUserIDFromContext)) // 100 RPS per user

			g.Get("/users/search", h.SearchUsers)

			g.Get("/boards", h.GetBoards)
			g.Post("/boards", h.CreateBoard)
			g.Put("/boards/{boardId}", h.RenameBoard)
			g.Delete("/boards/{boardId}", h.DeleteBoard)
			g.Post("/boards/{boardId}/share", h.ShareBoard)
			g.Get("/boards/{boardId}/share", h.SharedUsers)
			g.Delete("/boards/{boardId}/share", h.RevokeShare)

			g.Get("/boards/{boardId}/cards", h.GetCards)
			g.Post("/boards/{boardId}/cards", h.CreateCard)
			g.Put("/cards/{cardId}", h.RenameCard)
			g.Patch("/cards/{cardId}", h.UpdateCard)
			g.Delete("/cards/{cardId}", h.DeleteCard)
			g.Post("/cards/{cardId}/move", h.MoveCard)
			g.Post("/cards/{cardId}/complete", h.CompleteCard)
			g.Post("/cards/{cardId}/remind", h.SendReminder)
		})
	})

	// Wildcard OPTIONS handler to avoid 404s for preflight requests
	r.MethodFunc(http.MethodOptions, "/*", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return r
}
