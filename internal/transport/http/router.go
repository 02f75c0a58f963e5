package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-socfony/internal/config"
	"github.com/go-socfony/internal/transport/http/handler"
	appmiddleware "github.com/go-socfony/internal/transport/http/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router. ctx bounds the
// rate limiter's background cleanup.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(appmiddleware.Metrics(deps.Metrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.AccessTokens)
	viewerMw := appmiddleware.OptionalAuth(deps.AccessTokens)

	// 5 requests/second, burst of 10, on OTP and login.
	sensitiveRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(5), 10, cfg.TrustedProxies...)

	healthH := handler.NewHealthHandler()
	tokenH := handler.NewAccessTokenHandler(deps.AccessTokens, deps.Verification)
	userH := handler.NewUserHandler(deps.Users)
	momentH := handler.NewMomentHandler(deps.Moments)
	storageH := handler.NewStorageHandler(deps.Storage)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes ────────────────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/otp/phone", tokenH.SendPhoneOTP)
		r.With(sensitiveRL.Limit).Post("/access-tokens", tokenH.Create)
		r.Post("/access-tokens/refresh", tokenH.Refresh)
		r.Get("/storages/{id}", storageH.Get)

		// Public reads that personalise for a signed-in viewer.
		r.Group(func(r chi.Router) {
			r.Use(viewerMw)

			r.Get("/users", userH.Find)
			r.Get("/users/{id}", userH.Get)
			r.Get("/moments", momentH.List)
			r.Get("/moments/{id}", momentH.Get)
			r.Get("/moments/{id}/comments", momentH.Comments)
			r.Get("/moments/{id}/liked-users", momentH.LikedUsers)
		})

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/access-tokens/current", tokenH.Current)
			r.Delete("/access-tokens/current", tokenH.Revoke)

			r.Get("/me", userH.Me)
			r.Put("/me/username", userH.UpdateUsername)
			r.Put("/me/phone", userH.UpdatePhone)

			r.Post("/moments", momentH.Create)
			r.Post("/moments/{id}/like", momentH.Like)
			r.Delete("/moments/{id}/like", momentH.Unlike)
			r.Post("/moments/{id}/comments", momentH.CreateComment)
			r.Delete("/comments/{id}", momentH.DeleteComment)

			r.Post("/storages", storageH.CreateUploadIntent)
		})
	})

	return otelhttp.NewHandler(r, "socfony.http")
}
