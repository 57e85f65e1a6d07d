package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sandeepkv93/shortlink-backend/internal/health"
	"github.com/sandeepkv93/shortlink-backend/internal/http/handler"
	"github.com/sandeepkv93/shortlink-backend/internal/http/middleware"
	"github.com/sandeepkv93/shortlink-backend/internal/http/response"
)

type Dependencies struct {
	AuthHandler      *handler.AuthHandler
	LinkHandler      *handler.LinkHandler
	Authenticator    middleware.Authenticator
	CORSOrigins      []string
	AuthRateLimitRPM int
	APIRateLimitRPM  int
	AuthRateLimiter  AuthRateLimiterFunc
	Readiness        *health.ProbeRunner
	Metrics          http.Handler
	EnableOTelHTTP   bool
}

type AuthRateLimiterFunc func(http.Handler) http.Handler

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(dep.CORSOrigins))
	r.Use(middleware.BodyLimit(1 << 20))
	if dep.APIRateLimitRPM > 0 {
		r.Use(httprate.Limit(
			dep.APIRateLimitRPM,
			time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				response.Error(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests", nil)
			}),
		))
	}

	authLimiter := dep.AuthRateLimiter
	if authLimiter == nil {
		authLimiter = middleware.NewRateLimiter(dep.AuthRateLimitRPM, time.Minute, "auth").Middleware()
	}
	sessionAuth := middleware.SessionAuth(dep.Authenticator)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		response.Text(w, http.StatusOK, "URL Shortener API is running")
	})
	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if dep.Readiness == nil {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": []any{}})
			return
		}
		ready, results := dep.Readiness.Ready(r.Context())
		if ready {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": results})
			return
		}
		response.Error(w, r, http.StatusServiceUnavailable, "DEPENDENCY_UNREADY", "dependencies are not ready", map[string]any{"checks": results})
	})
	if dep.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", dep.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(authLimiter)
		r.Post("/signup", dep.AuthHandler.Signup)
		r.Get("/verify-email/{token}", dep.AuthHandler.VerifyEmail)
		r.Post("/login", dep.AuthHandler.Login)
		r.Post("/forgot-password", dep.AuthHandler.ForgotPassword)
		r.Post("/reset-password", dep.AuthHandler.ResetPassword)
	})

	r.Post("/links-alias/{alias}", dep.LinkHandler.ResolveAlias)

	r.Group(func(r chi.Router) {
		r.Use(sessionAuth)
		r.Post("/logout", dep.AuthHandler.Logout)
		r.Get("/session", dep.AuthHandler.Session)
		r.Post("/create-link", dep.LinkHandler.CreateLink)
		r.Get("/link-stats/{alias}", dep.LinkHandler.Stats)
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
