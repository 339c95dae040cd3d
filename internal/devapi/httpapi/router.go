// Package httpapi exposes the dev API over HTTP/JSON with chi.
//
// Every response uses the same envelope:
//
//	{"success": true, "message": "...", "user": {...}, "accessToken": "..."}
//
// Protected routes expect "Authorization: Bearer <token>".
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dmitrijs2005/homefinder/internal/common"
	"github.com/dmitrijs2005/homefinder/internal/devapi/auth"
	"github.com/dmitrijs2005/homefinder/internal/devapi/users"
	"github.com/dmitrijs2005/homefinder/internal/logging"
)

// Users is the account service behind the handlers.
type Users interface {
	Register(ctx context.Context, in users.RegisterInput) (*users.User, error)
	VerifyOTP(ctx context.Context, email, otp string) (*users.Session, error)
	ResendOTP(ctx context.Context, email string) error
	Login(ctx context.Context, email string, password []byte) (*users.Session, error)
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
	Logout(ctx context.Context, claims *auth.Claims)
	Profile(ctx context.Context, userID string) (*users.User, error)
	UpdateProfile(ctx context.Context, userID string, upd users.ProfileUpdate) (*users.User, error)
}

type Handler struct {
	users  Users
	logger logging.Logger
}

// DefaultCORSOptions allows a local web frontend to call the API.
func DefaultCORSOptions(origins []string) cors.Options {
	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			common.AuthorizationHeaderName,
			common.RequestIDHeaderName,
		},
		ExposedHeaders: []string{common.RequestIDHeaderName},
		MaxAge:         300,
	}
}

// NewRouter assembles the chi router with the shared middleware, the CORS
// policy and the auth routes mounted.
func NewRouter(u Users, origins []string, logger logging.Logger) chi.Router {
	if logger == nil {
		logger = logging.Nop()
	}
	h := &Handler{users: u, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(DefaultCORSOptions(origins)))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, response{Message: "route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, response{Message: "method not allowed"})
	})

	r.Get("/api/health", h.health)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/verify-otp", h.verifyOTP)
		r.Post("/resend-otp", h.resendOTP)
		r.Post("/login", h.login)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)
			r.Get("/profile", h.profile)
			r.Put("/profile", h.updateProfile)
			r.Post("/logout", h.logout)
		})
	})

	return r
}

// requestLogger tags the request context with its id and logs the outcome.
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := logging.WithAttrs(r.Context(),
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
		)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		ww.Header().Set(common.RequestIDHeaderName, middleware.GetReqID(r.Context()))

		next.ServeHTTP(ww, r.WithContext(ctx))

		h.logger.Info(ctx, "request handled",
			"status", ww.Status(),
			"duration", time.Since(start),
			"remote", r.RemoteAddr,
		)
	})
}
