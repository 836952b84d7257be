package router

import (
	"encoding/json"
	"net/http"
	"strings"

	"drink-rating/internal/blob"
	"drink-rating/internal/handler"
	"drink-rating/internal/middleware"
	"drink-rating/internal/model"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers mounted by the router.
type Handlers struct {
	Auth      *handler.AuthHandler
	Drinks    *handler.DrinkHandler
	Ratings   *handler.RatingHandler
	Dashboard *handler.DashboardHandler
	Health    *handler.HealthHandler
}

// Options configures the router.
type Options struct {
	AllowedOrigins []string
	// UploadDir is served under /api/uploads/ when the local blob backend is in use.
	UploadDir string
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, verifier middleware.TokenVerifier, opts Options, logger zerolog.Logger) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	// Health check endpoint (no authentication required)
	r.HandleFunc("/health", h.Health.Health).Methods(http.MethodGet)

	// Subrouters do not inherit these from the parent router.
	api := r.PathPrefix("/api").Subrouter()
	api.NotFoundHandler = http.HandlerFunc(notFound)
	api.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	// Public routes
	api.HandleFunc("/admin/login", h.Auth.Login).Methods(http.MethodPost)
	api.HandleFunc("/drinks", h.Drinks.List).Methods(http.MethodGet)
	api.HandleFunc("/drinks/{id}", h.Drinks.Get).Methods(http.MethodGet)
	api.HandleFunc("/drinks/{id}/stats", h.Drinks.Stats).Methods(http.MethodGet)
	api.HandleFunc("/drinks/{id}/qrcode", h.Drinks.QRCode).Methods(http.MethodGet)
	api.HandleFunc("/ratings", h.Ratings.Submit).Methods(http.MethodPost)
	api.HandleFunc("/ratings/{drinkId}", h.Ratings.ListForDrink).Methods(http.MethodGet)

	// Admin routes
	auth := middleware.BearerAuth(verifier, logger)
	api.Handle("/admin/dashboard", auth(http.HandlerFunc(h.Dashboard.Dashboard))).Methods(http.MethodGet)
	api.Handle("/admin/dashboard/export", auth(http.HandlerFunc(h.Dashboard.Export))).Methods(http.MethodGet)
	api.Handle("/drinks", auth(http.HandlerFunc(h.Drinks.Create))).Methods(http.MethodPost)
	api.Handle("/drinks/{id}", auth(http.HandlerFunc(h.Drinks.Update))).Methods(http.MethodPut)
	api.Handle("/drinks/{id}", auth(http.HandlerFunc(h.Drinks.Delete))).Methods(http.MethodDelete)
	api.Handle("/ratings/{id}", auth(http.HandlerFunc(h.Ratings.Delete))).Methods(http.MethodDelete)

	if opts.UploadDir != "" {
		files := http.StripPrefix(blob.LocalURLPrefix, noDirectoryListing(http.FileServer(http.Dir(opts.UploadDir))))
		api.PathPrefix(strings.TrimPrefix(blob.LocalURLPrefix, "/api")).Handler(files).Methods(http.MethodGet, http.MethodHead)
	}

	// Apply middleware in order: Recovery -> Logging -> CORS -> SecurityHeaders
	var handler http.Handler = r
	handler = middleware.SecurityHeaders(handler)
	handler = middleware.CORS(opts.AllowedOrigins)(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Recovery(logger)(handler)

	return handler
}

// noDirectoryListing answers directory paths with 404 instead of an index.
func noDirectoryListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			notFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, model.ErrCodeNotFound, "route not found")
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.ErrorResponse{Error: code, Message: message})
}
