package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"society/admin-service/internal/entities"
	"society/admin-service/internal/store"
	"society/admin-service/internal/theme"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	store          store.Store
	catalog        store.Catalog
	entities       *entities.Registry
	themes         *theme.Store
	logger         *zap.SugaredLogger
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
}

type Options struct {
	Store    store.Store
	Catalog  store.Catalog
	Entities *entities.Registry
	Themes   *theme.Store
	Logger   *zap.SugaredLogger
	// Middlewares run after request id and real ip resolution.
	Middlewares    []func(http.Handler) http.Handler
	RequestTimeout time.Duration
}

type errorResponse struct {
	Error responseError `json:"error"`
}

type responseError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func NewHandler(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	themes := opts.Themes
	if themes == nil {
		themes = theme.NewStore(theme.NewMemoryBackend(), logger)
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Handler{
		store:          opts.Store,
		catalog:        opts.Catalog,
		entities:       opts.Entities,
		themes:         themes,
		logger:         logger,
		middlewares:    opts.Middlewares,
		requestTimeout: timeout,
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	for _, mw := range h.middlewares {
		r.Use(mw)
	}
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(h.requestTimeout))
		r.Use(TenantMiddleware)

		r.Get("/tables", h.handleTables)
		r.Route("/tables/{entity}", func(r chi.Router) {
			r.Get("/", h.handleList)
			r.Get("/dialog", h.handleDialog)
			r.Post("/rows", h.handleCreate)
			r.Put("/rows/{id}", h.handleUpdate)
			r.Delete("/rows/{id}", h.handleDelete)
		})

		r.Get("/theme", h.handleTheme)
		r.Put("/theme", h.handleApplyTheme)
		r.Get("/theme.css", h.handleThemeCSS)
	})
	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeRequest(w http.ResponseWriter, r *http.Request, target any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: responseError{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}
