package modelserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/mux"

	"github.com/careboard/careboard/internal/models"
	"github.com/careboard/careboard/internal/search"
)

const maxBodyBytes = 4 << 20

// Searcher answers supplement searches.
type Searcher interface {
	Search(ctx context.Context, query string) (*models.SupplementSearchResponse, error)
}

// Options configures the HTTP server.
type Options struct {
	Listen      string
	CORSOrigins []string
}

// Server holds the routes and predictors of the model backend.
type Server struct {
	opts       Options
	router     *mux.Router
	httpServer *http.Server
	registry   *Registry
	immune     ImmunePredictor
	nutrition  *NutritionPredictor
	searcher   Searcher
	logger     *slog.Logger
}

// New creates a Server. searcher may be nil, in which case the search
// route answers 503.
func New(opts Options, registry *Registry, searcher Searcher, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		opts:      opts,
		router:    mux.NewRouter(),
		registry:  registry,
		nutrition: NewNutritionPredictor(registry),
		searcher:  searcher,
		logger:    logger.With("component", "modelserver"),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	s.router.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/api/admin/reload-models", s.handleReload).Methods(http.MethodPost)
	s.router.HandleFunc("/api/immune/predict", s.handlePredictImmune).Methods(http.MethodPost)
	s.router.HandleFunc("/api/immune/predict/batch", s.handlePredictImmuneBatch).Methods(http.MethodPost)
	s.router.HandleFunc("/api/nutrition/simulate", s.handleSimulateNutrition).Methods(http.MethodPost)
	s.router.HandleFunc("/api/pillyze/search", s.handleSearch).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "not_found")
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "method_not_allowed")
	})
}

// Handler returns the router wrapped with CORS handling.
func (s *Server) Handler() http.Handler {
	return s.cors(s.router)
}

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         s.opts.Listen,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.logger.Info("model backend listening", "addr", s.opts.Listen)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) cors(next http.Handler) http.Handler {
	allowAll := slices.Contains(s.opts.CORSOrigins, "*")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (allowAll || slices.Contains(s.opts.CORSOrigins, origin)) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			h.Add("Vary", "Origin")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Default().Warn("encoding response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code string) {
	respondJSON(w, status, map[string]string{"error": code})
}

func (s *Server) respondInvalid(w http.ResponseWriter, r *http.Request, errs []FieldError) {
	verr := &ValidationError{Detail: errs}
	s.logger.Debug("rejected request", "path", r.URL.Path, "error", verr)
	respondJSON(w, http.StatusUnprocessableEntity, verr)
}

// readBody returns the request body, or a validation error when it is
// not readable JSON.
func readBody(w http.ResponseWriter, r *http.Request) (json.RawMessage, []FieldError) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, []FieldError{invalid([]any{"body"}, "request body too large or unreadable")}
	}
	if !json.Valid(body) {
		return nil, []FieldError{{Loc: []any{"body"}, Msg: "JSON decode error", Type: "value_error.jsondecode"}}
	}
	return body, nil
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"service": "model-backend", "status": "ok"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok", "models": s.registry.Status()})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	s.registry.Reload()
	s.logger.Info("guidelines reloaded")
	respondJSON(w, http.StatusOK, map[string]any{"status": "reloaded", "models": s.registry.Status()})
}

func (s *Server) handlePredictImmune(w http.ResponseWriter, r *http.Request) {
	body, errs := readBody(w, r)
	if errs != nil {
		s.respondInvalid(w, r, errs)
		return
	}
	req, errs := decodeImmuneRequest(body, []any{"body"})
	if len(errs) > 0 {
		s.respondInvalid(w, r, errs)
		return
	}
	respondJSON(w, http.StatusOK, s.immune.Predict(req.ResidentID, req.Features))
}

func (s *Server) handlePredictImmuneBatch(w http.ResponseWriter, r *http.Request) {
	body, errs := readBody(w, r)
	if errs != nil {
		s.respondInvalid(w, r, errs)
		return
	}
	fields, errs := object(body, []any{"body"})
	if errs != nil {
		s.respondInvalid(w, r, errs)
		return
	}

	var raw []json.RawMessage
	if itemsRaw, ok := fields["items"]; ok && !isNull(itemsRaw) {
		if err := json.Unmarshal(itemsRaw, &raw); err != nil {
			s.respondInvalid(w, r, []FieldError{invalid([]any{"body", "items"}, "value is not a valid list")})
			return
		}
	}

	reqs := make([]models.ImmunePredictRequest, 0, len(raw))
	for i, item := range raw {
		req, ierrs := decodeImmuneRequest(item, []any{"body", "items", i})
		errs = append(errs, ierrs...)
		reqs = append(reqs, req)
	}
	if len(errs) > 0 {
		s.respondInvalid(w, r, errs)
		return
	}

	items := make([]models.ImmunePredictResult, 0, len(reqs))
	for _, req := range reqs {
		items = append(items, s.immune.Predict(req.ResidentID, req.Features))
	}
	s.logger.Debug("immune batch scored", "items", len(items))
	respondJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleSimulateNutrition(w http.ResponseWriter, r *http.Request) {
	body, errs := readBody(w, r)
	if errs != nil {
		s.respondInvalid(w, r, errs)
		return
	}
	req, errs := decodeNutritionRequest(body)
	if len(errs) > 0 {
		s.respondInvalid(w, r, errs)
		return
	}
	respondJSON(w, http.StatusOK, s.nutrition.Simulate(req.Patient, req.Intervention))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.searcher == nil {
		respondError(w, http.StatusServiceUnavailable, "search_disabled")
		return
	}

	resp, err := s.searcher.Search(r.Context(), r.URL.Query().Get("query"))
	switch {
	case errors.Is(err, search.ErrQueryRequired):
		respondError(w, http.StatusBadRequest, "query_required")
	case err != nil:
		s.logger.Warn("supplement search failed", "error", err)
		respondError(w, http.StatusBadGateway, "upstream_failed")
	default:
		respondJSON(w, http.StatusOK, resp)
	}
}
