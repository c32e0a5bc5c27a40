package application

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/eugenenazirov/rollcut/internal/api"
	"github.com/eugenenazirov/rollcut/internal/config"
	"github.com/eugenenazirov/rollcut/internal/cutting"
	"github.com/eugenenazirov/rollcut/internal/solver"
	"github.com/eugenenazirov/rollcut/internal/storage"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	storage storage.Storage
	planner cutting.Planner
	handler *api.Handler
	router  http.Handler
	logger  *zap.Logger
	server  *http.Server
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	if cfg.StockLength <= 0 {
		return nil, fmt.Errorf("failed to apply initial stock length: %w", storage.ErrInvalidStockLength)
	}
	store := storage.NewMemoryStorage(
		storage.WithStockLength(cfg.StockLength),
		storage.WithPlanHistory(cfg.PlanHistory),
	)

	planner := NewPlanner(cfg, logger)
	handler := api.NewHandler(planner, store)
	apiRouter := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		api.WithMaxConcurrentSolves(cfg.MaxConcurrentSolves),
	)

	return &App{
		storage: store,
		planner: planner,
		handler: handler,
		router:  apiRouter,
		logger:  logger,
		server:  NewServer(cfg, BuildRootHandler(apiRouter)),
	}, nil
}

// NewPlanner builds the solver-backed cutting planner described by cfg.
func NewPlanner(cfg config.Config, logger *zap.Logger) *cutting.Cutter {
	backend := solver.NewPB(
		solver.WithTimeLimit(cfg.SolverTimeLimit),
		solver.WithMaxVariables(cfg.SolverMaxVariables),
		solver.WithMaxSearches(cfg.MaxConcurrentSolves),
		solver.WithLogger(logger.Named("solver")),
	)

	opts := []cutting.Option{
		cutting.WithCombinedObjective(cfg.CombinedObjective),
		cutting.WithMaxModelVariables(cfg.ModelMaxVariables),
		cutting.WithLogger(logger.Named("cutting")),
	}
	if len(cfg.Variants) > 0 {
		opts = append(opts, cutting.WithVariants(cfg.Variants...))
	}
	return cutting.New(backend, opts...)
}

// BuildRootHandler mounts the API and points the bare root at the health check.
func BuildRootHandler(apiHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/api/health", http.StatusTemporaryRedirect)
	}))
	return mux
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}
