package application

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/sh-sharifi-190/wetransfer/internal/api"
	"github.com/sh-sharifi-190/wetransfer/internal/config"
	"github.com/sh-sharifi-190/wetransfer/internal/service"
	"github.com/sh-sharifi-190/wetransfer/internal/settings"
	"github.com/sh-sharifi-190/wetransfer/internal/store"
)

// storeBurst is the burst allowance for paced calls to a remote store.
const storeBurst = 5

// App encapsulates the application dependencies and HTTP server.
type App struct {
	logger *zap.Logger
	server *http.Server
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	st, err := NewStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build configuration store: %w", err)
	}

	resolver := settings.NewDefaultResolver()
	svc := service.New(st, resolver, logger)
	handler := api.NewHandler(svc)
	apiRouter := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	logger.Info("configuration store ready",
		zap.Bool("remote", cfg.UsesRemoteStore()),
		zap.Strings("overridden_keys", resolver.Overrides().Keys()),
	)

	return &App{
		logger: logger,
		server: NewServer(cfg, BuildRootHandler(apiRouter)),
	}, nil
}

// NewStore selects the configuration store: the remote HTTP store when a URL
// is configured, otherwise an in-memory store seeded from SeedFile or the
// built-in defaults.
func NewStore(cfg config.Config) (store.Store, error) {
	if cfg.UsesRemoteStore() {
		remote, err := store.NewHTTPStore(cfg.StoreURL,
			store.WithToken(cfg.StoreToken),
			store.WithRequestRate(cfg.StoreRPS, storeBurst),
		)
		if err != nil {
			return nil, err
		}
		return remote, nil
	}

	if cfg.SeedFile == "" {
		return store.NewMemoryStore(store.DefaultEntries()), nil
	}

	entries, err := store.LoadSeed(cfg.SeedFile)
	if err != nil {
		return nil, err
	}
	return store.NewMemoryStore(entries), nil
}

// BuildRootHandler constructs the root HTTP handler that routes API requests
// and answers everything else with 404.
func BuildRootHandler(apiHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	mux.Handle("/", http.NotFoundHandler())
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
