package application

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/eugenenazirov/confstore/internal/api"
	"github.com/eugenenazirov/confstore/internal/argv"
	"github.com/eugenenazirov/confstore/internal/config"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	snapshot *argv.Snapshot
	handler  *api.Handler
	router   http.Handler
	logger   *zap.Logger
	server   *http.Server
	listener net.Listener
	done     chan error
}

// New wires the read-only API around snap. The snapshot is never modified after this point.
func New(cfg config.Config, snap *argv.Snapshot, logger *zap.Logger) (*App, error) {
	if snap == nil {
		return nil, errors.New("snapshot is required")
	}

	handler := api.NewHandler(snap)
	apiRouter := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	return &App{
		snapshot: snap,
		handler:  handler,
		router:   apiRouter,
		logger:   logger,
		server:   NewServer(cfg, BuildRootHandler(apiRouter)),
	}, nil
}

// BuildRootHandler mounts the API and metrics endpoints. The bare root redirects
// to the rendered running configuration.
func BuildRootHandler(apiHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	mux.Handle("/metrics", apiHandler)
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/api/config", http.StatusFound)
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

// Start binds the listener synchronously so address errors surface to the caller,
// then serves in the background. Serve errors are reported through Done.
func (a *App) Start() error {
	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.server.Addr, err)
	}
	a.listener = ln
	a.done = make(chan error, 1)

	a.logger.Info("server listening",
		zap.String("addr", ln.Addr().String()),
		zap.Int("settings", len(a.snapshot.List())),
	)
	go func() {
		err := a.server.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		if err != nil {
			a.logger.Error("server error", zap.Error(err))
		}
		a.done <- err
		close(a.done)
	}()
	return nil
}

// Addr reports the bound address once Start has succeeded.
func (a *App) Addr() string {
	if a.listener == nil {
		return a.server.Addr
	}
	return a.listener.Addr().String()
}

// Done yields the terminal serve error, nil after a clean shutdown.
func (a *App) Done() <-chan error {
	return a.done
}

// Shutdown gracefully stops the server and waits for the serve loop to exit.
func (a *App) Shutdown(ctx context.Context) error {
	if err := a.server.Shutdown(ctx); err != nil {
		return err
	}
	if a.done != nil {
		select {
		case <-a.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}
