package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/confstore/internal/logging"
)

var signalNotify = signal.Notify

func main() {
	c := newCLI()
	command := kingpin.MustParse(c.app.Parse(os.Args[1:]))

	logger, err := logging.New(*c.debug)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := c.run(command, os.Stdout, logger); err != nil {
		_ = logger.Sync()
		c.app.Fatalf("%v", err)
	}
}

type server interface {
	Shutdown(ctx context.Context) error
	Done() <-chan error
	Server() *http.Server
}

// shutdown blocks until a termination signal arrives or the serve loop exits on its own.
func shutdown(srv server, timeout time.Duration, logger *zap.Logger) error {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-srv.Done():
		return err
	case sig := <-quit:
		logger.Info("shutting down server", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := srv.Server().Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
	return nil
}
