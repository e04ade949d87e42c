package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	osSignal "os/signal"
	"syscall"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

type fakeServer struct {
	server   *http.Server
	done     chan error
	shutdown chan struct{}
	err      error
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		server:   &http.Server{},
		done:     make(chan error, 1),
		shutdown: make(chan struct{}, 1),
	}
}

func (f *fakeServer) Shutdown(context.Context) error {
	f.shutdown <- struct{}{}
	return f.err
}

func (f *fakeServer) Done() <-chan error { return f.done }

func (f *fakeServer) Server() *http.Server { return f.server }

func stubSignals(t *testing.T, sig os.Signal) {
	t.Helper()
	t.Cleanup(func() {
		signalNotify = osSignal.Notify
	})

	signalNotify = func(ch chan<- os.Signal, _ ...os.Signal) {
		if sig == nil {
			return
		}
		go func() {
			ch <- sig
		}()
	}
}

func TestShutdownSignals(t *testing.T) {
	stubSignals(t, syscall.SIGTERM)

	srv := newFakeServer()
	if err := shutdown(srv, time.Millisecond, zaptest.NewLogger(t)); err != nil {
		t.Fatalf("shutdown returned error: %v", err)
	}

	select {
	case <-srv.shutdown:
	case <-time.After(time.Second):
		t.Fatalf("expected server shutdown to be requested")
	}
}

func TestShutdownFallsBackToClose(t *testing.T) {
	stubSignals(t, syscall.SIGINT)

	srv := newFakeServer()
	srv.err = context.DeadlineExceeded
	closed := make(chan struct{}, 1)
	srv.server.RegisterOnShutdown(func() {
		closed <- struct{}{}
	})

	if err := shutdown(srv, time.Millisecond, zaptest.NewLogger(t)); err != nil {
		t.Fatalf("shutdown returned error: %v", err)
	}
	<-srv.shutdown
	select {
	case <-closed:
		t.Fatalf("Close must not run shutdown hooks")
	default:
	}
}

func TestShutdownReturnsServeError(t *testing.T) {
	stubSignals(t, nil)

	srv := newFakeServer()
	boom := errors.New("listener failed")
	srv.done <- boom

	if err := shutdown(srv, time.Millisecond, zaptest.NewLogger(t)); !errors.Is(err, boom) {
		t.Fatalf("expected serve error, got %v", err)
	}
	select {
	case <-srv.shutdown:
		t.Fatalf("shutdown must not be requested after the server stopped on its own")
	default:
	}
}
