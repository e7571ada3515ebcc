// Package main serves the in-memory tagging backend for local demos.
// Usage: fakeapi -listen 127.0.0.1:8000
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang/glog"

	"github.com/ariyeh/bagtag/internal/fakeapi"
)

func main() {
	var (
		listenAddr string
		limit      int
		firstBagID int64
		logLevel   string
	)

	flag.StringVar(&listenAddr, "listen", "127.0.0.1:8000", "Address to listen on")
	flag.IntVar(&limit, "limit", 0, "Keep at most this many bags (0 = unlimited)")
	flag.Int64Var(&firstBagID, "first-bag-id", 1, "Id given to the first created bag")
	flag.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()

	_ = flag.Set("logtostderr", "true")

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(logLevel)); err != nil {
		glog.Fatalf("Invalid log level %q: %v", logLevel, err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := fakeapi.New()
	srv.Store = fakeapi.NewStore(limit)
	srv.Store.SetNextBagID(firstBagID)

	httpServer := &http.Server{
		Addr:              listenAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			glog.Fatalf("HTTP server error: %v", err)
		}
	}()

	logger.Info("fake tagging api ready", "listen", listenAddr, "limit", limit)

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}
	logger.Info("fake tagging api stopped")
}
