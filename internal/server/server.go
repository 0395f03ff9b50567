// Package server runs the long-lived parts of a kernel until the context
// is cancelled, then shuts them down gracefully.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shashiranjanraj/apotek/config"
	"github.com/shashiranjanraj/apotek/internal/kernel"
	"github.com/shashiranjanraj/apotek/pkg/logger"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

// Options selects what a process runs. serve enables everything.
type Options struct {
	HTTP      bool
	GRPC      bool
	Workers   int
	Scheduler bool
}

// All is what `apotek serve` runs.
func All() Options {
	return Options{HTTP: true, GRPC: true, Workers: config.QueueWorkers(), Scheduler: true}
}

// Run blocks until ctx is done or a component fails. The first failure
// cancels the others.
func Run(ctx context.Context, k *kernel.Kernel, opts Options) error {
	g, ctx := errgroup.WithContext(ctx)

	if opts.HTTP {
		handler, err := k.Handler()
		if err != nil {
			return err
		}
		srv := &http.Server{
			Addr:              ":" + config.AppPort(),
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
		g.Go(func() error { return serveHTTP(ctx, srv) })
	}

	if opts.GRPC {
		g.Go(func() error { return k.GRPC.ListenAndServe(ctx, config.GRPCPort()) })
		g.Go(func() error {
			k.GRPC.WatchReadiness(ctx, 10*time.Second, k.Ready)
			return nil
		})
	}

	if opts.Workers > 0 {
		g.Go(func() error {
			k.Queue.Work(ctx, opts.Workers)
			return nil
		})
	}

	if opts.Scheduler {
		g.Go(func() error {
			k.Scheduler.Start(ctx)
			return nil
		})
	}

	return g.Wait()
}

func serveHTTP(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server starting", "addr", srv.Addr, "env", config.AppEnv())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http: %w", err)
	case <-ctx.Done():
	}

	logger.Info("HTTP server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http: shutdown: %w", err)
	}
	return nil
}
