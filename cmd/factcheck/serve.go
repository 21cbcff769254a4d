package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"kaeva-factcheck/internal/worker"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API (and embedded workers unless disabled)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
		}

		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		var wg sync.WaitGroup
		if cfg.Worker.Embedded {
			startBackground(ctx, &wg, a)
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           a.handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			zap.L().Info("http server listening",
				zap.Int("port", cfg.Server.Port),
				zap.String("store", cfg.Store.Driver),
				zap.String("queue", cfg.Queue.Driver),
				zap.Bool("embedded_workers", cfg.Worker.Embedded),
			)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- eris.Wrap(err, "server listen")
			}
			close(errCh)
		}()

		select {
		case <-ctx.Done():
		case err := <-errCh:
			if err != nil {
				stop()
				wg.Wait()
				return err
			}
		}

		zap.L().Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zap.L().Error("http shutdown", zap.Error(err))
		}

		wg.Wait()
		zap.L().Info("stopped")
		return nil
	},
}

// startBackground runs the worker pool and the expiry reaper until ctx is done.
func startBackground(ctx context.Context, wg *sync.WaitGroup, a *app) {
	processor := worker.NewProcessor(a.store, a.orchestrator(a.store))
	pool := worker.NewPool(a.queue, processor, a.cfg.Worker.Count, a.cfg.Worker.ClaimTimeout)
	reaper := worker.NewReaper(a.store, a.cfg.Store.SweepInterval)

	wg.Add(2)
	go func() {
		defer wg.Done()
		pool.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		reaper.Run(ctx)
	}()
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "HTTP listen port (overrides server.port)")
	rootCmd.AddCommand(serveCmd)
}
