package main

import (
	"os/signal"
	"sync"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	recoverStale bool
	workerCount  int
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run standalone workers against the shared redis queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Queue.Driver != "redis" {
			return eris.New("standalone workers need queue.driver=redis")
		}
		if cfg.Store.Driver == "memory" {
			return eris.New("standalone workers need a shared job store (redis, postgres or sqlite)")
		}
		if cmd.Flags().Changed("workers") {
			cfg.Worker.Count = workerCount
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		if recoverStale {
			// ids left in the processing list by a crashed worker
			n, err := a.queue.RequeueStale(ctx, 1000)
			if err != nil {
				return eris.Wrap(err, "requeue stale jobs")
			}
			zap.L().Info("requeued stale jobs", zap.Int64("count", n))
		}

		var wg sync.WaitGroup
		startBackground(ctx, &wg, a)
		<-ctx.Done()
		zap.L().Info("shutting down workers")
		wg.Wait()
		return nil
	},
}

func init() {
	workerCmd.Flags().BoolVar(&recoverStale, "recover-stale", false, "move ids left in the processing list back onto the queue at startup")
	workerCmd.Flags().IntVar(&workerCount, "workers", 4, "number of concurrent workers (overrides worker.count)")
	rootCmd.AddCommand(workerCmd)
}
