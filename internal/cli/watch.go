package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nagsync/nagsync/internal/config"
	"github.com/nagsync/nagsync/internal/ctxlog"
	"github.com/nagsync/nagsync/internal/engine"
)

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Reconcile continuously",
	Long: `Reconcile once, then again whenever the manifest changes and on every
interval tick. Failed cycles are logged and retried on the next trigger.
Stops on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := manifestPath()
		if err != nil {
			return err
		}
		m, err := config.Load(path)
		if err != nil {
			return err
		}

		eng, err := newEngine()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx = commandContext(ctx, m)

		return runWatch(ctx, eng, path, m, watchInterval)
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "Reconcile interval (default from manifest)")
}

// runWatch drives reconciliation until ctx is done.
func runWatch(ctx context.Context, eng *engine.Engine, path string, m *config.Manifest, interval time.Duration) error {
	logger := ctxlog.FromContext(ctx)
	baseDir := filepath.Dir(path)

	changes := make(chan *config.Manifest, 1)
	watchErr := make(chan error, 1)
	go func() {
		watchErr <- config.Watch(ctx, path, func(next *config.Manifest) {
			// Keep only the newest manifest if a cycle is still running.
			select {
			case <-changes:
			default:
			}
			changes <- next
		})
	}()

	every := func(m *config.Manifest) time.Duration {
		if interval > 0 {
			return interval
		}
		return m.Interval
	}

	cycle := func(m *config.Manifest) {
		_, err := eng.Reconcile(ctx, &engine.ReconcileRequest{Manifest: m, BaseDir: baseDir})
		switch {
		case err == nil:
		case errors.Is(err, engine.ErrNotConverged), errors.Is(err, engine.ErrNotify):
			logger.Warn("cycle did not converge", "err", err)
		default:
			logger.Error("cycle failed", "err", err)
		}
	}

	cycle(m)
	ticker := time.NewTicker(every(m))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("watch stopped")
			return nil
		case err := <-watchErr:
			if err != nil {
				return err
			}
			return nil
		case next := <-changes:
			m = next
			ticker.Reset(every(m))
			logger.Info("manifest changed, reconciling", slog.Duration("interval", every(m)))
			cycle(m)
		case <-ticker.C:
			cycle(m)
		}
	}
}
