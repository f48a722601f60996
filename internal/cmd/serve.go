package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lunfardo314/widgetfl/internal/api"
	"github.com/lunfardo314/widgetfl/util/scheduler"
	"github.com/spf13/cobra"
)

var (
	serveAddr       string
	serveStatsEvery time.Duration
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the formula API over HTTP",
	Long: `Serve the formula API used by the dashboard editor:

  GET  /health
  GET  /helpers
  POST /formulas/validate   {"formula": "..."}
  POST /formulas/evaluate   {"formula": "...", "value": 21.5, "fallback": null}`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address, overrides server.addr of the config")
	serveCmd.Flags().DurationVar(&serveStatsEvery, "stats-every", time.Minute, "Period of cache statistics in the log, 0 disables")
}

func runServe(_ *cobra.Command, _ []string) error {
	addr := env.cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.New(env.cache, env.log).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sched := scheduler.New()
	defer sched.Stop()
	if serveStatsEvery > 0 {
		sched.Every(serveStatsEvery, false, func() {
			st := env.cache.Stats()
			env.log.Infof("formula cache: entries %d, hits %d, misses %d, evictions %d, fallbacks %d",
				st.Entries, st.Hits, st.Misses, st.Evictions, st.Fallbacks)
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		env.log.Infof("formula API listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	env.log.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
