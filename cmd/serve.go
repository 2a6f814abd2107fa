package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/abhisek/lingua/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			a.cfg.Server.Addr = addr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		sched, err := startMaintenance(a)
		if err != nil {
			return err
		}
		defer func() { <-sched.Stop().Done() }()

		srv := &http.Server{
			Addr:         a.cfg.Server.Addr,
			Handler:      api.NewHandler(a.engine, a.evaluator, a.log).Router(),
			ReadTimeout:  a.cfg.Server.ReadTimeout,
			WriteTimeout: a.cfg.Server.WriteTimeout,
		}

		errCh := make(chan error, 1)
		go func() {
			a.log.Info("starting server", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case <-ctx.Done():
			a.log.Info("shutting down server")
		case err := <-errCh:
			if err != nil {
				return err
			}
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.log.Error("server shutdown failed", "error", err)
			return err
		}
		a.log.Info("server stopped")
		return nil
	},
}

// startMaintenance schedules pruning of old LLM events. A zero retention
// keeps events forever.
func startMaintenance(a *application) (*cron.Cron, error) {
	c := cron.New()
	m := a.cfg.Maintenance
	if m.Schedule != "" && m.EventRetention > 0 {
		_, err := c.AddFunc(m.Schedule, func() {
			cutoff := time.Now().Add(-m.EventRetention)
			n, err := a.store.Events().PruneLLMEvents(context.Background(), cutoff)
			if err != nil {
				a.log.Warn("prune llm events failed", "error", err)
				return
			}
			a.log.Info("pruned llm events", "deleted", n, "cutoff", cutoff)
		})
		if err != nil {
			return nil, err
		}
	}
	c.Start()
	return c, nil
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
}
