package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/cli/config"
	httpctrl "github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/controller/http"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/metrics"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/service/pager"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/service/scheduler"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/service/worker"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/usecase"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/utils/logging"
)

func cmdServe(version string) *cli.Command {
	var addr string
	var slaInterval time.Duration
	var repoCfg config.Repository
	var policyCfg config.Policy
	var notifyCfg config.Notify
	var sentryCfg config.Sentry
	var exportCfg config.Export

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("PHOENIX_GUARDIAN_ADDR"),
			Destination: &addr,
		},
		&cli.DurationFlag{
			Name:        "sla-check-interval",
			Usage:       "Interval between SLA deadline sweeps",
			Value:       time.Minute,
			Sources:     cli.EnvVars("PHOENIX_GUARDIAN_SLA_CHECK_INTERVAL"),
			Destination: &slaInterval,
		},
	}
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, policyCfg.Flags()...)
	flags = append(flags, notifyCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)
	flags = append(flags, exportCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			flush, err := sentryCfg.Configure(version)
			if err != nil {
				return goerr.Wrap(err, "failed to configure sentry")
			}
			defer flush()

			if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
				return goerr.Wrap(err, "failed to register metrics")
			}

			slaCfg, policies, schedule, err := policyCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load escalation configuration")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			router, err := notifyCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure notification transports")
			}

			exporter, err := exportCfg.Configure(ctx, repo)
			if err != nil {
				return goerr.Wrap(err, "failed to configure audit export")
			}
			if exporter != nil {
				defer func() {
					if err := exporter.Close(); err != nil {
						logging.Default().Error("failed to close exporter", "error", err.Error())
					}
				}()
			}

			sched := scheduler.New()
			sched.Start(ctx)
			defer sched.Stop()

			ucOpts := []usecase.Option{
				usecase.WithSLAConfig(slaCfg),
				usecase.WithScheduler(sched),
			}
			if exporter != nil {
				ucOpts = append(ucOpts, usecase.WithAuditExporter(exporter))
			}
			uc := usecase.New(repo, ucOpts...)

			engine := pager.New(repo, router, schedule, policies, sched, uc.Locks())
			uc.SetPager(engine)

			slaWorker := worker.NewSLAMonitorWorker(repo, uc.Incident, slaInterval)
			if err := slaWorker.Start(ctx); err != nil {
				return goerr.Wrap(err, "failed to start SLA monitor worker")
			}

			httpHandler := httpctrl.New(uc,
				httpctrl.WithPager(engine),
				httpctrl.WithMetrics(true),
			)
			server := &http.Server{
				Addr:              addr,
				Handler:           httpHandler,
				ReadHeaderTimeout: 30 * time.Second,
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				slaWorker.Stop()
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				slaWorker.Stop()

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
