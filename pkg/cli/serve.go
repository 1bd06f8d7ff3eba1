package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	httpctrl "github.com/mnemo-chat/mnemo/pkg/controller/http"
	"github.com/mnemo-chat/mnemo/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var requesterHeader string
	var shutdownTimeout time.Duration
	var core coreConfig

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("MNEMO_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "requester-header",
			Usage:       "Header carrying the authenticated user ID set by the upstream gateway",
			Value:       httpctrl.DefaultRequesterHeader,
			Sources:     cli.EnvVars("MNEMO_REQUESTER_HEADER"),
			Destination: &requesterHeader,
		},
		&cli.DurationFlag{
			Name:        "shutdown-timeout",
			Usage:       "Time allowed for in-flight requests on shutdown",
			Value:       10 * time.Second,
			Sources:     cli.EnvVars("MNEMO_SHUTDOWN_TIMEOUT"),
			Destination: &shutdownTimeout,
		},
	}
	flags = append(flags, core.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Serve tag, memory, prompt and cascade endpoints over HTTP",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, repo, err := core.Configure(ctx)
			if err != nil {
				return err
			}
			defer closeRepository(repo)

			httpHandler, err := httpctrl.New(uc, httpctrl.WithRequesterHeader(requesterHeader))
			if err != nil {
				return goerr.Wrap(err, "failed to create http server")
			}
			server := &http.Server{
				Addr:              addr,
				Handler:           httpHandler,
				ReadHeaderTimeout: 30 * time.Second,
			}

			sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("mnemo listening", "addr", addr, "requester_header", requesterHeader)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- goerr.Wrap(err, "http server stopped", goerr.V("addr", addr))
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-sigCtx.Done():
			}

			logging.Default().Info("shutting down", "timeout", shutdownTimeout)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "graceful shutdown failed")
			}
			return <-errCh
		},
	}
}
