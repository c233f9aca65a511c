package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"cardcap/internal/artserver"
	"cardcap/internal/config"
	"cardcap/internal/logging"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the image directory over HTTP for the renderer and the http storage backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			if bind == "" {
				bind = cfg.Server.Bind
			}
			root, err := config.ExpandPath(cfg.Server.Root)
			if err != nil {
				return err
			}
			if cfg.Logging.Level != "debug" {
				gin.SetMode(gin.ReleaseMode)
			}
			srv, err := artserver.New(root, cfg.Server.Secret, logger)
			if err != nil {
				return err
			}

			httpServer := &http.Server{
				Addr:              bind,
				Handler:           srv.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- httpServer.ListenAndServe() }()
			logger.Info("art server listening",
				logging.String("bind", bind),
				logging.String("root", root),
				logging.Bool("secret_required", cfg.Server.Secret != ""),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on http://%s\n", root, bind)

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-runCtx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (defaults to server.bind)")
	return cmd
}
