package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sumoql/sumoql/internal/db"
	"github.com/sumoql/sumoql/internal/pipeline"
	"github.com/sumoql/sumoql/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the pipeline over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cobraCmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cobraCmd)
		if err != nil {
			return err
		}
		if cobraCmd.Flags().Changed("addr") {
			cfg.Server.Address = serveAddr
		}
		logger := newLogger(cfg.Log)

		conn, err := db.Open(cfg.Database)
		if err != nil {
			return err
		}
		defer conn.Close()

		sqlClient, answerClient, err := newClients(cobraCmd.Context(), cfg.Model)
		if err != nil {
			return err
		}

		pipe := pipeline.New(conn, sqlClient, answerClient, logger, pipeline.Options{
			ReadOnly: cfg.Database.ReadOnly,
		})

		srv := &http.Server{
			Addr:         cfg.Server.Address,
			Handler:      server.New(conn, pipe, logger).Router(),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}

		ctx, stop := signal.NotifyContext(cobraCmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			logger.Info("listening", "addr", cfg.Server.Address, "driver", cfg.Database.Driver)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address, for example :8080")
	rootCmd.AddCommand(serveCmd)
}
