// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdf2md/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the conversion facade over HTTP",
	Long: `Serve exposes POST /convert (raw PDF body, multipart "file" upload, or
JSON {"data": "<base64>"}), GET /health and GET /version. Another pdf2md
instance can use it as its "remote" engine.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}

		facade := newFacade(cfg)
		handler := server.New(facade, cfg.Server.CORSOrigins, logger,
			server.WithToken(cfg.Server.Token),
			server.WithMaxBodyBytes(cfg.Facade.MaxInputBytes),
		)
		srv := &http.Server{
			Addr:        cfg.Server.Addr,
			Handler:     handler,
			ReadTimeout: cfg.Server.ReadTimeout,
			IdleTimeout: 60 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		logger.Info("server starting", "addr", cfg.Server.Addr, "engines", cfg.Facade.Engine.Candidates, "auth", cfg.Server.Token != "")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")

	rootCmd.AddCommand(serveCmd)
}
