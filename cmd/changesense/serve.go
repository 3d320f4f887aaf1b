package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/changesense/internal/api"
	"github.com/dgallion1/changesense/internal/config"
	"github.com/dgallion1/changesense/internal/enrich"
	"github.com/dgallion1/changesense/internal/pipeline"
	"github.com/dgallion1/changesense/internal/runstore"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the comparison API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runs, err := runstore.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer runs.Close()

	var provider enrich.Provider
	var gemini *enrich.GeminiProvider
	if cfg.AIEnabled {
		gemini = enrich.NewGeminiProvider(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.EnrichTimeout)
		provider = gemini
	}

	orch := pipeline.NewOrchestrator(cfg, provider, runs, log)
	orch.Start(ctx)

	srv := api.NewServer(orch, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		if gemini != nil {
			gemini.Close()
		}
	}()

	log.Info("starting changesense", "port", cfg.Port, "ai_enabled", cfg.AIEnabled)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
