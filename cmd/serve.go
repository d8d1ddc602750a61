package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Lumos-Labs-HQ/datagen/internal/api"
	"github.com/Lumos-Labs-HQ/datagen/internal/generator"
	"github.com/Lumos-Labs-HQ/datagen/internal/service"
	"github.com/Lumos-Labs-HQ/datagen/internal/store"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dataset platform API",
	Long: `
Start the HTTP API: account registration, schema and dataset management,
generation previews and the API-key protected data endpoint.

Storage is selected by storage.provider in datagen.config.json
(memory, bolt or mongodb). When the REDIS_URL environment variable is set,
rate-limit counters are shared through Redis.

Examples:
  datagen serve
  datagen serve --port 8080`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if port, _ := cmd.Flags().GetInt("port"); port > 0 {
			cfg.Server.Port = port
		}
		if err := cfg.EnsureDirectories(); err != nil {
			return fmt.Errorf("failed to create directories: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		st, err := store.Open(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}
		defer st.Close()

		svc := service.New(st, generator.NewDefault(), cfg)
		server, err := api.NewServer(svc, cfg, api.Options{})
		if err != nil {
			return fmt.Errorf("failed to create server: %w", err)
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start()
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		log.Printf("[SERVER] Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		log.Printf("[SERVER] Stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 0, "Port to listen on (overrides server.port)")
}
