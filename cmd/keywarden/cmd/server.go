package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/jmcleod/keywarden/api"
	"github.com/jmcleod/keywarden/storage"
	bboltstorage "github.com/jmcleod/keywarden/storage/bbolt"
	memorystorage "github.com/jmcleod/keywarden/storage/memory"
	postgresstorage "github.com/jmcleod/keywarden/storage/postgres"
)

var (
	serverAddr    string
	serverBackend string
	serverDataDir string
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the verification server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := api.LoadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			cfg.Addr = serverAddr
		}
		if cmd.Flags().Changed("backend") {
			cfg.Backend = serverBackend
		}
		if cmd.Flags().Changed("data-dir") {
			cfg.DataDir = serverDataDir
		}

		repo, cleanup, err := openRepository(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		a := api.New(repo, cfg)

		r := chi.NewRouter()
		r.Use(middleware.Logger)
		r.Use(middleware.Recoverer)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		r.Mount("/api/v1", a.Router())

		server := &http.Server{
			Addr:              cfg.Addr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		// Graceful shutdown on SIGINT/SIGTERM.
		done := make(chan error, 1)
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				done <- fmt.Errorf("server failed: %w", err)
				return
			}
			done <- nil
		}()

		fmt.Printf("Starting server on %s (backend: %s)...\n", cfg.Addr, cfg.Backend)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			fmt.Printf("\nReceived %s, shutting down...\n", sig)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("server shutdown failed: %w", err)
			}
			return nil
		case err := <-done:
			return err
		}
	},
}

func openRepository(ctx context.Context, cfg api.Config) (storage.Repository, func(), error) {
	switch cfg.Backend {
	case "memory":
		return memorystorage.NewRepository(), func() {}, nil
	case "bbolt":
		if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
			return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		repo, err := bboltstorage.NewRepositoryFromFile(cfg.DataDir+"/keywarden.db", nil)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open account storage: %w", err)
		}
		return repo, func() { repo.Close() }, nil
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, nil, fmt.Errorf("postgres backend requires KEYWARDEN_POSTGRES_DSN")
		}
		repo, err := postgresstorage.NewRepositoryFromDSN(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return repo, func() { repo.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.Flags().StringVar(&serverAddr, "addr", ":8465", "Address to listen on")
	serverCmd.Flags().StringVar(&serverBackend, "backend", "bbolt", "Storage backend (memory, bbolt, postgres)")
	serverCmd.Flags().StringVar(&serverDataDir, "data-dir", "./data", "Directory for persistent data")
}
