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
	"github.com/spf13/viper"
	"github.com/spigell/resume-coach/internal/api"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the interview over HTTP",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "address to listen on (default :8080)")
	viper.BindPFlag("listen", serveCmd.Flags().Lookup("listen"))
}

func serve() {
	logger, config := setup()
	defer logger.Sync()

	logger.Info("starting the resume-coach server", zap.String("version", resolveVersion()))

	repo := openStore(config, logger)
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error("closing the database", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := repo.Ping(ctx); err != nil {
		logger.Fatal("database health check failed", zap.Error(err))
	}

	orchestrator := newOrchestrator(ctx, config, repo, logger)
	handler := api.NewHandler(orchestrator, repo, repo, logger)

	// Turns wait on generation, so the write timeout covers every generation call of a turn.
	srv := &http.Server{
		Addr:         config.Listen,
		Handler:      api.NewRouter(handler),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: writeTimeout(orchestrator.GenerationTimeout()),
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", zap.Error(err))
			return
		}
	}
	stop()

	logger.Info("shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		return
	}

	logger.Info("server stopped")
}

// writeTimeout covers a merge and a phrasing call plus persistence of one turn.
func writeTimeout(generation time.Duration) time.Duration {
	return 4*generation + 30*time.Second
}
