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

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"cryptoproxy/internal/coingecko"
	"cryptoproxy/internal/config"
	"cryptoproxy/internal/gateway"
	"cryptoproxy/internal/httpx"
	"cryptoproxy/internal/logging"
	"cryptoproxy/internal/ratelimit"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "server",
		Short:         "Serve the CoinGecko proxy API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(path)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			logger, err := logging.New(cfg.Logging, os.Stderr)
			if err != nil {
				return fmt.Errorf("logging: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, logger)
		},
	}
	cmd.Flags().String("config", os.Getenv("CONFIG_FILE"), "path to a YAML or JSON config file (optional)")
	return cmd
}

// newServer wires the upstream client, the gateway and its middleware.
func newServer(cfg config.Config, logger *logrus.Logger) (*http.Server, error) {
	if cfg.CoinGecko.APIKey == "" {
		logger.Info("COINGECKO_API_KEY not set; using the public rate limit")
	}

	httpClient := httpx.New(cfg.CoinGecko.Timeout())
	upstream, err := coingecko.NewClient(
		coingecko.WithBaseURL(cfg.CoinGecko.BaseURL),
		coingecko.WithHTTPClient(httpClient),
		coingecko.WithTimeout(cfg.CoinGecko.Timeout()),
		coingecko.WithRetry(cfg.CoinGecko.RetryAttempts, cfg.CoinGecko.RetryDelay()),
		coingecko.WithAPIKey(cfg.CoinGecko.APIKey),
		coingecko.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("coingecko client: %w", err)
	}

	h := gateway.New(upstream, gateway.WithDebug(cfg.Server.Debug), gateway.WithLogger(logger))
	rc := gateway.RouterConfig{CORSOrigins: cfg.Server.CORSOrigins}
	if cfg.Server.RateLimitPerMinute > 0 {
		rc.Limiter = ratelimit.PerMinute(cfg.Server.RateLimitPerMinute)
	}

	// Worst case for one request is every attempt timing out plus the pauses.
	attempts := time.Duration(cfg.CoinGecko.RetryAttempts)
	upstreamBudget := attempts*cfg.CoinGecko.Timeout() + (attempts-1)*cfg.CoinGecko.RetryDelay()

	return &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           gateway.NewRouter(h, rc),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      upstreamBudget + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}, nil
}

// run serves until ctx is done, then drains in-flight requests.
func run(ctx context.Context, cfg config.Config, logger *logrus.Logger) error {
	srv, err := newServer(cfg, logger)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"addr":  srv.Addr,
			"debug": cfg.Server.Debug,
		}).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
