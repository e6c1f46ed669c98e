// Package main is the entry point for the gateway binary. It assembles the
// request-integrity pipeline in front of the activity and analytics services
// and serves the GraphQL endpoint.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pulsefit/gateway/internal/governance"
	"github.com/pulsefit/gateway/pkg/config"
	"github.com/pulsefit/gateway/pkg/downstream"
	"github.com/pulsefit/gateway/pkg/gateway"
	"github.com/pulsefit/gateway/pkg/logging"
	"github.com/pulsefit/gateway/pkg/telemetry"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd creates the root command for the gateway
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gateway",
		Short: "Request-integrity gateway for the fitness tracking API",
		Long: `A GraphQL gateway that sanitizes, validates and budget-checks every
request before it reaches the activity and analytics services.

Example:
  gateway --config gateway.yaml --listen :8080`,
		RunE: runGateway,
	}

	rootCmd.Flags().StringP("config", "c", "", "Path to configuration file (YAML)")
	rootCmd.Flags().String("listen", "", "Listen address (overrides config)")
	rootCmd.Flags().StringP("log-level", "l", "", "Log level (debug, info, warn, error)")
	rootCmd.Flags().Bool("pretty", false, "Human-readable log output")

	return rootCmd
}

func runGateway(cmd *cobra.Command, _ []string) error {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		cfg.Server.Address = listen
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if pretty, _ := cmd.Flags().GetBool("pretty"); pretty {
		cfg.Logging.Pretty = true
	}

	log := logging.Setup(logging.Config{Level: cfg.Logging.Level, Pretty: cfg.Logging.Pretty})
	return run(cmd.Context(), cfg, configPath, log)
}

func run(ctx context.Context, cfg *config.Config, configPath string, log zerolog.Logger) error {
	metrics := telemetry.NewMetrics()

	admitter, cleanup, err := newAdmitter(cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	activity, err := downstream.NewActivity(cfg.Downstream.ActivityURL, cfg.Downstream.Timeout.Std())
	if err != nil {
		return fmt.Errorf("activity client: %w", err)
	}
	analytics, err := downstream.NewAnalytics(cfg.Downstream.AnalyticsURL, cfg.Downstream.Timeout.Std())
	if err != nil {
		return fmt.Errorf("analytics client: %w", err)
	}

	retry := governance.NewRetryer(governance.RetryPolicy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay.Std(),
		MaxDelay:    cfg.Retry.MaxDelay.Std(),
		Jitter:      cfg.Retry.Jitter,
	})
	retry.OnRetry = func(attempt int, delay time.Duration, err error) {
		metrics.RecordRetry()
		log.Warn().Int("attempt", attempt).Dur("delay", delay).Err(err).
			Msg("retrying downstream call")
	}

	if mem, ok := admitter.(*governance.MemoryAdmitter); ok {
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					metrics.SetRateIdentities(mem.Size())
				}
			}
		}()
	}

	pipeline := gateway.NewPipeline(admitter, nil, limitsFrom(cfg))
	resolver := gateway.NewResolver(activity, analytics, retry)
	handler := gateway.NewHandler(pipeline, resolver, metrics, log)

	// Limits follow the config file without a restart; rate limit and
	// downstream changes still need one.
	var watcher *config.Watcher
	if configPath != "" {
		watcher, err = config.Watch(configPath, log, func(next *config.Config) {
			pipeline.SetLimits(limitsFrom(next))
		})
		if err != nil {
			log.Warn().Err(err).Msg("config watcher disabled")
		} else {
			defer watcher.Close()
		}
	}

	mux := http.NewServeMux()
	mux.Handle("/graphql", handler)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	server := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Address).Msg("gateway listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

// newAdmitter selects the rate limit store: Redis when an address is
// configured so multiple gateway instances share windows, in-process
// otherwise.
func newAdmitter(cfg *config.Config, log zerolog.Logger) (governance.Admitter, func(), error) {
	window := governance.WindowConfig{
		Window: cfg.RateLimit.Window.Std(),
		Cap:    cfg.RateLimit.Cap,
	}
	if cfg.RateLimit.RedisAddr == "" {
		return governance.NewMemoryAdmitter(window, nil), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RateLimit.RedisAddr})
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("redis at %s unreachable: %w", cfg.RateLimit.RedisAddr, err)
	}
	log.Info().Str("addr", cfg.RateLimit.RedisAddr).Msg("using shared rate limit store")
	return governance.NewRedisAdmitter(client, window), func() { client.Close() }, nil
}

func limitsFrom(cfg *config.Config) gateway.Limits {
	return gateway.Limits{
		MaxComplexity: cfg.Limits.MaxComplexity,
		MaxDepth:      cfg.Limits.MaxDepth,
		ListFactor:    cfg.Limits.ListFactor,
	}
}
