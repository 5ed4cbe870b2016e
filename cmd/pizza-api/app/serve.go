package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"

	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/api"
	v1 "github.com/prasnshabrainerhub/pizza-ordering-system/internal/api/v1"
	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/auth"
	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/config"
	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/db"
	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/notifications"
	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/payments"
	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/realtime"
	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/service"
	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/service/postgres"
	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/telemetry"
	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/tracking"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the pizza ordering API server",
	Long: `Start the pizza ordering API server.

The server requires a configuration file (--config) that specifies the
database connection, JWT signing secret, order tracking cadence, and
optionally the Stripe payment keys.`,
	RunE: runServe,
}

const (
	defaultGracefulTimeout = 30 * time.Second
	serverReadTimeout      = 10 * time.Second
	serverIdleTimeout      = 60 * time.Second
)

func init() {
	serveCmd.Flags().String("address", "", "Address to listen on (overrides config)")
	serveCmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")

	if err := viper.BindPFlag("address", serveCmd.Flags().Lookup("address")); err != nil {
		slog.Error("Failed to bind address flag", "error", err)
		os.Exit(1)
	}
	if err := viper.BindPFlag("config", serveCmd.Flags().Lookup("config")); err != nil {
		slog.Error("Failed to bind config flag", "error", err)
		os.Exit(1)
	}

	if err := serveCmd.MarkFlagRequired("config"); err != nil {
		slog.Error("Failed to mark config flag as required", "error", err)
		os.Exit(1)
	}
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	configPath := viper.GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	address := cfg.Address
	if override := viper.GetString("address"); override != "" {
		address = override
	}
	slog.Info("Starting pizza ordering API server", "address", address)

	pool, err := db.Connect(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	store := postgres.New(pool)

	secret, err := cfg.Auth.GetSecret()
	if err != nil {
		return fmt.Errorf("invalid auth configuration: %w", err)
	}
	tokens, err := auth.NewTokens(secret,
		cfg.Auth.GetAccessTokenTTL(), cfg.Auth.GetRefreshTokenTTL())
	if err != nil {
		return fmt.Errorf("failed to initialize token signer: %w", err)
	}

	meterProvider := otel.GetMeterProvider()
	trackingMetrics, err := telemetry.NewTrackingMetrics(meterProvider)
	if err != nil {
		return fmt.Errorf("failed to create tracking metrics: %w", err)
	}
	realtimeMetrics, err := telemetry.NewRealtimeMetrics(meterProvider)
	if err != nil {
		return fmt.Errorf("failed to create realtime metrics: %w", err)
	}

	registry := realtime.NewRegistry(realtime.WithRealtimeMetrics(realtimeMetrics))
	gateway := realtime.NewGateway(registry, tokens)

	stageInterval, err := cfg.Tracking.GetStageInterval()
	if err != nil {
		return fmt.Errorf("invalid tracking configuration: %w", err)
	}
	storeTimeout, err := cfg.Tracking.GetStoreTimeout()
	if err != nil {
		return fmt.Errorf("invalid tracking configuration: %w", err)
	}
	sequencer := tracking.NewSequencer(store, registry, stageInterval,
		tracking.WithStoreTimeout(storeTimeout),
		tracking.WithSequencerMetrics(trackingMetrics))
	supervisor := tracking.NewSupervisor(sequencer,
		tracking.WithSupervisorMetrics(trackingMetrics))

	checkout := service.NewOrders(store, store, store, store, notifications.NewLogNotifier())

	var paymentProvider payments.Provider
	if cfg.Payments != nil {
		stripeKey, err := cfg.Payments.GetSecretKey()
		if err != nil {
			return fmt.Errorf("invalid payments configuration: %w", err)
		}
		paymentProvider = payments.NewStripeProvider(stripeKey, cfg.Payments.GetWebhookSecret())
		slog.Info("Stripe payment provider configured")
	} else {
		slog.Info("Payments not configured, payment endpoints disabled")
	}

	router := api.NewServer(
		v1.Deps{
			Users:    store,
			Catalog:  store,
			Coupons:  store,
			Orders:   store,
			Checkout: checkout,
			Tokens:   tokens,
			Tracker:  supervisor,
			Payments: paymentProvider,
			PayStore: store,
		},
		api.WithMiddlewares(
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			api.LoggingMiddleware,
		),
		api.WithWebsocketHandler(gateway),
		api.WithReadinessChecker(pool.Ping),
	)

	server := &http.Server{
		Addr:        address,
		Handler:     router,
		ReadTimeout: serverReadTimeout,
		IdleTimeout: serverIdleTimeout,
		// No WriteTimeout: websocket connections stay open indefinitely.
	}

	go func() {
		slog.Info("Server listening", "address", address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultGracefulTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	// Stop in-flight order tracking, then drop websocket subscribers.
	supervisor.StopAll()
	registry.Close()

	slog.Info("Server shutdown complete")
	return nil
}
