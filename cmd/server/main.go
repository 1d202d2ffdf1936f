package main

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

	"connectrpc.com/connect"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/tontine/internal/auth"
	"github.com/mmynk/tontine/internal/config"
	"github.com/mmynk/tontine/internal/engine"
	"github.com/mmynk/tontine/internal/lock"
	"github.com/mmynk/tontine/internal/metrics"
	"github.com/mmynk/tontine/internal/middleware"
	"github.com/mmynk/tontine/internal/notify"
	"github.com/mmynk/tontine/internal/service"
	"github.com/mmynk/tontine/internal/storage/sqlite"
	"github.com/mmynk/tontine/internal/wallet"
	"github.com/mmynk/tontine/pkg/api/apiconnect"
	"github.com/mmynk/tontine/pkg/logging"
)

const tokenDuration = 24 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize SQLite storage
	store, err := sqlite.New(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	logger.Info("Storage initialized", "database", cfg.DBPath)

	ledger, err := wallet.NewLedger(ctx, store.DB())
	if err != nil {
		return fmt.Errorf("failed to initialize wallet ledger: %w", err)
	}

	locker, closeLocker, err := newLocker(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLocker()
	logger.Info("Group locks initialized", "backend", cfg.LockBackend)

	defaults, err := cfg.Fees()
	if err != nil {
		return err
	}
	feeSettings := service.FeeSettings{Source: config.StaticFees{Schedule: defaults}, Operators: cfg.OperatorIDs}
	if cfg.FeeCacheTTL > 0 {
		feeSettings.Source = config.NewSettingsFees(store, defaults, cfg.FeeCacheTTL)
		feeSettings.Settings = store
	}
	logger.Info("Fee policy initialized",
		"transaction_percent", defaults.Transaction,
		"distribution_percent", defaults.Distribution,
		"runtime_overrides", feeSettings.Settings != nil,
	)

	collector := metrics.NewCollector("tontine")
	notifier, hub := newNotifier(logger)

	eng, err := engine.New(engine.Deps{
		Store:         store,
		Wallet:        ledger,
		Locker:        locker,
		Fees:          feeSettings.Source,
		Notifier:      notifier,
		Metrics:       collector,
		Logger:        logger,
		WalletTimeout: cfg.WalletTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, tokenDuration)
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, collector)

	mux := http.NewServeMux()

	// Register Connect services
	path, handler := apiconnect.NewTontineServiceHandler(
		service.NewTontineService(eng, feeSettings),
		connect.WithInterceptors(
			middleware.RequireAuth(jwtManager),
			middleware.LoggingInterceptor(logger),
			limiter.Interceptor(),
		),
	)
	mux.Handle(path, handler)
	mux.Handle("/metrics", collector.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := store.DB().PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	// Add logging and CORS middleware
	loggedHandler := loggingMiddleware(logger, corsMiddleware(mux))

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h2c.NewHandler(loggedHandler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Connect server starting", "address", server.Addr, "url", "http://localhost"+server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down", "events_dropped", hub.Dropped())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.WalletTimeout+5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// newNotifier logs every event and publishes it on a hub for in-process
// subscribers.
func newNotifier(logger *slog.Logger) (notify.Notifier, *notify.Hub) {
	hub := notify.NewHub()
	return notify.Multi{notify.LogNotifier{Logger: logger}, hub}, hub
}

func newLocker(ctx context.Context, cfg config.Config) (lock.Locker, func(), error) {
	if cfg.LockBackend != config.LockRedis {
		return lock.NewKeyedMutex(), func() {}, nil
	}
	rl := lock.NewRedisLocker(cfg.RedisAddr, cfg.RedisPassword, 0, cfg.LockTTL)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rl.Ping(pingCtx); err != nil {
		rl.Close()
		return nil, nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.RedisAddr, err)
	}
	return rl, func() { rl.Close() }, nil
}

// loggingMiddleware logs all incoming requests
func loggingMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		logger.Debug("Request received",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		)

		next.ServeHTTP(w, r)

		logger.Debug("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms, "+service.ErrorCodeHeader)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
