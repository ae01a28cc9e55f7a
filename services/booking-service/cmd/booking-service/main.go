package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/md-rashed-zaman/sharebook/libs/auth"
	"github.com/md-rashed-zaman/sharebook/libs/config"
	"github.com/md-rashed-zaman/sharebook/libs/db"
	"github.com/md-rashed-zaman/sharebook/libs/httpx"
	"github.com/md-rashed-zaman/sharebook/libs/kafkax"
	otelx "github.com/md-rashed-zaman/sharebook/libs/otel"
	"github.com/md-rashed-zaman/sharebook/libs/runtime"
	"github.com/md-rashed-zaman/sharebook/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/sharebook/services/booking-service/internal/handlers"
	"github.com/md-rashed-zaman/sharebook/services/booking-service/internal/metrics"
	"github.com/md-rashed-zaman/sharebook/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/sharebook/services/booking-service/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	_ = config.LoadDotEnv(".env")
	service := config.String("SERVICE_NAME", "booking-service")
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	if err := run(ctx, service, logger); err != nil {
		logger.Error("booking-service exited", "err", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, service string, logger *slog.Logger) error {
	port, err := config.Port("PORT", "8083")
	if err != nil {
		return err
	}
	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		return err
	}
	workday, err := workdayFromEnv()
	if err != nil {
		return err
	}

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	pool, err := db.Open(ctx, dbURL, db.Options{
		MaxConns: int32(config.Int("DB_MAX_CONNS", 10)),
	})
	if err != nil {
		return fmt.Errorf("db connection failed: %w", err)
	}
	defer pool.Close()

	outboxRepo := outbox.NewRepository()
	store := storage.NewStore(pool, outboxRepo)

	brokers := config.String("KAFKA_BROKERS", "")
	publisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   brokers,
		PollEvery: config.Duration("OUTBOX_POLL_INTERVAL", 2*time.Second),
		BatchSize: config.Int("OUTBOX_BATCH_SIZE", 50),
	})
	go publisher.Run(ctx)

	checks := []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(pool)}}
	if publisher.Enabled() {
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers), Optional: true})
	}

	limitPerMinute := config.Int("RATE_LIMIT_PER_MINUTE", 60)
	var rateLimitMW httpx.Middleware
	if redisURL := config.String("REDIS_URL", ""); redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			return fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opts)
		defer func() { _ = rdb.Close() }()

		rl := httpx.NewRedisRateLimiter(rdb, limitPerMinute, time.Minute, config.String("RATE_LIMIT_PREFIX", "sharebook:rl"), nil)
		rateLimitMW = rl.Middleware(logger, config.Bool("RATE_LIMIT_FAIL_OPEN", true))
		checks = append(checks, runtime.ReadyCheck{
			Name:     "redis",
			Check:    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
			Optional: true,
		})
		logger.Info("rate limiting enabled (redis)", "per_minute", limitPerMinute)
	} else {
		rateLimitMW = httpx.NewRateLimiter(limitPerMinute, time.Minute, nil).Middleware()
		logger.Info("rate limiting enabled (in-memory)", "per_minute", limitPerMinute)
	}

	verifier := auth.Verifier{Secret: config.String("AUTH_JWT_SECRET", "")}
	if jwksURL := config.String("AUTH_JWKS_URL", ""); jwksURL != "" {
		verifier.JWKS = auth.NewJWKSClient(jwksURL, config.Duration("AUTH_JWKS_TTL", 5*time.Minute))
	}
	if verifier.Secret == "" && verifier.JWKS == nil {
		logger.Warn("no AUTH_JWT_SECRET or AUTH_JWKS_URL configured; staff routes will reject every request")
	}

	bookingMetrics := metrics.NewBookingMetrics(prometheus.DefaultRegisterer)
	bookings := booking.NewService(store)

	mux := runtime.NewBaseMuxWithReady(checks...)
	registerRoutes(mux, routeDeps{
		public: handlers.NewPublicHandler(bookings, store, bookingMetrics, logger, handlers.PublicConfig{
			Workday:     workday,
			StepMinutes: config.Int("SLOT_STEP_MINUTES", 15),
		}),
		admin:     handlers.NewAdminHandler(store, logger),
		verifier:  verifier,
		rateLimit: rateLimitMW,
	})

	handler := httpx.Chain(mux,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: config.List("CORS_ALLOWED_ORIGINS", ""),
			AllowedMethods: config.List("CORS_ALLOWED_METHODS", "GET,POST,OPTIONS"),
			AllowedHeaders: config.List("CORS_ALLOWED_HEADERS", "Authorization,Content-Type,X-Request-Id"),
			ExposedHeaders: []string{httpx.RequestIDHeader},
			MaxAge:         config.Duration("CORS_MAX_AGE", 10*time.Minute),
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(int64(config.Int("REQUEST_BODY_LIMIT_BYTES", 64<<10))),
		httpx.WithTimeout(config.Duration("REQUEST_TIMEOUT", 10*time.Second)),
	)
	handler = otelhttp.NewHandler(handler, "booking")

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return runtime.Serve(ctx, srv, logger, 10*time.Second)
}

// workdayFromEnv reads the window the public slot listing offers.
func workdayFromEnv() (booking.Interval, error) {
	start, err := booking.ParseClock(strings.TrimSpace(config.String("WORKDAY_START", "09:00")))
	if err != nil {
		return booking.Interval{}, fmt.Errorf("invalid WORKDAY_START: %w", err)
	}
	end, err := booking.ParseClock(strings.TrimSpace(config.String("WORKDAY_END", "17:00")))
	if err != nil {
		return booking.Interval{}, fmt.Errorf("invalid WORKDAY_END: %w", err)
	}
	if end <= start {
		return booking.Interval{}, fmt.Errorf("WORKDAY_END %s must be after WORKDAY_START %s", booking.FormatClock(end), booking.FormatClock(start))
	}
	return booking.Interval{Start: start, End: end}, nil
}
