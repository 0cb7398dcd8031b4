package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"

	httptransport "github.com/herobudget/notification-service/internal/api/http"
	"github.com/herobudget/notification-service/internal/api/http/handlers"
	"github.com/herobudget/notification-service/internal/config"
	"github.com/herobudget/notification-service/internal/events"
	"github.com/herobudget/notification-service/internal/mailer"
	"github.com/herobudget/notification-service/internal/observability"
	"github.com/herobudget/notification-service/internal/persistence"
	"github.com/herobudget/notification-service/internal/ratelimit"
	"github.com/herobudget/notification-service/internal/render"
	"github.com/herobudget/notification-service/internal/service"
	"github.com/herobudget/notification-service/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)
	worker.StartNotificationWorker(dispatcher, logger, metrics)

	if missing := cfg.MailIssues(); len(missing) > 0 {
		logger.Warn("mail configuration incomplete", zap.Strings("missing", missing))
	}

	renderer, err := render.NewRenderer(render.Options{
		DisplayName: cfg.Notification.DisplayName,
		PublicURL:   cfg.Notification.PublicURL,
		SupportURL:  cfg.Notification.SupportURL(),
		Location:    cfg.Notification.Location(),
	})
	if err != nil {
		logger.Fatal("failed to load templates", zap.Error(err))
	}

	deps := service.NotificationDependencies{
		Renderer: renderer,
		Events:   dispatcher,
		Logger:   logger,
	}
	if sender, err := mailer.NewDispatcher(cfg.Mail, cfg.Notification.DisplayName, logger.Named("mailer")); err != nil {
		deps.SenderErr = err
	} else {
		deps.Sender = sender
	}
	notificationService := service.NewNotificationService(deps, cfg.Notification)

	app := httptransport.NewApp(cfg.App)
	if cfg.App.ProxyHeader != "" {
		logger.Info("client address taken from proxy header",
			zap.String("header", cfg.App.ProxyHeader),
			zap.Strings("trusted_proxies", cfg.App.TrustedProxies))
	}
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	routes := httptransport.RouteConfig{
		Health:      handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, redis, notificationService),
		Submissions: handlers.NewSubmissionsHandler(notificationService, logger, metrics),
		Metrics:     metrics,
	}
	if limiter := newLimiter(ctx, cfg.RateLimit, redis, logger); limiter != nil {
		routes.RateLimit = httptransport.RateLimit(limiter, logger)
	}
	httptransport.RegisterRoutes(app, routes)

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

// newLimiter prefers shared Redis counters and falls back to process memory.
func newLimiter(ctx context.Context, cfg config.RateLimitConfig, redis *persistence.Redis, logger *zap.Logger) ratelimit.Limiter {
	if cfg.PerMinute <= 0 {
		logger.Info("rate limiting disabled")
		return nil
	}
	if redis.Enabled() {
		return ratelimit.NewRedisLimiter(redis.Client, cfg.PerMinute, cfg.Burst)
	}
	limiter := ratelimit.NewMemoryLimiter(cfg.PerMinute, cfg.Burst)
	limiter.StartJanitor(ctx, 10*time.Minute)
	return limiter
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
