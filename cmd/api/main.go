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

	"github.com/clearlot-api/internal/application/notification"
	"github.com/clearlot-api/internal/application/watcher"
	"github.com/clearlot-api/internal/config"
	"github.com/clearlot-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/clearlot-api/internal/infrastructure/jwt"
	s3infra "github.com/clearlot-api/internal/infrastructure/s3"
	"github.com/clearlot-api/internal/infrastructure/sns"
	transporthttp "github.com/clearlot-api/internal/transport/http"
	appmiddleware "github.com/clearlot-api/internal/transport/http/middleware"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient, err := dynamo.NewClient(cfg)
	if err != nil {
		slog.Error("DynamoDB client", "err", err)
		os.Exit(1)
	}
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		slog.Error("JWT provider not available", "err", err)
		os.Exit(1)
	}

	userRepo := dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users)
	purchaseRepo := dynamo.NewPurchaseRepo(dynamoClient, cfg.DynamoTables.Purchases)
	offerRepo := dynamo.NewOfferRepo(dynamoClient, cfg.DynamoTables.Offers)
	watchlistRepo := dynamo.NewWatchlistRepo(dynamoClient, cfg.DynamoTables.Watchlist)
	notificationRepo := dynamo.NewNotificationRepo(dynamoClient, cfg.DynamoTables.Notifications, cfg.Notifications.PollInterval)
	store := notification.WithBreaker(notificationRepo, notification.DefaultBreakerSettings())
	notificationRepo.PollThrough(store)

	opts := notification.HubOptions{
		DedupWindow: cfg.Notifications.DedupWindow,
		IdleTimeout: 5 * time.Minute,
		Prefs:       userRepo,
	}
	// SNS push is optional; without a topic notifications stay in-app only.
	if pusher, err := sns.NewPusher(cfg); err == nil {
		opts.Pusher = pusher
	} else {
		slog.Warn("native push disabled", "err", err)
	}
	if cfg.Watchers.Enabled {
		opts.Workers = []notification.Worker{
			watcher.NewOrderStatusWatcher(purchaseRepo, cfg.Watchers.OrderInterval),
			watcher.NewPriceWatcher(watchlistRepo, offerRepo, cfg.Watchers.PriceInterval),
		}
	}
	hub := notification.NewHub(store, notification.NewBus(), opts)

	s3Store := s3infra.NewStore(s3infra.NewClient(cfg), cfg)

	loginLimiter := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	deps := &transporthttp.Deps{
		UserRepo:     userRepo,
		PurchaseRepo: purchaseRepo,
		OfferRepo:    offerRepo,
		ObjectStore:  s3Store,
		JWTProvider:  jwtProvider,
		Hub:          hub,
		LoginLimiter: loginLimiter,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.AppPort),
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// Websocket streams clear their deadlines after the upgrade.
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("forced shutdown", "err", err)
	}
	hub.Shutdown()
	loginLimiter.Stop()
	slog.Info("server stopped")
}
