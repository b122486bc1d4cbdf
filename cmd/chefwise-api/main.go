package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/chefwise/chefwise-api/config"
	"github.com/chefwise/chefwise-api/internal/api/rest"
	"github.com/chefwise/chefwise-api/internal/api/rest/handlers"
	"github.com/chefwise/chefwise-api/internal/auth"
	openaigw "github.com/chefwise/chefwise-api/internal/integration/openai"
	stripegw "github.com/chefwise/chefwise-api/internal/integration/stripe"
	"github.com/chefwise/chefwise-api/internal/kafka"
	"github.com/chefwise/chefwise-api/internal/metrics"
	"github.com/chefwise/chefwise-api/internal/ratelimit"
	"github.com/chefwise/chefwise-api/internal/repository"
	"github.com/chefwise/chefwise-api/internal/repository/postgres"
	"github.com/chefwise/chefwise-api/internal/service"
	"github.com/chefwise/chefwise-api/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := logger.New(logger.ParseLevel(os.Getenv("LOG_LEVEL")))

	log.Infow("ChefWise API starting up...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("Failed to load configuration", "error", err)
	}

	if cfg.Stripe.SecretKey == "" {
		log.Warnw("Stripe secret key is not set")
	}
	if cfg.OpenAI.APIKey == "" {
		log.Warnw("OpenAI API key is not set")
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Миграции схемы
	if err := runMigrations(cfg.Database.URL); err != nil {
		log.Fatalw("Failed to run migrations", "error", err)
	}

	// База данных
	pool, err := postgres.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalw("Failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Infow("Database connection established")

	// Redis: недоступность кэша не мешает запуску
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warnw("Redis is unavailable, cache reads will fall through to the database", "error", err)
	} else {
		log.Infow("Redis cache initialized")
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Errorw("Error closing Redis connection", "error", err)
		}
	}()

	// Репозитории
	userCache := repository.NewRedisUserCache(redisClient, log)
	users := repository.NewCachedUserRepository(postgres.NewUserRepository(pool, log), userCache, log)
	webhookEvents := postgres.NewWebhookEventRepository(pool, log)

	// Kafka
	var producer kafka.Producer = kafka.NopProducer{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaProducer := kafka.NewProducer(cfg.Kafka.Brokers, log)
		defer func() {
			if err := kafkaProducer.Close(); err != nil {
				log.Errorw("Error closing Kafka producer", "error", err)
			}
		}()
		producer = kafkaProducer
		log.Infow("Kafka producer initialized", "brokers", cfg.Kafka.Brokers)
	} else {
		log.Warnw("No Kafka brokers configured, subscription events will not be published")
	}

	// Интеграции
	stripeClient := stripegw.NewClient(cfg.Stripe.SecretKey, log)
	stripeDirectory := stripegw.NewDirectory()
	webhookVerifier := stripegw.NewSignatureVerifier(cfg.Stripe.WebhookSecret)
	openaiClient := openaigw.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Timeout, log)

	verifier, err := auth.NewFirebaseVerifier(ctx, cfg.Firebase.ProjectID, cfg.Firebase.JWKSURL, log)
	if err != nil {
		log.Fatalw("Failed to initialize token verifier", "error", err)
	}

	// Метрики
	registry := prometheus.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)

	// Лимитеры
	chatLimiter := ratelimit.New(ratelimit.Config{Window: cfg.RateLimit.ChatWindow, Max: cfg.RateLimit.ChatMax})
	defer chatLimiter.Stop()
	recipeLimiter := ratelimit.New(ratelimit.Config{Window: cfg.RateLimit.RecipeWindow, Max: cfg.RateLimit.RecipeMax})
	defer recipeLimiter.Stop()
	billingLimiter := ratelimit.New(ratelimit.Config{Window: cfg.RateLimit.BillingWindow, Max: cfg.RateLimit.BillingMax})
	defer billingLimiter.Stop()
	pantryQuota := ratelimit.New(ratelimit.Config{Window: cfg.RateLimit.PantryWindow, Max: cfg.RateLimit.PantryMax})
	defer pantryQuota.Stop()

	// Сервисы
	recipes := service.NewRecipeService(openaiClient, service.RecipeServiceConfig{
		ChatModel:   cfg.OpenAI.ChatModel,
		VisionModel: cfg.OpenAI.VisionModel,
	}, recorder, log)
	billing := service.NewBillingService(stripeClient, cfg.Stripe, cfg.App.URL, log)
	webhooks := service.NewWebhookService(users, webhookEvents, stripeDirectory, producer, cfg.Stripe, recorder, log)

	router := rest.SetupRouter(rest.Deps{
		Log:            log,
		Registry:       registry,
		Metrics:        recorder,
		Auth:           auth.NewMiddleware(verifier, log),
		Tiers:          users,
		Recipes:        recipes,
		Billing:        billing,
		Webhooks:       handlers.NewWebhookHandler(webhookVerifier, webhooks, log),
		ChatLimiter:    chatLimiter,
		RecipeLimiter:  recipeLimiter,
		BillingLimiter: billingLimiter,
		PantryQuota:    pantryQuota,
	})

	server := rest.NewServer(router, cfg, log)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalw("Failed to start HTTP server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Infow("Shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("HTTP server shutdown error", "error", err)
	} else {
		log.Infow("HTTP server gracefully stopped")
	}

	log.Infow("Cleanup finished. Goodbye!")
}

// runMigrations применяет SQL-миграции из каталога migrations
func runMigrations(databaseURL string) error {
	m, err := migrate.New("file://migrations", databaseURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
