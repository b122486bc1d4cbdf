package rest

import (
	"net/http"

	"github.com/chefwise/chefwise-api/internal/api/rest/handlers"
	"github.com/chefwise/chefwise-api/internal/api/rest/middleware"
	"github.com/chefwise/chefwise-api/internal/auth"
	"github.com/chefwise/chefwise-api/internal/metrics"
	"github.com/chefwise/chefwise-api/internal/ratelimit"
	"github.com/chefwise/chefwise-api/internal/service"
	"github.com/chefwise/chefwise-api/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps зависимости маршрутизатора
type Deps struct {
	Log      *logger.Logger
	Registry *prometheus.Registry
	Metrics  metrics.Recorder

	Auth  *auth.Middleware
	Tiers auth.TierSource

	Recipes  service.RecipeService
	Billing  service.BillingService
	Webhooks *handlers.WebhookHandler

	// Лимитеры по маршрутам
	ChatLimiter    *ratelimit.Limiter
	RecipeLimiter  *ratelimit.Limiter
	BillingLimiter *ratelimit.Limiter
	// PantryQuota суточная квота бесплатного тарифа
	PantryQuota *ratelimit.Limiter
}

// SetupRouter настраивает маршрутизатор Gin с маршрутами и middleware
func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()

	r.Use(middleware.LoggerMiddleware(d.Log))
	r.Use(middleware.MetricsMiddleware(d.Metrics))
	r.Use(gin.Recovery())

	// На API-маршрутах не-POST должен получать 405, а не 404
	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})

	// Endpoint для проверки работоспособности сервиса
	r.GET("/health", handlers.HealthCheck)

	// Prometheus метрики
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))

	// Инициализация обработчиков
	chatHandler := handlers.NewChatHandler(d.Recipes, d.Log)
	recipeHandler := handlers.NewRecipeHandler(d.Recipes, d.Log)
	pantryHandler := handlers.NewPantryHandler(d.Recipes, d.Tiers, d.PantryQuota, d.Metrics, d.Log)
	billingHandler := handlers.NewBillingHandler(d.Billing, d.Log)

	rateKey := ratelimit.ClientKey(auth.UIDFrom)

	api := r.Group("/api")
	{
		api.POST("/chat-recipe",
			d.Auth.Required(),
			ratelimit.Middleware(d.ChatLimiter, "chat_recipe", rateKey, d.Metrics, d.Log),
			chatHandler.Chat)

		api.POST("/generate-recipe",
			d.Auth.Required(),
			ratelimit.Middleware(d.RecipeLimiter, "generate_recipe", rateKey, d.Metrics, d.Log),
			recipeHandler.Generate)

		api.POST("/analyze-pantry-photo",
			d.Auth.Optional(),
			pantryHandler.Analyze)

		stripeRoutes := api.Group("/stripe")
		{
			stripeRoutes.POST("/create-checkout-session",
				ratelimit.Middleware(d.BillingLimiter, "create_checkout_session", rateKey, d.Metrics, d.Log),
				billingHandler.CreateCheckoutSession)

			stripeRoutes.POST("/portal",
				ratelimit.Middleware(d.BillingLimiter, "portal", rateKey, d.Metrics, d.Log),
				billingHandler.CreatePortalSession)

			stripeRoutes.POST("/webhook", d.Webhooks.HandleStripeWebhook)
		}
	}

	return r
}
