package router

import (
	"time"

	"memorial-service/internal/handlers"
	"memorial-service/internal/middleware"
	"memorial-service/internal/service"

	"github.com/gin-contrib/cors"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

const defaultRateLimit = 5

type RateLimitConfig struct {
	Limit  int64
	Window time.Duration
}

type Deps struct {
	Payments    service.PaymentService
	Obituaries  service.ObituaryService
	Condolences service.CondolenceService
	Tributes    service.TributeService
	Products    service.ProductService
	Carts       service.CartService
	Orders      service.OrderService

	Tokens service.AccessTokenProvider
	// Limiter == nil отключает ограничение частоты запросов.
	Limiter   middleware.Limiter
	RateLimit RateLimitConfig
}

func Router(d Deps, log *zap.Logger) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "Stripe-Signature"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	limit, window := d.RateLimit.Limit, d.RateLimit.Window
	if limit <= 0 {
		limit = defaultRateLimit
	}
	if window <= 0 {
		window = 10 * time.Second
	}
	rateLimited := func(scope string) gin.HandlerFunc {
		return middleware.RateLimit(d.Limiter, scope, limit, window, log)
	}

	optional := middleware.OptionalAuth(d.Tokens, log)
	authed := middleware.AuthRequired(d.Tokens, log)
	admin := middleware.RequireRole(service.RoleAdmin)

	paymentHandler := handlers.NewPaymentHandler(d.Payments, log)
	payment := r.Group("/payment")
	{
		payment.POST("/create-intent", rateLimited("payment"), optional, paymentHandler.CreateIntent)
		payment.POST("/confirm", optional, paymentHandler.Confirm)
		payment.POST("/cancel", optional, paymentHandler.Cancel)
		payment.POST("/refund", authed, paymentHandler.Refund)
		payment.GET("/status/:paymentIntentId", paymentHandler.Status)
	}
	r.POST("/webhook/gateway", paymentHandler.Webhook)

	api := r.Group("/api")

	obituaryHandler := handlers.NewObituaryHandler(d.Obituaries, log)
	obituaries := api.Group("/obituaries")
	{
		obituaries.GET("/recent", obituaryHandler.Recent)
		obituaries.GET("/search", obituaryHandler.Search)
		obituaries.GET("", obituaryHandler.List)
		obituaries.GET("/:slug", obituaryHandler.Get)
		obituaries.POST("", authed, admin, obituaryHandler.Create)
		obituaries.PUT("/:id", authed, admin, obituaryHandler.Update)
		obituaries.DELETE("/:id", authed, admin, obituaryHandler.Delete)
	}

	condolenceHandler := handlers.NewCondolenceHandler(d.Condolences, log)
	condolences := api.Group("/condolences")
	{
		condolences.GET("", authed, admin, condolenceHandler.ListAll)
		condolences.GET("/obituary/:obituaryId", optional, condolenceHandler.ListByObituary)
		condolences.GET("/obituary/slug/:slug", optional, condolenceHandler.ListBySlug)
		condolences.GET("/stats/:obituaryId", condolenceHandler.Stats)
		condolences.POST("", rateLimited("condolence"), optional, condolenceHandler.Create)
		condolences.PUT("/:id", authed, admin, condolenceHandler.Update)
		condolences.DELETE("/:id", authed, admin, condolenceHandler.Delete)
	}

	tributeHandler := handlers.NewTributeHandler(d.Tributes, log)
	tributes := api.Group("/tributes")
	{
		tributes.GET("/obituary/:obituaryId", tributeHandler.ListByObituary)
		tributes.POST("", rateLimited("tribute"), tributeHandler.Create)
		tributes.PUT("/:id", authed, admin, tributeHandler.Update)
		tributes.DELETE("/:id", authed, admin, tributeHandler.Delete)
		tributes.PATCH("/:id/approve", authed, admin, tributeHandler.Approve)
	}

	productHandler := handlers.NewProductHandler(d.Products, log)
	products := api.Group("/products")
	{
		products.GET("/list/memorial", productHandler.ListMemorial)
		products.GET("/list/search/:name", productHandler.SearchByName)
		products.GET("/item/id/:id", productHandler.GetByID)
		products.GET("/item/:slug", productHandler.GetBySlug)

		products.POST("", authed, admin, productHandler.Create)
		products.GET("", authed, admin, productHandler.ListAll)
		products.GET("/:id", authed, admin, productHandler.AdminGet)
		products.PUT("/:id", authed, admin, productHandler.Update)
		products.PUT("/:id/active", authed, admin, productHandler.SetActive)
		products.DELETE("/:id", authed, admin, productHandler.Delete)
	}

	cartHandler := handlers.NewCartHandler(d.Carts, log)
	cart := api.Group("/cart", optional)
	{
		cart.POST("", cartHandler.Create)
		cart.POST("/:cartId/items", cartHandler.AddItem)
		cart.DELETE("/:cartId/items/:productId", cartHandler.RemoveProduct)
		cart.GET("/:cartId", cartHandler.Get)
		cart.DELETE("/:cartId", cartHandler.Delete)
	}

	orderHandler := handlers.NewOrderHandler(d.Orders, log)
	orders := api.Group("/orders", authed)
	{
		orders.GET("/me", orderHandler.ListMine)
		orders.GET("/search", orderHandler.Search)
		orders.GET("/:id", orderHandler.Get)

		orders.GET("", admin, orderHandler.ListAll)
		orders.PUT("/:id/status", admin, orderHandler.UpdateStatus)
		orders.PUT("/:id/items/:itemId/status", admin, orderHandler.UpdateItemStatus)
		orders.DELETE("/:id", admin, orderHandler.Delete)
	}

	return r
}
