package routes

import (
	"github.com/gin-gonic/gin"

	"medicart_back_end/internal/handlers"
	"medicart_back_end/internal/middleware"
)

type Options struct {
	JWTSecret         string
	Limiter           middleware.Limiter
	CheckoutRateLimit int
}

func RegisterRoutes(r *gin.Engine, h *handlers.Handler, opts Options) {
	if h.Metrics != nil {
		r.Use(h.Metrics.Middleware())
		r.GET("/metrics", gin.WrapH(h.Metrics.Handler()))
	}

	api := r.Group("/api")
	api.GET("/health", h.Health)

	// Webhook Stripe : authentifié par sa propre signature.
	api.POST("/payment/webhook", h.StripeWebhook)

	auth := api.Group("")
	auth.Use(middleware.AuthRequired(opts.JWTSecret))

	cart := auth.Group("/cart")
	cart.GET("", h.GetCart)
	cart.POST("/add", middleware.RateLimit(opts.Limiter, "cart", middleware.CartMaxWrites, middleware.CartWindow), h.AddToCart)
	cart.PUT("/update", h.UpdateCartItem)
	cart.DELETE("/:itemId", h.RemoveFromCart)

	pay := auth.Group("/payment")
	pay.Use(middleware.RateLimit(opts.Limiter, "payment", opts.CheckoutRateLimit, middleware.PaymentWindow))
	pay.POST("/create-order", h.CreatePaymentOrder)
	pay.POST("/verify", h.VerifyPayment)
	if h.Sandbox != nil {
		pay.POST("/sandbox/complete", h.CompleteSandboxPayment)
	}

	orders := auth.Group("/orders")
	orders.GET("", h.ListOrders)
	orders.GET("/:id", h.GetOrder)
	orders.PUT("/:id/status", middleware.RequireStaff(), h.UpdateOrderStatus)

	inventory := auth.Group("/inventory", middleware.RequireStaff())
	inventory.PUT("/:productId/stock", h.UpdateStock)
	inventory.GET("/:productId/movements", h.ListMovements)
}
