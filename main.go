package main

import (
	"log"
	"net/http"
	"os"

	"restaurant-storefront/checkout"
	"restaurant-storefront/config"
	"restaurant-storefront/handlers"
	"restaurant-storefront/payment"
	"restaurant-storefront/routes"
	"restaurant-storefront/storage"
	"restaurant-storefront/upstream"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Local overrides; absence is fine
	_ = godotenv.Load()

	// Set Gin mode
	mode := os.Getenv("GIN_MODE")
	if mode == "" {
		gin.SetMode(gin.DebugMode)
	}

	settings := config.Load()
	config.InitDB(settings.DBPath)

	kv := storage.NewKV(config.DB)
	carts := storage.NewCartStore(kv)
	defer carts.Close()
	state := storage.NewCheckoutState(kv)

	api := upstream.New(settings.UpstreamBaseURL)
	signer := payment.NewStateSigner(config.JWTSecret)
	windows := payment.NewRegistry()
	orch := payment.NewOrchestrator(api, state, windows, signer, settings.CallbackBaseURL)
	defer orch.Close()
	forms := checkout.NewController(state)

	h := handlers.New(api, carts, state, forms, orch, windows, signer, settings.RestaurantID)

	// Create Gin router with default middleware (logger + recovery)
	r := gin.Default()

	// CORS middleware for frontend integration
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Guest-ID")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "Restaurant Storefront API",
			"version": "1.0.0",
		})
	})

	// Welcome
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Welcome to the Restaurant Storefront API",
			"docs":    "/api/payment/states",
			"health":  "/health",
		})
	})

	// Register all routes
	routes.SetupRoutes(r, h)

	log.Printf("Server running on http://localhost:%s", settings.Port)
	if err := r.Run(":" + settings.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
