package routes

import (
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"prediction-exchange/src/handlers"
	"prediction-exchange/src/middleware"
)

func SetupRoutes(app *fiber.App, orderHandler *handlers.OrderHandler) {
	app.Use(cors.New())
	app.Use(middleware.RequestLogger())

	api := app.Group("/api/v1")

	if os.Getenv("RATE_LIMIT_DISABLED") != "1" {
		maxRequests := 100
		if envMax := os.Getenv("RATE_LIMIT_MAX"); envMax != "" {
			if parsed, err := strconv.Atoi(envMax); err == nil && parsed > 0 {
				maxRequests = parsed
			}
		}

		window := time.Second
		if envWindow := os.Getenv("RATE_LIMIT_WINDOW"); envWindow != "" {
			if parsed, err := time.ParseDuration(envWindow); err == nil && parsed > 0 {
				window = parsed
			}
		}

		api.Use(middleware.NewRateLimiter(maxRequests, window).Middleware())
	}

	api.Post("/orders", orderHandler.PlaceOrder)
	api.Get("/orderbook", orderHandler.GetOrderBook)
	api.Get("/trades", orderHandler.GetTrades)
	api.Post("/reset", orderHandler.Reset)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Prediction Market Exchange API",
			"status":  "running",
		})
	})
	app.Get("/health", orderHandler.HealthCheck)
	app.Get("/metrics", orderHandler.Metrics)
}
