// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/safarni/tourism-booking/internal/config"
	"github.com/safarni/tourism-booking/internal/handler"
	"github.com/safarni/tourism-booking/internal/middleware"
)

// RegisterRoutes registers routes that carry no middleware. Currently
// this is only the health check used by load balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAPI registers the booking and tourist endpoints under /v1.
// The identity middleware verifies externally issued tokens when
// present; the rate limiter and response cache are active whenever a
// Redis client is configured.
func RegisterAPI(e *echo.Echo, b *handler.BookingHandler, t *handler.TouristHandler, jwtSecret string, rdb *redis.Client) {
	g := e.Group(
		"/v1",
		middleware.Identity(jwtSecret),
		middleware.RateLimit(config.LoadRateLimitConfig(), rdb),
	)

	// Only the item catalog is cached: items change through an admin
	// process, while tourist snapshots change on every payment, refund
	// and redemption and must always read fresh.
	cache := middleware.ResponseCache(config.LoadCacheConfig(), rdb)

	// Booking lifecycle. Mutations are never cached.
	g.POST("/items/:id/book", b.Book)
	g.POST("/items/:id/pay", b.Pay)
	g.POST("/items/:id/cancel", b.Cancel)
	g.GET("/items/:id", b.GetItem, cache)
	g.GET("/items/:id/bookings", b.ListBookings)

	// Wallet and loyalty.
	g.GET("/tourists/:id", t.Get)
	g.POST("/tourists/:id/redeemPoints", t.RedeemPoints)
}
