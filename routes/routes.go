package routes

import (
	"siena/auth"
	"siena/availability"
	"siena/bookings"
	"siena/content"
	"siena/middleware"
	"siena/ratelim"
	"siena/units"
	"siena/wizard"

	"github.com/julienschmidt/httprouter"
)

func AddContentRoutes(router *httprouter.Router) {
	router.GET("/api/content", content.GetContent)
}

func AddUnitRoutes(router *httprouter.Router) {
	router.GET("/api/units", units.ListUnits)
	router.GET("/api/units/:unitid", units.GetUnit)
}

func AddAvailabilityRoutes(router *httprouter.Router) {
	router.GET("/api/availability/:unitid", availability.GetBlockedDates)
}

func AddAuthRoutes(router *httprouter.Router, rateLimiter *ratelim.RateLimiter) {
	router.POST("/api/auth/login", rateLimiter.Limit(auth.Login))
}

// AddWizardRoutes wires the booking wizard shell. Payment-facing endpoints
// are rate limited and honor Idempotency-Key; a looping widget callback must
// not hammer the gateway or double-submit.
func AddWizardRoutes(router *httprouter.Router, svc *wizard.Service, rateLimiter *ratelim.RateLimiter) {
	payGuard := middleware.Chain(rateLimiter.Limit, middleware.Idempotent)

	router.POST("/api/wizard", rateLimiter.Limit(svc.Open))
	router.GET("/api/wizard/:id", svc.GetState)
	router.PUT("/api/wizard/:id/dates", svc.SetDates)
	router.PUT("/api/wizard/:id/details", svc.SetDetails)
	router.POST("/api/wizard/:id/back", svc.Back)
	router.POST("/api/wizard/:id/payment", payGuard(svc.StartPayment))
	router.POST("/api/wizard/:id/capture", payGuard(svc.Capture))
	router.DELETE("/api/wizard/:id", svc.Cancel)
}

func AddBookingRoutes(router *httprouter.Router, rateLimiter *ratelim.RateLimiter) {
	staffOnly := middleware.Chain(
		rateLimiter.Limit,
		middleware.Authenticate,
		middleware.RequireRoles("staff"),
	)

	router.GET("/api/bookings", staffOnly(bookings.ListBookings))
	router.GET("/api/bookings/:id", staffOnly(bookings.GetBooking))
	router.GET("/api/bookings/:id/confirmation", staffOnly(bookings.PrintConfirmation))
}
