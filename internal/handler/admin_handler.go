package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/freewheels/service-rides/internal/application"
	"github.com/freewheels/service-rides/internal/auth"
	"github.com/freewheels/service-rides/internal/middleware"
	"github.com/freewheels/service-rides/internal/response"
)

// AdminHandler handles admin HTTP requests for marketplace oversight.
type AdminHandler struct {
	rides    *application.RideService
	bookings *application.BookingService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(rides *application.RideService, bookings *application.BookingService) *AdminHandler {
	return &AdminHandler{rides: rides, bookings: bookings}
}

// RegisterRoutes registers admin routes.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	admin := r.Group("/api/v1/admin")
	admin.Use(authMW, middleware.RequireAdmin())
	{
		admin.GET("/rides", h.ListRides)
		admin.GET("/bookings", h.ListBookings)
		admin.GET("/stats/bookings", h.BookingStats)
		admin.POST("/geo/rebuild", h.RebuildGeoIndex)
	}
}

// ListRides handles GET /api/v1/admin/rides.
func (h *AdminHandler) ListRides(c *gin.Context) {
	page, limit := parsePagination(c)

	rides, total, err := h.rides.ListAllRides(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, rides, total, page, limit)
}

// ListBookings handles GET /api/v1/admin/bookings.
func (h *AdminHandler) ListBookings(c *gin.Context) {
	page, limit := parsePagination(c)

	bookings, total, err := h.bookings.ListAllBookings(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, bookings, total, page, limit)
}

// BookingStats handles GET /api/v1/admin/stats/bookings.
func (h *AdminHandler) BookingStats(c *gin.Context) {
	stats, err := h.bookings.GetBookingStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}

// RebuildGeoIndex handles POST /api/v1/admin/geo/rebuild. Repopulates the
// geo index from the ride store.
func (h *AdminHandler) RebuildGeoIndex(c *gin.Context) {
	if err := h.rides.RebuildGeoIndex(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"status": "rebuilt"})
}
