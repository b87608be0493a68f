package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/freewheels/service-rides/internal/application"
	"github.com/freewheels/service-rides/internal/auth"
	"github.com/freewheels/service-rides/internal/domain"
	"github.com/freewheels/service-rides/internal/middleware"
	"github.com/freewheels/service-rides/internal/response"
)

// RideHandler handles HTTP requests for ride operations.
type RideHandler struct {
	rides    *application.RideService
	bookings *application.BookingService
	search   *application.SearchService
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(rides *application.RideService, bookings *application.BookingService, search *application.SearchService) *RideHandler {
	return &RideHandler{rides: rides, bookings: bookings, search: search}
}

// RegisterRoutes registers all ride routes on the given router group.
func (h *RideHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	providerRole := middleware.RequireRole(auth.Role.CanProvide)

	rides := r.Group("/api/v1/rides")
	rides.Use(authMW)
	{
		rides.POST("", providerRole, h.CreateRide)
		rides.POST("/quote", providerRole, h.QuoteFare)
		rides.GET("/search", h.SearchRides)
		rides.GET("/mine", providerRole, h.ListMyRides)
		rides.GET("/:id", h.GetRide)
		rides.PATCH("/:id", providerRole, h.UpdateRide)
		rides.DELETE("/:id", providerRole, h.DeleteRide)
		rides.POST("/:id/cancel", providerRole, h.CancelRide)
	}
}

// CreateRide handles POST /api/v1/rides.
func (h *RideHandler) CreateRide(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.CreateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.rides.CreateRide(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// QuoteFare handles POST /api/v1/rides/quote. Returns a suggested per-seat
// fare for a planned ride without publishing it.
func (h *RideHandler) QuoteFare(c *gin.Context) {
	var req struct {
		Pickup     domain.Point `json:"pickup" binding:"required"`
		Drop       domain.Point `json:"drop" binding:"required"`
		SeatsTotal int          `json:"seats_total" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	fare, err := h.rides.SuggestFare(req.Pickup, req.Drop, req.SeatsTotal)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"suggested_cost_per_seat": fare})
}

// SearchRides handles GET /api/v1/rides/search.
func (h *RideHandler) SearchRides(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		response.BadRequest(c, "lat is required and must be a number")
		return
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		response.BadRequest(c, "lng is required and must be a number")
		return
	}

	query := application.SearchQuery{
		Pickup: domain.Point{Latitude: lat, Longitude: lng},
	}
	if raw := c.Query("radius_m"); raw != "" {
		radius, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			response.BadRequest(c, "radius_m must be a number")
			return
		}
		query.RadiusMeters = radius
	}
	if raw := c.Query("date"); raw != "" {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.BadRequest(c, "date must be formatted YYYY-MM-DD")
			return
		}
		query.Date = &date
	}

	results, err := h.search.Search(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, results)
}

// ListMyRides handles GET /api/v1/rides/mine.
func (h *RideHandler) ListMyRides(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	page, limit := parsePagination(c)
	result, err := h.rides.GetProviderRides(c.Request.Context(), userID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetRide handles GET /api/v1/rides/:id.
func (h *RideHandler) GetRide(c *gin.Context) {
	rideID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid ride ID")
		return
	}

	result, err := h.rides.GetRide(c.Request.Context(), rideID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdateRide handles PATCH /api/v1/rides/:id.
func (h *RideHandler) UpdateRide(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	rideID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid ride ID")
		return
	}

	var req application.UpdateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.rides.UpdateRide(c.Request.Context(), rideID, userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// DeleteRide handles DELETE /api/v1/rides/:id.
func (h *RideHandler) DeleteRide(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	rideID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid ride ID")
		return
	}

	if err := h.rides.DeleteRide(c.Request.Context(), rideID, userID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// CancelRide handles POST /api/v1/rides/:id/cancel. Pending booking
// requests against the ride are rejected as part of the cancellation.
func (h *RideHandler) CancelRide(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	rideID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid ride ID")
		return
	}

	result, err := h.rides.CancelRide(c.Request.Context(), rideID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.bookings.RejectPendingForRide(c.Request.Context(), rideID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// parsePagination extracts page and limit query parameters with defaults.
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	return page, limit
}
