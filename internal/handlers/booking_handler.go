package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/eventix/internal/helpers"
	"github.com/joshua-takyi/eventix/internal/services"
)

func ListBookings(ds *services.DashboardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, userID, ok := requireUser(c)
		if !ok {
			return
		}
		limit, offset, ok := pagination(c)
		if !ok {
			return
		}

		bookings, total, err := ds.ListUserBookings(c.Request.Context(), userID, limit, offset)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, helpers.PaginatedResponse(bookings, offset, limit, total))
	}
}

func GetBooking(ds *services.DashboardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, userID, ok := requireUser(c)
		if !ok {
			return
		}
		bookingID, ok := pathUUID(c, "id")
		if !ok {
			return
		}

		booking, err := ds.GetBooking(c.Request.Context(), userID, bookingID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(booking, ""))
	}
}

func BookingHistory(ds *services.DashboardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, userID, ok := requireUser(c)
		if !ok {
			return
		}
		bookingID, ok := pathUUID(c, "id")
		if !ok {
			return
		}

		events, err := ds.BookingHistory(c.Request.Context(), userID, bookingID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(events, ""))
	}
}
