package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/eventix/internal/helpers"
	"github.com/joshua-takyi/eventix/internal/middleware"
	"github.com/joshua-takyi/eventix/internal/models"
	"github.com/joshua-takyi/eventix/internal/services"
)

func ListEvents(cs *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset, ok := pagination(c)
		if !ok {
			return
		}

		events, total, err := cs.ListEvents(c.Request.Context(), models.EventFilter{
			Category: c.Query("category"),
			Search:   c.Query("search"),
			Limit:    limit,
			Offset:   offset,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, helpers.PaginatedResponse(events, offset, limit, total))
	}
}

// GetEvent serves published events to everyone and drafts to their organizer
// and admins.
func GetEvent(cs *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventID, ok := pathUUID(c, "id")
		if !ok {
			return
		}

		viewer := uuid.Nil
		isAdmin := false
		if user, ok := middleware.CurrentUser(c); ok {
			viewer, _ = user.UUID()
			isAdmin = user.IsAdmin()
		}

		event, err := cs.GetEvent(c.Request.Context(), eventID, viewer, isAdmin)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(event, ""))
	}
}

func CreateEvent(cs *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, userID, ok := requireUser(c)
		if !ok {
			return
		}

		var req models.CreateEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse(err.Error()))
			return
		}

		event, err := cs.CreateEvent(c.Request.Context(), userID, &req, middleware.AccessToken(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, helpers.SuccessResponse(event, "Event created successfully"))
	}
}

func PublishEvent(cs *services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, userID, ok := requireUser(c)
		if !ok {
			return
		}
		eventID, ok := pathUUID(c, "id")
		if !ok {
			return
		}

		if err := cs.PublishEvent(c.Request.Context(), eventID, userID, user.IsAdmin(), middleware.AccessToken(c)); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(gin.H{"id": eventID, "status": models.EventStatusPublished}, "Event published"))
	}
}
