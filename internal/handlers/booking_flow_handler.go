package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/eventix/internal/helpers"
	"github.com/joshua-takyi/eventix/internal/models"
	"github.com/joshua-takyi/eventix/internal/services"
)

func StartBookingDraft(bf *services.BookingFlowService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, userID, ok := requireUser(c)
		if !ok {
			return
		}

		var req struct {
			EventID string `json:"event_id" binding:"required,uuid"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("event_id is required"))
			return
		}

		draft, err := bf.StartDraft(c.Request.Context(), userID, uuid.MustParse(req.EventID))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, helpers.SuccessResponse(draft, ""))
	}
}

// draftStep wraps the per-draft wizard operations, which all take the caller
// and the draft id from the path.
func draftStep(step func(c *gin.Context, userID, draftID uuid.UUID) (*models.BookingDraft, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, userID, ok := requireUser(c)
		if !ok {
			return
		}
		draftID, ok := pathUUID(c, "id")
		if !ok {
			return
		}

		draft, err := step(c, userID, draftID)
		if err != nil {
			if !c.Writer.Written() {
				respondError(c, err)
			}
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(draft, ""))
	}
}

func GetBookingDraft(bf *services.BookingFlowService) gin.HandlerFunc {
	return draftStep(func(c *gin.Context, userID, draftID uuid.UUID) (*models.BookingDraft, error) {
		return bf.GetDraft(c.Request.Context(), userID, draftID)
	})
}

func SelectDraftTickets(bf *services.BookingFlowService) gin.HandlerFunc {
	return draftStep(func(c *gin.Context, userID, draftID uuid.UUID) (*models.BookingDraft, error) {
		var req models.SelectTicketsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse(err.Error()))
			return nil, err
		}
		return bf.SelectTickets(c.Request.Context(), userID, draftID, req)
	})
}

func EnterDraftCustomer(bf *services.BookingFlowService) gin.HandlerFunc {
	return draftStep(func(c *gin.Context, userID, draftID uuid.UUID) (*models.BookingDraft, error) {
		var customer models.CustomerInfo
		if err := c.ShouldBindJSON(&customer); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse(err.Error()))
			return nil, err
		}
		return bf.EnterInfo(c.Request.Context(), userID, draftID, customer)
	})
}

func PayBookingDraft(bf *services.BookingFlowService) gin.HandlerFunc {
	return draftStep(func(c *gin.Context, userID, draftID uuid.UUID) (*models.BookingDraft, error) {
		return bf.Pay(c.Request.Context(), userID, draftID)
	})
}

func ConfirmBookingDraft(bf *services.BookingFlowService) gin.HandlerFunc {
	return draftStep(func(c *gin.Context, userID, draftID uuid.UUID) (*models.BookingDraft, error) {
		return bf.Confirm(c.Request.Context(), userID, draftID)
	})
}

func DiscardBookingDraft(bf *services.BookingFlowService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, userID, ok := requireUser(c)
		if !ok {
			return
		}
		draftID, ok := pathUUID(c, "id")
		if !ok {
			return
		}

		if err := bf.Discard(c.Request.Context(), userID, draftID); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
