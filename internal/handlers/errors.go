package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/eventix/internal/helpers"
	"github.com/joshua-takyi/eventix/internal/middleware"
	"github.com/joshua-takyi/eventix/internal/models"
)

const internalErrorMessage = "Internal server error"

var errorStatuses = []struct {
	err    error
	status int
}{
	{models.ErrValidation, http.StatusBadRequest},
	{models.ErrEmptyCart, http.StatusBadRequest},
	{models.ErrAmountMismatch, http.StatusBadRequest},
	{models.ErrInvalidSignature, http.StatusBadRequest},
	{models.ErrOrderMismatch, http.StatusBadRequest},
	{models.ErrSeatCategoryNotFound, http.StatusBadRequest},
	{models.ErrInvalidRole, http.StatusBadRequest},
	{models.ErrEventNotBookable, http.StatusConflict},
	{models.ErrInsufficientSeats, http.StatusConflict},
	{models.ErrSoldOut, http.StatusConflict},
	{models.ErrBookingNotPending, http.StatusConflict},
	{models.ErrInvalidTransition, http.StatusConflict},
	{models.ErrRequestReviewed, http.StatusConflict},
	{models.ErrForbidden, http.StatusForbidden},
	{models.ErrSelfRoleChange, http.StatusForbidden},
	{models.ErrEventNotFound, http.StatusNotFound},
	{models.ErrVenueNotFound, http.StatusNotFound},
	{models.ErrBookingNotFound, http.StatusNotFound},
	{models.ErrProfileNotFound, http.StatusNotFound},
	{models.ErrRoleRequestNotFound, http.StatusNotFound},
	{models.ErrDraftNotFound, http.StatusNotFound},
}

// statusFor maps domain errors to HTTP status codes. Anything unknown is a 500.
func statusFor(err error) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// respondError writes the error envelope. Internal errors are attached to the
// gin context for the error middleware to log and never leak to the client.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(status, helpers.ErrorResponse(internalErrorMessage))
		return
	}
	c.JSON(status, helpers.ErrorResponse(err.Error()))
}

func requireUser(c *gin.Context) (*helpers.EnhancedClaims, uuid.UUID, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, helpers.FlatError("Unauthorized"))
		return nil, uuid.Nil, false
	}
	id, err := user.UUID()
	if err != nil {
		c.JSON(http.StatusUnauthorized, helpers.FlatError("Unauthorized"))
		return nil, uuid.Nil, false
	}
	return user, id, true
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}
