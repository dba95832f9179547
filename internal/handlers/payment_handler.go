package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/eventix/internal/helpers"
	"github.com/joshua-takyi/eventix/internal/middleware"
	"github.com/joshua-takyi/eventix/internal/models"
	"github.com/joshua-takyi/eventix/internal/pricing"
	"github.com/joshua-takyi/eventix/internal/services"
)

const maxWebhookBytes = 65536

// paymentError keeps the flat {"error": ...} body the checkout widget expects.
func paymentError(c *gin.Context, err error, internalMessage string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(status, helpers.FlatError(internalMessage))
		return
	}
	c.JSON(status, helpers.FlatError(err.Error()))
}

// CreatePayment handles POST /api/create-payment.
func CreatePayment(cs *services.CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, userID, ok := requireUser(c)
		if !ok {
			return
		}

		var req models.CreatePaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.FlatError("Invalid request body"))
			return
		}

		resp, err := cs.CreatePayment(c.Request.Context(), userID, middleware.IdempotencyKey(c), req)
		if err != nil {
			paymentError(c, err, "Failed to create booking")
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// VerifyPayment handles POST /api/verify-payment.
func VerifyPayment(cs *services.CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, userID, ok := requireUser(c)
		if !ok {
			return
		}

		var req models.VerifyPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.FlatError("Invalid request body"))
			return
		}

		resp, err := cs.VerifyPayment(c.Request.Context(), userID, req)
		if err != nil {
			paymentError(c, err, "Failed to update booking")
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// QuoteCart prices a cart without creating a booking. ?surface=booking_flow
// selects the wizard's fee schedule.
func QuoteCart(cs *services.CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			CartItems []models.CartItem `json:"cartItems"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("invalid request payload"))
			return
		}

		schedule := pricing.CheckoutSchedule
		if c.Query("surface") == pricing.BookingFlowSchedule.Name {
			schedule = pricing.BookingFlowSchedule
		}

		quote, err := cs.QuoteCart(c.Request.Context(), req.CartItems, schedule)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(quote, ""))
	}
}

func CreateStripeIntent(cs *services.CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, userID, ok := requireUser(c)
		if !ok {
			return
		}

		var req struct {
			BookingID string `json:"bookingId" binding:"required,uuid"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, helpers.ErrorResponse("bookingId is required"))
			return
		}

		intent, err := cs.CreateStripeIntent(c.Request.Context(), userID, uuid.MustParse(req.BookingID))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, helpers.SuccessResponse(intent, "Payment intent created"))
	}
}

// StripeWebhook acknowledges every verified event with 200 so Stripe stops
// retrying; only signature failures and server errors are reported back.
func StripeWebhook(cs *services.CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read body"})
			return
		}

		if err := cs.HandleStripeWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
			paymentError(c, err, internalErrorMessage)
			return
		}
		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}

func AbandonBooking(cs *services.CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		_, userID, ok := requireUser(c)
		if !ok {
			return
		}
		bookingID, ok := pathUUID(c, "id")
		if !ok {
			return
		}

		if err := cs.Abandon(c.Request.Context(), userID, bookingID); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(gin.H{"bookingId": bookingID}, "Booking abandoned"))
	}
}

func ExpirePendingBookings(cs *services.CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := cs.ExpirePending(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(gin.H{"expired": n}, ""))
	}
}
