package models

import "errors"

var (
	ErrEventNotFound        = errors.New("event not found")
	ErrVenueNotFound        = errors.New("venue not found")
	ErrSeatCategoryNotFound = errors.New("seat category not found")
	ErrBookingNotFound      = errors.New("booking not found")
	ErrProfileNotFound      = errors.New("profile not found")
	ErrRoleRequestNotFound  = errors.New("role request not found")
	ErrDraftNotFound        = errors.New("booking draft not found")

	ErrValidation        = errors.New("validation failed")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInsufficientSeats = errors.New("not enough seats available")
	ErrSoldOut           = errors.New("seats sold out before the payment could be applied")
	ErrAmountMismatch    = errors.New("amount does not match cart total")
	ErrInvalidSignature  = errors.New("invalid payment signature")
	ErrOrderMismatch     = errors.New("order id does not match booking")
	ErrBookingNotPending = errors.New("booking is not pending")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrEventNotBookable  = errors.New("event is not open for booking")

	ErrForbidden       = errors.New("forbidden")
	ErrInvalidRole     = errors.New("invalid role")
	ErrSelfRoleChange  = errors.New("users cannot change their own role")
	ErrRequestReviewed = errors.New("role request already reviewed")
)
