package handlers

import (
	"errors"

	"github.com/pocketbase/pocketbase/apis"

	"spotly/internal/status"
)

// apiError translates service errors into structured API responses. Anything
// outside the known taxonomy becomes a generic 500 so internals never leak.
func apiError(err error) error {
	switch {
	case errors.Is(err, status.ErrEventNotFound),
		errors.Is(err, status.ErrOrderNotFound),
		errors.Is(err, status.ErrCheckoutNotFound),
		errors.Is(err, status.ErrTicketNotFound):
		return apis.NewNotFoundError(err.Error(), err)

	case errors.Is(err, status.ErrInsufficientInventory),
		errors.Is(err, status.ErrInvalidDiscount),
		errors.Is(err, status.ErrInvalidQuantity),
		errors.Is(err, status.ErrInvalidStateTransition),
		errors.Is(err, status.ErrPaymentIncomplete),
		errors.Is(err, status.ErrSignatureVerification):
		return apis.NewBadRequestError(err.Error(), err)

	case errors.Is(err, status.ErrInvalidToken),
		errors.Is(err, status.ErrExpiredToken),
		errors.Is(err, status.ErrTokenMismatch):
		return apis.NewUnauthorizedError(err.Error(), err)

	case errors.Is(err, status.ErrForbidden):
		return apis.NewForbiddenError(err.Error(), err)

	default:
		return apis.NewInternalServerError("Something went wrong", err)
	}
}
