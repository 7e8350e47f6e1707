package status

import "errors"

var (
	ErrEventNotFound          = errors.New("checkout: event not found")
	ErrOrderNotFound          = errors.New("checkout: order not found")
	ErrCheckoutNotFound       = errors.New("checkout: checkout not found")
	ErrInsufficientInventory  = errors.New("checkout: not enough tickets available")
	ErrInvalidDiscount        = errors.New("checkout: discount must be below 100 percent")
	ErrInvalidQuantity        = errors.New("checkout: quantity must be a positive integer")
	ErrInvalidStateTransition = errors.New("order: invalid payment status transition")

	ErrSignatureVerification = errors.New("webhook: signature verification failed")

	ErrTicketNotFound    = errors.New("ticket: ticket not found")
	ErrInvalidToken      = errors.New("ticket: invalid ticket token")
	ErrExpiredToken      = errors.New("ticket: ticket token expired")
	ErrTokenMismatch     = errors.New("ticket: token data does not match ticket")
	ErrPaymentIncomplete = errors.New("ticket: ticket payment not completed")

	ErrForbidden = errors.New("access denied")
)
