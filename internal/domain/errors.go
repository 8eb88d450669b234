package domain

import "errors"

// Business error taxonomy shared by every layer
var (
	// ErrInvalidDate booking or reschedule targets a past instant
	ErrInvalidDate = errors.New("invalid date: reservation time is in the past")

	// ErrSlotConflict the requested window overlaps an active reservation of the shop
	ErrSlotConflict = errors.New("slot conflict: window overlaps an existing reservation")

	// ErrInvalidTransition the current status does not permit the requested transition
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInsufficientAvailableBalance debit exceeds the customer's available points
	ErrInsufficientAvailableBalance = errors.New("insufficient available point balance")

	// ErrReservationNotFound no reservation with the given id
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrRefundIneligible informational: the cancellation proceeds without a refund
	ErrRefundIneligible = errors.New("refund ineligible")

	// ErrInvalidPointTransaction amount sign, kind and reservation link are inconsistent
	ErrInvalidPointTransaction = errors.New("invalid point transaction")
)
