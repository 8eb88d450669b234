package domain

import "time"

// Default business configuration values
const (
	DefaultServiceDurationMinutes = 60
	DefaultPendingWindow          = 7 * 24 * time.Hour
	DefaultPointsExpiry           = 365 * 24 * time.Hour
	DefaultEarnRatePercent        = 2.5
	DefaultFullRefundNotice       = 24 * time.Hour
)

// Business validation constants
const (
	MaxLineItems                = 20
	MaxLineItemQuantity         = 10
	MaxSpecialRequestsLength    = 500
	MaxCancellationReasonLength = 500
	MaxRescheduleReasonLength   = 500
	MaxDescriptionLength        = 255
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// ActiveStatuses are the statuses whose reservations occupy their window.
// Used by the conflict detector and availability index.
var ActiveStatuses = []ReservationStatus{
	StatusRequested,
	StatusConfirmed,
	StatusCompleted,
}

// InactiveStatuses are statuses that released their window
var InactiveStatuses = []ReservationStatus{
	StatusCancelledByUser,
	StatusCancelledByShop,
	StatusNoShow,
}
