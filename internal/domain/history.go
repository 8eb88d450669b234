package domain

import "time"

// StatusLog is one append-only audit row per status transition
type StatusLog struct {
	ID            int64
	ReservationID int64
	OldStatus     *ReservationStatus // nil for the creation row
	NewStatus     ReservationStatus
	Actor         Actor
	ActorID       *int64
	Reason        *string
	CreatedAt     time.Time
}

// RescheduleHistory is one append-only audit row per reschedule
type RescheduleHistory struct {
	ID            int64
	ReservationID int64
	OldReservedAt time.Time
	NewReservedAt time.Time
	Actor         Actor
	ActorID       *int64
	Reason        *string
	Fee           int64
	CreatedAt     time.Time
}
