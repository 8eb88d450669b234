package domain

import "time"

// ReservationStatus represents the lifecycle state of a reservation
type ReservationStatus string

const (
	StatusRequested       ReservationStatus = "requested"
	StatusConfirmed       ReservationStatus = "confirmed"
	StatusCompleted       ReservationStatus = "completed"
	StatusCancelledByUser ReservationStatus = "cancelled_by_user"
	StatusCancelledByShop ReservationStatus = "cancelled_by_shop"
	StatusNoShow          ReservationStatus = "no_show"
)

// PaymentStatus tracks the deposit and refund state against the payment collaborator
type PaymentStatus string

const (
	PaymentAwaitingDeposit PaymentStatus = "awaiting_deposit"
	PaymentDepositPaid     PaymentStatus = "deposit_paid"
	PaymentDepositFailed   PaymentStatus = "deposit_failed"
	PaymentRefundPending   PaymentStatus = "refund_pending"
	PaymentRefunded        PaymentStatus = "refunded"
	PaymentNoRefund        PaymentStatus = "no_refund"
)

// Actor identifies who initiated a lifecycle transition
type Actor string

const (
	ActorUser   Actor = "user"
	ActorShop   Actor = "shop"
	ActorSystem Actor = "system" // no-show detector, workers
)

// IsValid reports whether the actor is one of the known values
func (a Actor) IsValid() bool {
	return a == ActorUser || a == ActorShop || a == ActorSystem
}

// transitions lists the allowed edges of the reservation state machine
var transitions = map[ReservationStatus][]ReservationStatus{
	StatusRequested: {StatusConfirmed, StatusCancelledByUser, StatusCancelledByShop, StatusNoShow},
	StatusConfirmed: {StatusCompleted, StatusCancelledByUser, StatusCancelledByShop, StatusNoShow},
}

// CanTransition reports whether the state machine permits from -> to
func CanTransition(from, to ReservationStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsValid reports whether the status is a known lifecycle state
func (s ReservationStatus) IsValid() bool {
	switch s {
	case StatusRequested, StatusConfirmed, StatusCompleted,
		StatusCancelledByUser, StatusCancelledByShop, StatusNoShow:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible
func (s ReservationStatus) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// ReleasedSlot reports whether the reservation left its window by cancellation or no-show
func (s ReservationStatus) ReleasedSlot() bool {
	for _, inactive := range InactiveStatuses {
		if s == inactive {
			return true
		}
	}
	return false
}

// HoldsSlot reports whether a reservation in this status occupies its window
func (s ReservationStatus) HoldsSlot() bool {
	for _, active := range ActiveStatuses {
		if s == active {
			return true
		}
	}
	return false
}

// Reservation represents one booking of one or more services at a shop
type Reservation struct {
	ID              int64
	CustomerID      int64
	ShopID          int64
	ReservedAt      time.Time // combined date and start time
	DurationMinutes int
	Status          ReservationStatus

	TotalAmount     int64
	DepositAmount   int64 // deposit owed at booking
	DepositPaid     int64 // deposit actually collected
	RemainingAmount int64 // owed on-site
	PointsUsed      int64
	PointsToEarn    int64
	SpecialRequests *string

	PaymentStatus    PaymentStatus
	RefundAmount     int64
	RefundPercentage int // decided when the reservation released its window
	RefundAttempts   int

	ConfirmedAt        *time.Time
	CompletedAt        *time.Time
	CancelledAt        *time.Time
	CancellationReason *string

	Items []ReservationLineItem

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EndsAt returns the exclusive end of the reserved window
func (r *Reservation) EndsAt() time.Time {
	return r.ReservedAt.Add(time.Duration(r.DurationMinutes) * time.Minute)
}

// Window returns the reserved [start, end) range
func (r *Reservation) Window() Window {
	return Window{Start: r.ReservedAt, End: r.EndsAt()}
}

// CanTransitionTo reports whether the reservation may move to the given status
func (r *Reservation) CanTransitionTo(to ReservationStatus) bool {
	return CanTransition(r.Status, to)
}

// IsCancelled returns true if the reservation was cancelled by either side
func (r *Reservation) IsCancelled() bool {
	return r.Status == StatusCancelledByUser || r.Status == StatusCancelledByShop
}

// ApplyTransition moves the reservation to a new status and stamps the matching timestamp.
// It does not check whether the transition is allowed.
func (r *Reservation) ApplyTransition(to ReservationStatus, at time.Time) {
	r.Status = to
	switch to {
	case StatusConfirmed:
		r.ConfirmedAt = &at
	case StatusCompleted:
		r.CompletedAt = &at
	case StatusCancelledByUser, StatusCancelledByShop:
		r.CancelledAt = &at
	}
	r.UpdatedAt = at
}

// SettleDeposit records the outcome of a deposit charge.
// A deposit collected after the reservation released its window is queued for refund
// at the percentage decided on release, or kept as no_refund when that percentage is zero.
func (r *Reservation) SettleDeposit(status PaymentStatus, paid int64, at time.Time) {
	r.DepositPaid = paid
	r.PaymentStatus = status
	r.UpdatedAt = at

	if paid <= 0 || !r.Status.ReleasedSlot() {
		return
	}
	r.RefundAmount = paid * int64(r.RefundPercentage) / 100
	if r.RefundAmount > 0 {
		r.PaymentStatus = PaymentRefundPending
	} else {
		r.PaymentStatus = PaymentNoRefund
	}
}

// ReservationLineItem is one service within a reservation with its price frozen at booking time
type ReservationLineItem struct {
	ID              int64
	ReservationID   int64
	ServiceID       int64
	ServiceName     string
	Quantity        int
	UnitPrice       int64
	UnitDeposit     int64
	DurationMinutes int // per unit
}

// Subtotal returns the price of the line
func (li ReservationLineItem) Subtotal() int64 {
	return li.UnitPrice * int64(li.Quantity)
}

// DepositSubtotal returns the deposit owed for the line
func (li ReservationLineItem) DepositSubtotal() int64 {
	return li.UnitDeposit * int64(li.Quantity)
}

// Totals aggregates money and duration over line items
type Totals struct {
	TotalAmount     int64
	DepositAmount   int64
	DurationMinutes int
}

// ComputeTotals sums frozen line prices, deposits and durations.
// Lines without a duration contribute defaultDuration per unit.
func ComputeTotals(items []ReservationLineItem, defaultDuration int) Totals {
	var t Totals
	for _, item := range items {
		t.TotalAmount += item.Subtotal()
		t.DepositAmount += item.DepositSubtotal()

		d := item.DurationMinutes
		if d <= 0 {
			d = defaultDuration
		}
		t.DurationMinutes += d * item.Quantity
	}
	return t
}

// EarnedPoints returns floor(total * ratePercent / 100)
func EarnedPoints(total int64, ratePercent float64) int64 {
	if total <= 0 || ratePercent <= 0 {
		return 0
	}
	// basis points avoid float drift for rates like 2.5
	bp := int64(ratePercent*100 + 0.5)
	return total * bp / 10000
}
