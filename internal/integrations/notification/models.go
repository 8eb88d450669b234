package notification

import (
	"time"

	"github.com/google/uuid"
)

// EventType тип события жизненного цикла бронирования или реестра баллов
type EventType string

const (
	EventReservationCreated     EventType = "reservation.created"
	EventReservationConfirmed   EventType = "reservation.confirmed"
	EventReservationCompleted   EventType = "reservation.completed"
	EventReservationCancelled   EventType = "reservation.cancelled"
	EventReservationNoShow      EventType = "reservation.no_show"
	EventReservationRescheduled EventType = "reservation.rescheduled"
	EventDepositCharged         EventType = "reservation.deposit_charged"
	EventRefundIssued           EventType = "reservation.refund_issued"
	EventPointsEarned           EventType = "points.earned"
	EventPointsUsed             EventType = "points.used"
	EventPointsReversed         EventType = "points.reversed"
	EventPointsExpired          EventType = "points.expired"
)

// Event сообщение в шину уведомлений
type Event struct {
	ID            string            `json:"id"`
	Type          EventType         `json:"type"`
	OccurredAt    time.Time         `json:"occurred_at"`
	CustomerID    int64             `json:"customer_id"`
	ShopID        *int64            `json:"shop_id,omitempty"`
	ReservationID *int64            `json:"reservation_id,omitempty"`
	Status        string            `json:"status,omitempty"`
	Points        int64             `json:"points,omitempty"`
	Amount        int64             `json:"amount,omitempty"`
	Attributes    map[string]string `json:"attributes,omitempty"`
}

// NewEvent создает событие с новым идентификатором
func NewEvent(eventType EventType, customerID int64, at time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: at,
		CustomerID: customerID,
	}
}
