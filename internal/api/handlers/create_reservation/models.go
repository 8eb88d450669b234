package create_reservation

import (
	"fmt"
	"time"

	createReservation "github.com/m04kA/SMC-ReservationService/internal/usecase/create_reservation"
)

// CreateReservationRequest HTTP request model
type CreateReservationRequest struct {
	ShopID          int64         `json:"shopId"`
	ReservedAt      string        `json:"reservedAt"` // RFC3339, "2026-05-05T14:00:00+03:00"
	Items           []ItemRequest `json:"items"`
	PointsToUse     int64         `json:"pointsToUse"`
	SpecialRequests *string       `json:"specialRequests,omitempty"`
}

// ItemRequest услуга в запросе
type ItemRequest struct {
	ServiceID int64 `json:"serviceId"`
	Quantity  int   `json:"quantity"`
}

// ToUseCaseRequest конвертирует HTTP request в модель use case
func (r *CreateReservationRequest) ToUseCaseRequest(customerID int64) (*createReservation.Request, error) {
	reservedAt, err := time.Parse(time.RFC3339, r.ReservedAt)
	if err != nil {
		return nil, fmt.Errorf("parse reservedAt: %w", err)
	}

	items := make([]createReservation.ItemRequest, 0, len(r.Items))
	for _, item := range r.Items {
		quantity := item.Quantity
		if quantity == 0 {
			quantity = 1
		}
		items = append(items, createReservation.ItemRequest{ServiceID: item.ServiceID, Quantity: quantity})
	}

	return &createReservation.Request{
		CustomerID:      customerID,
		ShopID:          r.ShopID,
		ReservedAt:      reservedAt,
		Items:           items,
		PointsToUse:     r.PointsToUse,
		SpecialRequests: r.SpecialRequests,
	}, nil
}
