package reschedule_reservation

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/service/reservations/models"
)

// RescheduleReservationRequest HTTP request model
type RescheduleReservationRequest struct {
	ReservedAt string  `json:"reservedAt"` // RFC3339
	Reason     *string `json:"reason,omitempty"`
	Fee        int64   `json:"fee"`
}

// ToServiceRequest конвертирует HTTP request в модель сервиса
func (r *RescheduleReservationRequest) ToServiceRequest(userID int64) (*models.RescheduleRequest, error) {
	reservedAt, err := time.Parse(time.RFC3339, r.ReservedAt)
	if err != nil {
		return nil, fmt.Errorf("parse reservedAt: %w", err)
	}

	return &models.RescheduleRequest{
		UserID:     userID,
		ReservedAt: reservedAt,
		Reason:     r.Reason,
		Fee:        r.Fee,
	}, nil
}
