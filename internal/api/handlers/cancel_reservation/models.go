package cancel_reservation

import (
	"strings"

	"github.com/m04kA/SMC-ReservationService/internal/service/reservations/models"
)

// CancelReservationRequest HTTP request model
type CancelReservationRequest struct {
	CancellationReason *string `json:"cancellationReason,omitempty"`
}

// ToServiceRequest конвертирует HTTP request в модель сервиса
func (r *CancelReservationRequest) ToServiceRequest(userID int64) *models.CancelRequest {
	req := &models.CancelRequest{UserID: userID}
	if r.CancellationReason != nil && strings.TrimSpace(*r.CancellationReason) != "" {
		req.Reason = r.CancellationReason
	}
	return req
}
