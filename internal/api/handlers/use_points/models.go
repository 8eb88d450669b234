package use_points

import (
	"github.com/m04kA/SMC-ReservationService/internal/service/points/models"
)

// UsePointsRequest HTTP request model
type UsePointsRequest struct {
	ReservationID int64   `json:"reservationId"`
	Amount        int64   `json:"amount"`
	Description   *string `json:"description,omitempty"`
}

// ToServiceRequest конвертирует HTTP request в модель сервиса
func (r *UsePointsRequest) ToServiceRequest(userID, customerID int64) *models.UseRequest {
	return &models.UseRequest{
		UserID:        userID,
		CustomerID:    customerID,
		ReservationID: r.ReservationID,
		Amount:        r.Amount,
		Description:   r.Description,
	}
}
