package earn_points

import (
	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/service/points/models"
)

// EarnPointsRequest HTTP request model
type EarnPointsRequest struct {
	ReservationID *int64  `json:"reservationId,omitempty"`
	Amount        int64   `json:"amount"`
	Kind          string  `json:"kind,omitempty"` // earned_service, earned_referral, bonus
	Description   *string `json:"description,omitempty"`
}

// ToServiceRequest конвертирует HTTP request в модель сервиса
func (r *EarnPointsRequest) ToServiceRequest(userID, customerID int64) *models.EarnRequest {
	return &models.EarnRequest{
		UserID:        userID,
		CustomerID:    customerID,
		ReservationID: r.ReservationID,
		Amount:        r.Amount,
		Kind:          domain.TransactionKind(r.Kind),
		Description:   r.Description,
	}
}
