package get_shop_reservations

import (
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/service/reservations/models"
)

// ToServiceRequest формирует запрос к сервису из query параметров
func ToServiceRequest(shopID, userID int64, dateStr string) (*models.ShopReservationsRequest, error) {
	date, err := time.Parse(domain.DateFormat, dateStr)
	if err != nil {
		return nil, err
	}

	return &models.ShopReservationsRequest{
		UserID: userID,
		ShopID: shopID,
		Date:   date,
	}, nil
}
