package get_point_balance

import (
	"context"

	"github.com/m04kA/SMC-ReservationService/internal/service/points/models"
)

type PointsService interface {
	Balance(ctx context.Context, userID, customerID int64) (*models.BalanceResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
