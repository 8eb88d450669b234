package earn_points

import (
	"context"

	"github.com/m04kA/SMC-ReservationService/internal/service/points/models"
)

type PointsService interface {
	Earn(ctx context.Context, req *models.EarnRequest) (*models.TransactionResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
