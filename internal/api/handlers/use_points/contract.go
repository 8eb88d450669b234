package use_points

import (
	"context"

	"github.com/m04kA/SMC-ReservationService/internal/service/points/models"
)

type PointsService interface {
	Use(ctx context.Context, req *models.UseRequest) (*models.UseResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
