package transition_reservation

import (
	"context"

	"github.com/m04kA/SMC-ReservationService/internal/service/reservations/models"
)

// TransitionFunc метод сервиса, выполняющий один переход статуса
type TransitionFunc func(ctx context.Context, id int64, req *models.TransitionRequest) (*models.ReservationResponse, error)

type ReservationService interface {
	Confirm(ctx context.Context, id int64, req *models.TransitionRequest) (*models.ReservationResponse, error)
	Complete(ctx context.Context, id int64, req *models.TransitionRequest) (*models.ReservationResponse, error)
	MarkNoShow(ctx context.Context, id int64, req *models.TransitionRequest) (*models.ReservationResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
