package conflicts

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// ReservationRepository чтение занятых окон магазина
type ReservationRepository interface {
	LockShop(ctx context.Context, shopID int64) error
	ListOverlapping(ctx context.Context, shopID int64, w domain.Window, excludeID *int64) ([]*domain.Reservation, error)
}

// Clock источник текущего времени
type Clock interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
