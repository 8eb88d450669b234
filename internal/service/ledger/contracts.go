package ledger

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/notification"
)

// PointsRepository интерфейс реестра баллов
type PointsRepository interface {
	Create(ctx context.Context, t *domain.PointTransaction) error
	LockCustomer(ctx context.Context, customerID int64) error
	PromoteMatured(ctx context.Context, customerID *int64, now time.Time) (int64, error)
	ListSpendable(ctx context.Context, customerID int64, now time.Time) ([]*domain.PointTransaction, error)
	MarkUsed(ctx context.Context, id int64, at time.Time) error
	Shrink(ctx context.Context, id int64, remaining int64, at time.Time) error
	ListExpirable(ctx context.Context, now time.Time, limit int) ([]*domain.PointTransaction, error)
	MarkExpired(ctx context.Context, id int64, at time.Time) (bool, error)
	GetByReservation(ctx context.Context, reservationID int64, kind domain.TransactionKind) (*domain.PointTransaction, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// BalanceRefresher пересчитывает материализованный баланс после записи в реестр
type BalanceRefresher interface {
	Refresh(ctx context.Context, customerID int64)
}

// Notifier интерфейс публикации событий
type Notifier interface {
	Publish(ctx context.Context, event notification.Event)
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
