package balance

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// PointsRepository интерфейс реестра баллов
type PointsRepository interface {
	LockCustomer(ctx context.Context, customerID int64) error
	PromoteMatured(ctx context.Context, customerID *int64, now time.Time) (int64, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]*domain.PointTransaction, error)
	ListCustomerIDs(ctx context.Context) ([]int64, error)
}

// BalanceRepository интерфейс хранилища материализованных балансов
type BalanceRepository interface {
	Upsert(ctx context.Context, b *domain.PointBalance) error
	Get(ctx context.Context, customerID int64) (*domain.PointBalance, error)
}

// Cache интерфейс кэша балансов
type Cache interface {
	Get(ctx context.Context, customerID int64) (*domain.PointBalance, error)
	Set(ctx context.Context, b *domain.PointBalance) error
	Invalidate(ctx context.Context, customerID int64) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
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
