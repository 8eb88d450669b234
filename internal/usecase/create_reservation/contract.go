package create_reservation

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/catalog"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/notification"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/payment"
	"github.com/m04kA/SMC-ReservationService/internal/service/ledger"
)

// ReservationRepository интерфейс репозитория бронирований
type ReservationRepository interface {
	Create(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error)
	GetByID(ctx context.Context, id int64) (*domain.Reservation, error)
	MarkDeposit(ctx context.Context, id int64, status domain.PaymentStatus, paid int64, at time.Time) error
}

// HistoryRepository интерфейс журнала статусов
type HistoryRepository interface {
	CreateStatusLog(ctx context.Context, log *domain.StatusLog) error
}

// ConflictDetector проверка свободного окна
type ConflictDetector interface {
	Check(ctx context.Context, op string, shopID int64, w domain.Window, excludeID *int64) error
}

// PointLedger списание баллов в пользу бронирования
type PointLedger interface {
	Debit(ctx context.Context, req ledger.DebitRequest) (*ledger.DebitResult, error)
}

// CatalogClient интерфейс клиента каталога магазинов
type CatalogClient interface {
	GetShop(ctx context.Context, shopID int64) (*catalog.Shop, error)
	GetService(ctx context.Context, shopID, serviceID int64) (*catalog.Service, error)
}

// PaymentClient интерфейс клиента платёжного сервиса
type PaymentClient interface {
	ChargeDeposit(ctx context.Context, reservationID int64, amount int64) (*payment.Result, error)
}

// Notifier интерфейс публикации событий
type Notifier interface {
	Publish(ctx context.Context, event notification.Event)
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
