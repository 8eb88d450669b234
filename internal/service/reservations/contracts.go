package reservations

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/catalog"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/notification"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/payment"
	"github.com/m04kA/SMC-ReservationService/internal/service/ledger"
	"github.com/m04kA/SMC-ReservationService/internal/service/refundpolicy"
)

// ReservationRepository интерфейс репозитория бронирований
type ReservationRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Reservation, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Reservation, error)
	UpdateTransition(ctx context.Context, res *domain.Reservation, from domain.ReservationStatus) error
	UpdateSchedule(ctx context.Context, res *domain.Reservation) error
	MarkRefund(ctx context.Context, id int64, status domain.PaymentStatus, at time.Time) error
	ListPendingRefunds(ctx context.Context, limit, maxAttempts int) ([]*domain.Reservation, error)
	ListByShopInRange(ctx context.Context, shopID int64, w domain.Window) ([]*domain.Reservation, error)
}

// HistoryRepository интерфейс журнала статусов и переносов
type HistoryRepository interface {
	CreateStatusLog(ctx context.Context, log *domain.StatusLog) error
	CreateReschedule(ctx context.Context, h *domain.RescheduleHistory) error
	ListStatusLogs(ctx context.Context, reservationID int64) ([]domain.StatusLog, error)
	ListReschedules(ctx context.Context, reservationID int64) ([]domain.RescheduleHistory, error)
}

// ConflictDetector проверка свободного окна
type ConflictDetector interface {
	Check(ctx context.Context, op string, shopID int64, w domain.Window, excludeID *int64) error
}

// PointLedger операции реестра баллов, нужные жизненному циклу бронирования
type PointLedger interface {
	Credit(ctx context.Context, req ledger.CreditRequest) (*domain.PointTransaction, error)
	Reverse(ctx context.Context, customerID, reservationID int64) (*domain.PointTransaction, error)
}

// RefundPolicy правила возврата депозита
type RefundPolicy interface {
	Decide(r *domain.Reservation, cause refundpolicy.Cause, now time.Time) refundpolicy.Decision
}

// PaymentClient интерфейс клиента платёжного сервиса
type PaymentClient interface {
	Refund(ctx context.Context, reservationID int64, amount int64) (*payment.Result, error)
}

// CatalogClient интерфейс клиента каталога магазинов
type CatalogClient interface {
	GetShop(ctx context.Context, shopID int64) (*catalog.Shop, error)
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
