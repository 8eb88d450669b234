package points

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/catalog"
	"github.com/m04kA/SMC-ReservationService/internal/service/ledger"
)

// ReservationRepository интерфейс репозитория бронирований
type ReservationRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Reservation, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Reservation, error)
	UpdatePoints(ctx context.Context, res *domain.Reservation) error
}

// PointLedger интерфейс реестра баллов
type PointLedger interface {
	Debit(ctx context.Context, req ledger.DebitRequest) (*ledger.DebitResult, error)
	Credit(ctx context.Context, req ledger.CreditRequest) (*domain.PointTransaction, error)
}

// BalanceReader интерфейс чтения материализованного баланса
type BalanceReader interface {
	Get(ctx context.Context, customerID int64) (*domain.PointBalance, error)
}

// CatalogClient интерфейс клиента каталога магазинов
type CatalogClient interface {
	GetShop(ctx context.Context, shopID int64) (*catalog.Shop, error)
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
