package get_available_slots

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/catalog"
)

// ReservationRepository интерфейс репозитория бронирований
type ReservationRepository interface {
	// ListByShopInRange получает активные бронирования магазина, пересекающие диапазон
	ListByShopInRange(ctx context.Context, shopID int64, w domain.Window) ([]*domain.Reservation, error)
}

// CatalogClient интерфейс клиента каталога магазинов
type CatalogClient interface {
	GetShop(ctx context.Context, shopID int64) (*catalog.Shop, error)
	GetService(ctx context.Context, shopID, serviceID int64) (*catalog.Service, error)
}

// Clock интерфейс для получения текущего времени
type Clock interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
