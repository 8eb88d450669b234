package create_reservation

import (
	"time"
)

// Config параметры создания бронирования
type Config struct {
	DefaultDurationMinutes int     // длительность услуги, если каталог её не задаёт
	EarnRatePercent        float64 // процент от суммы, начисляемый баллами после завершения
}

// Request модель запроса на создание бронирования
type Request struct {
	CustomerID      int64         // ID клиента
	ShopID          int64         // ID магазина
	ReservedAt      time.Time     // Дата и время начала
	Items           []ItemRequest // Услуги
	PointsToUse     int64         // Сколько баллов списать в счёт оплаты на месте
	SpecialRequests *string       // Пожелания клиента (опционально)
}

// ItemRequest услуга в запросе
type ItemRequest struct {
	ServiceID int64
	Quantity  int
}
