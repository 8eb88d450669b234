package balance

import (
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// Compute выводит баланс клиента из записей реестра на момент now.
//
//   - total earned: сумма исходных размеров начислений любого статуса
//   - total used: сумма списаний за вычетом возвратов
//   - available: сумма кредитов, доступных к списанию на now
//   - pending: сумма ещё не доступных начислений
//
// Функция не зависит ни от чего, кроме записей, поэтому баланс всегда можно перестроить.
func Compute(customerID int64, entries []*domain.PointTransaction, now time.Time) domain.PointBalance {
	b := domain.PointBalance{CustomerID: customerID, LastCalculatedAt: now}

	var used, reversed int64
	for _, e := range entries {
		if e.Kind.IsEarning() && e.InitialAmount > 0 {
			b.TotalEarned += e.InitialAmount
		}

		switch e.Kind {
		case domain.KindUsedService:
			used += -e.Amount
		case domain.KindReversal:
			reversed += e.InitialAmount
		}

		switch {
		case e.IsSpendable(now):
			b.Available += e.Amount
		case e.Status == domain.TxPending && e.Amount > 0:
			b.Pending += e.Amount
		}
	}

	b.TotalUsed = used - reversed
	if b.TotalUsed < 0 {
		b.TotalUsed = 0
	}

	return b
}
