package ledger

import (
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// Config параметры реестра
type Config struct {
	PendingWindow time.Duration // задержка между начислением и доступностью
	Expiry        time.Duration // срок жизни начисления от момента создания, 0 - бессрочно
}

// DebitRequest запрос на списание баллов
type DebitRequest struct {
	CustomerID    int64
	ReservationID int64
	Amount        int64
	Description   *string
}

// CreditRequest запрос на начисление баллов
type CreditRequest struct {
	CustomerID    int64
	ReservationID *int64
	Amount        int64
	Kind          domain.TransactionKind
	Description   *string
}

// Consumption сколько списано с одного кредита
type Consumption struct {
	TransactionID int64
	Taken         int64
	Remaining     int64 // остаток кредита после списания
}

// Exhausted кредит израсходован полностью
func (c Consumption) Exhausted() bool {
	return c.Remaining == 0
}

// DebitResult результат списания
type DebitResult struct {
	Debit    *domain.PointTransaction
	Consumed []Consumption
}

// SweepResult результат прохода по истёкшим начислениям
type SweepResult struct {
	Promoted      int64
	Expired       int
	ExpiredPoints int64
}
