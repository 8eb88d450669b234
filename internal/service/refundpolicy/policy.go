// Package refundpolicy решает, положен ли возврат депозита при отмене или неявке.
// Решение не имеет побочных эффектов: применяет его вызывающая сторона.
package refundpolicy

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// Cause причина выхода бронирования из активного состояния
type Cause string

const (
	CauseUserCancellation Cause = "user_cancellation"
	CauseShopCancellation Cause = "shop_cancellation"
	CauseNoShow           Cause = "no_show"
)

// Reason объяснение решения для журнала и ответа клиенту
type Reason string

const (
	ReasonShopCancelled  Reason = "shop_cancelled"
	ReasonNoShow         Reason = "no_show"
	ReasonNoticeMet      Reason = "notice_met"
	ReasonLateCancel     Reason = "late_cancellation"
	ReasonAlreadyStarted Reason = "reservation_time_passed"
)

// Decision результат оценки
type Decision struct {
	Eligible   bool
	Percentage int
	Amount     int64
	Reason     Reason
	Notice     time.Duration // время до начала бронирования на момент оценки
}

// Err возвращает domain.ErrRefundIneligible с причиной, если возврат не положен.
// Ошибка информационная: отмена выполняется и без возврата.
func (d Decision) Err() error {
	if d.Eligible {
		return nil
	}
	return fmt.Errorf("%w: %s", domain.ErrRefundIneligible, d.Reason)
}

// Policy правила возврата. Нулевое значение использует порог 24 часа.
type Policy struct {
	FullRefundNotice time.Duration
}

// New создает политику с порогом полного возврата
func New(fullRefundNotice time.Duration) *Policy {
	return &Policy{FullRefundNotice: fullRefundNotice}
}

// CauseFor соотносит инициатора отмены с причиной
func CauseFor(actor domain.Actor) Cause {
	if actor == domain.ActorShop {
		return CauseShopCancellation
	}
	return CauseUserCancellation
}

// Evaluate возвращает процент возврата для причины и времени до начала бронирования.
// Магазин всегда возвращает 100%, неявка всегда 0%. Клиент получает 100%, если до
// начала осталось не меньше порога, иначе 0%; уже начавшееся бронирование не возвращается.
func (p *Policy) Evaluate(cause Cause, notice time.Duration) Decision {
	d := Decision{Notice: notice}

	switch cause {
	case CauseShopCancellation:
		d.Eligible, d.Percentage, d.Reason = true, 100, ReasonShopCancelled
	case CauseNoShow:
		d.Reason = ReasonNoShow
	default:
		switch {
		case notice <= 0:
			d.Reason = ReasonAlreadyStarted
		case notice >= p.threshold():
			d.Eligible, d.Percentage, d.Reason = true, 100, ReasonNoticeMet
		default:
			d.Reason = ReasonLateCancel
		}
	}

	return d
}

// Decide оценивает бронирование на момент now и считает сумму возврата от внесённого депозита
func (p *Policy) Decide(r *domain.Reservation, cause Cause, now time.Time) Decision {
	d := p.Evaluate(cause, r.ReservedAt.Sub(now))
	d.Amount = r.DepositPaid * int64(d.Percentage) / 100
	return d
}

func (p *Policy) threshold() time.Duration {
	if p.FullRefundNotice <= 0 {
		return domain.DefaultFullRefundNotice
	}
	return p.FullRefundNotice
}
