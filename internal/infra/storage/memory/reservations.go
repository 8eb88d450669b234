package memory

import (
	"context"
	"sort"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	reservationRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/reservation"
)

// ReservationRepository in-memory репозиторий бронирований
type ReservationRepository struct {
	store *Store
}

// Create сохраняет бронирование; пересечение с активным бронированием магазина
// отклоняется так же, как EXCLUDE ограничение в PostgreSQL
func (r *ReservationRepository) Create(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error) {
	err := r.store.write(ctx, func(data *state) error {
		if res.Status.HoldsSlot() && overlapsActive(data, res.ShopID, res.Window(), 0) {
			return reservationRepo.ErrSlotNotAvailable
		}

		data.nextReservationID++
		res.ID = data.nextReservationID
		for i := range res.Items {
			data.nextItemID++
			res.Items[i].ID = data.nextItemID
			res.Items[i].ReservationID = res.ID
		}

		data.reservations[res.ID] = copyReservation(*res)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// GetByID получает бронирование по ID
func (r *ReservationRepository) GetByID(_ context.Context, id int64) (*domain.Reservation, error) {
	var (
		res   domain.Reservation
		found bool
	)
	r.store.read(func(data *state) {
		res, found = data.reservations[id]
		if found {
			res = copyReservation(res)
		}
	})
	if !found {
		return nil, reservationRepo.ErrReservationNotFound
	}
	return &res, nil
}

// GetByIDForUpdate получает бронирование; блокировка обеспечивается сериализацией транзакций
func (r *ReservationRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Reservation, error) {
	return r.GetByID(ctx, id)
}

// ListOverlapping получает активные бронирования магазина, пересекающие окно
func (r *ReservationRepository) ListOverlapping(_ context.Context, shopID int64, w domain.Window, excludeID *int64) ([]*domain.Reservation, error) {
	var exclude int64
	if excludeID != nil {
		exclude = *excludeID
	}

	result := make([]*domain.Reservation, 0)
	r.store.read(func(data *state) {
		for _, res := range data.reservations {
			if res.ShopID != shopID || res.ID == exclude || !res.Status.HoldsSlot() {
				continue
			}
			if res.Window().Overlaps(w) {
				c := copyReservation(res)
				c.Items = nil
				result = append(result, &c)
			}
		}
	})

	sort.Slice(result, func(i, j int) bool {
		return result[i].ReservedAt.Before(result[j].ReservedAt)
	})
	return result, nil
}

// ListByShopInRange получает активные бронирования магазина в диапазоне
func (r *ReservationRepository) ListByShopInRange(ctx context.Context, shopID int64, w domain.Window) ([]*domain.Reservation, error) {
	return r.ListOverlapping(ctx, shopID, w, nil)
}

// ListPendingRefunds получает бронирования, ожидающие возврата, с неисчерпанными попытками
func (r *ReservationRepository) ListPendingRefunds(_ context.Context, limit, maxAttempts int) ([]*domain.Reservation, error) {
	result := make([]*domain.Reservation, 0)
	r.store.read(func(data *state) {
		for _, res := range data.reservations {
			if res.PaymentStatus == domain.PaymentRefundPending && res.RefundAttempts < maxAttempts {
				c := copyReservation(res)
				result = append(result, &c)
			}
		}
	})

	sort.Slice(result, func(i, j int) bool {
		if result[i].UpdatedAt.Equal(result[j].UpdatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].UpdatedAt.Before(result[j].UpdatedAt)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// UpdateTransition записывает переход, если текущий статус равен from
func (r *ReservationRepository) UpdateTransition(ctx context.Context, res *domain.Reservation, from domain.ReservationStatus) error {
	return r.store.write(ctx, func(data *state) error {
		stored, ok := data.reservations[res.ID]
		if !ok || stored.Status != from {
			return reservationRepo.ErrStatusMismatch
		}

		stored.Status = res.Status
		stored.ConfirmedAt = res.ConfirmedAt
		stored.CompletedAt = res.CompletedAt
		stored.CancelledAt = res.CancelledAt
		stored.CancellationReason = res.CancellationReason
		stored.PaymentStatus = res.PaymentStatus
		stored.RefundAmount = res.RefundAmount
		stored.RefundPercentage = res.RefundPercentage
		stored.UpdatedAt = res.UpdatedAt
		data.reservations[res.ID] = stored
		return nil
	})
}

// UpdateSchedule переносит бронирование
func (r *ReservationRepository) UpdateSchedule(ctx context.Context, res *domain.Reservation) error {
	return r.store.write(ctx, func(data *state) error {
		stored, ok := data.reservations[res.ID]
		if !ok || stored.Status != res.Status {
			return reservationRepo.ErrStatusMismatch
		}
		if overlapsActive(data, res.ShopID, res.Window(), res.ID) {
			return reservationRepo.ErrSlotNotAvailable
		}

		stored.ReservedAt = res.ReservedAt
		stored.RemainingAmount = res.RemainingAmount
		stored.UpdatedAt = res.UpdatedAt
		data.reservations[res.ID] = stored
		return nil
	})
}

// UpdatePoints сохраняет применённые баллы
func (r *ReservationRepository) UpdatePoints(ctx context.Context, res *domain.Reservation) error {
	return r.store.write(ctx, func(data *state) error {
		stored, ok := data.reservations[res.ID]
		if !ok || stored.Status != res.Status {
			return reservationRepo.ErrStatusMismatch
		}

		stored.PointsUsed = res.PointsUsed
		stored.RemainingAmount = res.RemainingAmount
		stored.UpdatedAt = res.UpdatedAt
		data.reservations[res.ID] = stored
		return nil
	})
}

// MarkDeposit сохраняет результат списания депозита; депозит отменённого бронирования уходит на возврат
func (r *ReservationRepository) MarkDeposit(ctx context.Context, id int64, status domain.PaymentStatus, paid int64, at time.Time) error {
	return r.store.write(ctx, func(data *state) error {
		stored, ok := data.reservations[id]
		if !ok || stored.PaymentStatus != domain.PaymentAwaitingDeposit {
			return reservationRepo.ErrStatusMismatch
		}

		stored.SettleDeposit(status, paid, at)
		data.reservations[id] = stored
		return nil
	})
}

// MarkRefund фиксирует попытку возврата
func (r *ReservationRepository) MarkRefund(ctx context.Context, id int64, status domain.PaymentStatus, at time.Time) error {
	return r.store.write(ctx, func(data *state) error {
		stored, ok := data.reservations[id]
		if !ok || stored.PaymentStatus != domain.PaymentRefundPending {
			return reservationRepo.ErrStatusMismatch
		}

		stored.PaymentStatus = status
		stored.RefundAttempts++
		stored.UpdatedAt = at
		data.reservations[id] = stored
		return nil
	})
}

// LockShop ничего не делает: транзакции хранилища уже выполняются последовательно
func (r *ReservationRepository) LockShop(_ context.Context, _ int64) error {
	return nil
}

func overlapsActive(data *state, shopID int64, w domain.Window, excludeID int64) bool {
	for _, res := range data.reservations {
		if res.ShopID == shopID && res.ID != excludeID && res.Status.HoldsSlot() && res.Window().Overlaps(w) {
			return true
		}
	}
	return false
}
