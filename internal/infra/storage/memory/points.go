package memory

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	pointsRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/points"
)

// PointsRepository in-memory реестр баллов
type PointsRepository struct {
	store *Store
}

// Create добавляет запись; повторы начисления, возврата и сгорания отклоняются
func (r *PointsRepository) Create(ctx context.Context, t *domain.PointTransaction) error {
	return r.store.write(ctx, func(data *state) error {
		for _, existing := range data.points {
			if isDuplicate(existing, t) {
				return pointsRepo.ErrDuplicateTransaction
			}
		}

		data.nextPointID++
		t.ID = data.nextPointID
		data.points[t.ID] = *t
		return nil
	})
}

// LockCustomer ничего не делает: транзакции хранилища уже выполняются последовательно
func (r *PointsRepository) LockCustomer(_ context.Context, _ int64) error {
	return nil
}

// PromoteMatured переводит созревшие pending записи в available
func (r *PointsRepository) PromoteMatured(ctx context.Context, customerID *int64, now time.Time) (int64, error) {
	var promoted int64
	err := r.store.write(ctx, func(data *state) error {
		for id, t := range data.points {
			if customerID != nil && t.CustomerID != *customerID {
				continue
			}
			if t.IsMatured(now) {
				t.Status = domain.TxAvailable
				t.UpdatedAt = now
				data.points[id] = t
				promoted++
			}
		}
		return nil
	})
	return promoted, err
}

// ListSpendable получает доступные кредиты клиента в порядке FIFO
func (r *PointsRepository) ListSpendable(_ context.Context, customerID int64, now time.Time) ([]*domain.PointTransaction, error) {
	return r.filter(func(t domain.PointTransaction) bool {
		return t.CustomerID == customerID && t.IsSpendable(now)
	}, fifoLess), nil
}

// MarkUsed помечает кредит израсходованным
func (r *PointsRepository) MarkUsed(ctx context.Context, id int64, at time.Time) error {
	return r.update(ctx, id, func(t *domain.PointTransaction) {
		t.Status = domain.TxUsed
		t.UpdatedAt = at
	})
}

// Shrink уменьшает остаток кредита
func (r *PointsRepository) Shrink(ctx context.Context, id int64, remaining int64, at time.Time) error {
	return r.update(ctx, id, func(t *domain.PointTransaction) {
		t.Amount = remaining
		t.UpdatedAt = at
	})
}

// ListExpirable получает доступные кредиты с истёкшим сроком
func (r *PointsRepository) ListExpirable(_ context.Context, now time.Time, limit int) ([]*domain.PointTransaction, error) {
	result := r.filter(func(t domain.PointTransaction) bool {
		return t.Status == domain.TxAvailable && t.Amount > 0 && t.IsExpiredAt(now)
	}, func(a, b *domain.PointTransaction) bool {
		if a.ExpiresAt.Equal(*b.ExpiresAt) {
			return a.ID < b.ID
		}
		return a.ExpiresAt.Before(*b.ExpiresAt)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// MarkExpired переводит кредит в expired; false, если он уже не доступен
func (r *PointsRepository) MarkExpired(ctx context.Context, id int64, at time.Time) (bool, error) {
	err := r.update(ctx, id, func(t *domain.PointTransaction) {
		t.Status = domain.TxExpired
		t.UpdatedAt = at
	})
	if errors.Is(err, pointsRepo.ErrStatusMismatch) {
		return false, nil
	}
	return err == nil, err
}

// ListByCustomer получает все записи клиента
func (r *PointsRepository) ListByCustomer(_ context.Context, customerID int64) ([]*domain.PointTransaction, error) {
	return r.filter(func(t domain.PointTransaction) bool {
		return t.CustomerID == customerID
	}, func(a, b *domain.PointTransaction) bool {
		return a.ID < b.ID
	}), nil
}

// GetByReservation получает запись указанного вида по бронированию
func (r *PointsRepository) GetByReservation(_ context.Context, reservationID int64, kind domain.TransactionKind) (*domain.PointTransaction, error) {
	found := r.filter(func(t domain.PointTransaction) bool {
		return t.ReservationID != nil && *t.ReservationID == reservationID && t.Kind == kind
	}, func(a, b *domain.PointTransaction) bool {
		return a.ID < b.ID
	})
	if len(found) == 0 {
		return nil, pointsRepo.ErrTransactionNotFound
	}
	return found[0], nil
}

// ListCustomerIDs получает клиентов с записями в реестре
func (r *PointsRepository) ListCustomerIDs(_ context.Context) ([]int64, error) {
	seen := make(map[int64]struct{})
	r.store.read(func(data *state) {
		for _, t := range data.points {
			seen[t.CustomerID] = struct{}{}
		}
	})

	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *PointsRepository) filter(keep func(t domain.PointTransaction) bool, less func(a, b *domain.PointTransaction) bool) []*domain.PointTransaction {
	result := make([]*domain.PointTransaction, 0)
	r.store.read(func(data *state) {
		for _, t := range data.points {
			if keep(t) {
				c := t
				result = append(result, &c)
			}
		}
	})
	sort.Slice(result, func(i, j int) bool { return less(result[i], result[j]) })
	return result
}

// update применяет fn к доступной записи
func (r *PointsRepository) update(ctx context.Context, id int64, fn func(t *domain.PointTransaction)) error {
	return r.store.write(ctx, func(data *state) error {
		t, ok := data.points[id]
		if !ok || t.Status != domain.TxAvailable {
			return pointsRepo.ErrStatusMismatch
		}
		fn(&t)
		data.points[id] = t
		return nil
	})
}

func fifoLess(a, b *domain.PointTransaction) bool {
	if !a.AvailableFrom.Equal(b.AvailableFrom) {
		return a.AvailableFrom.Before(b.AvailableFrom)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

func isDuplicate(existing domain.PointTransaction, t *domain.PointTransaction) bool {
	if existing.Kind != t.Kind {
		return false
	}
	switch t.Kind {
	case domain.KindEarnedService, domain.KindReversal:
		return t.ReservationID != nil && existing.ReservationID != nil && *existing.ReservationID == *t.ReservationID
	case domain.KindExpired:
		return t.SourceTransactionID != nil && existing.SourceTransactionID != nil && *existing.SourceTransactionID == *t.SourceTransactionID
	}
	return false
}
