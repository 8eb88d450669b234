// Package balance поддерживает материализованные балансы баллов.
// Баланс производный: он пересчитывается из реестра после каждой записи и
// периодической сверкой, а чтения допускают отставание от последней записи.
package balance

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	balanceCache "github.com/m04kA/SMC-ReservationService/internal/infra/cache/balance"
	balanceRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/balance"
)

// ReconcileResult итог сверки всех балансов
type ReconcileResult struct {
	Customers int
	Drifted   int
	Failed    int
}

// Materializer материализатор балансов
type Materializer struct {
	points    PointsRepository
	balances  BalanceRepository
	cache     Cache
	txManager TransactionManager
	clock     Clock
	logger    Logger
}

// NewMaterializer создает материализатор. cache может быть nil.
func NewMaterializer(
	points PointsRepository,
	balances BalanceRepository,
	cache Cache,
	txManager TransactionManager,
	clock Clock,
	logger Logger,
) *Materializer {
	if cache == nil {
		cache = noCache{}
	}
	return &Materializer{
		points:    points,
		balances:  balances,
		cache:     cache,
		txManager: txManager,
		clock:     clock,
		logger:    logger,
	}
}

// Recalculate пересчитывает баланс клиента из реестра и сохраняет его.
// Перед расчётом созревшие pending записи переводятся в available.
func (m *Materializer) Recalculate(ctx context.Context, customerID int64) (*domain.PointBalance, error) {
	var b domain.PointBalance
	err := m.txManager.Do(ctx, func(ctx context.Context) error {
		now := m.clock.Now()

		if err := m.points.LockCustomer(ctx, customerID); err != nil {
			return fmt.Errorf("%w: Recalculate - lock customer: %v", ErrInternal, err)
		}
		if _, err := m.points.PromoteMatured(ctx, &customerID, now); err != nil {
			return fmt.Errorf("%w: Recalculate - promote matured: %v", ErrInternal, err)
		}

		entries, err := m.points.ListByCustomer(ctx, customerID)
		if err != nil {
			return fmt.Errorf("%w: Recalculate - list entries: %v", ErrInternal, err)
		}

		b = Compute(customerID, entries, now)
		if err := m.balances.Upsert(ctx, &b); err != nil {
			return fmt.Errorf("%w: Recalculate - upsert balance: %v", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		m.logger.Error("Recalculate: customer=%d: %v", customerID, err)
		return nil, err
	}

	if err := m.cache.Set(ctx, &b); err != nil {
		m.logger.Warn("Recalculate: cache set failed for customer=%d: %v", customerID, err)
	}

	return &b, nil
}

// Refresh сбрасывает кэш и пересчитывает баланс. Ошибки только логируются:
// баланс будет исправлен следующим чтением или сверкой.
func (m *Materializer) Refresh(ctx context.Context, customerID int64) {
	if err := m.cache.Invalidate(ctx, customerID); err != nil {
		m.logger.Warn("Refresh: cache invalidate failed for customer=%d: %v", customerID, err)
	}
	if _, err := m.Recalculate(ctx, customerID); err != nil {
		m.logger.Warn("Refresh: recalculation deferred for customer=%d: %v", customerID, err)
	}
}

// Get возвращает баланс клиента: из кэша, а при промахе пересчитывает из реестра
func (m *Materializer) Get(ctx context.Context, customerID int64) (*domain.PointBalance, error) {
	cached, err := m.cache.Get(ctx, customerID)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, balanceCache.ErrCacheMiss) {
		m.logger.Warn("Get: cache unavailable for customer=%d: %v", customerID, err)
	}

	return m.Recalculate(ctx, customerID)
}

// ReconcileAll пересчитывает балансы всех клиентов и считает расхождения с сохранёнными
func (m *Materializer) ReconcileAll(ctx context.Context) (*ReconcileResult, error) {
	ids, err := m.points.ListCustomerIDs(ctx)
	if err != nil {
		m.logger.Error("ReconcileAll: list customers: %v", err)
		return nil, fmt.Errorf("%w: ReconcileAll - list customers: %v", ErrInternal, err)
	}

	result := &ReconcileResult{Customers: len(ids)}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		stored, err := m.balances.Get(ctx, id)
		if err != nil && !errors.Is(err, balanceRepo.ErrBalanceNotFound) {
			m.logger.Warn("ReconcileAll: load stored balance customer=%d: %v", id, err)
		}

		fresh, err := m.Recalculate(ctx, id)
		if err != nil {
			result.Failed++
			continue
		}

		if stored == nil || !sameTotals(stored, fresh) {
			result.Drifted++
			m.logger.Info("ReconcileAll: customer=%d balance corrected (available=%d pending=%d)", id, fresh.Available, fresh.Pending)
		}
	}

	m.logger.Info("ReconcileAll: customers=%d drifted=%d failed=%d", result.Customers, result.Drifted, result.Failed)
	return result, nil
}

func sameTotals(a, b *domain.PointBalance) bool {
	return a.TotalEarned == b.TotalEarned &&
		a.TotalUsed == b.TotalUsed &&
		a.Available == b.Available &&
		a.Pending == b.Pending
}

type noCache struct{}

func (noCache) Get(context.Context, int64) (*domain.PointBalance, error) {
	return nil, balanceCache.ErrCacheMiss
}

func (noCache) Set(context.Context, *domain.PointBalance) error { return nil }

func (noCache) Invalidate(context.Context, int64) error { return nil }
