package memory

import (
	"context"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	balanceRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/balance"
)

// BalanceRepository in-memory репозиторий балансов
type BalanceRepository struct {
	store *Store
}

// Upsert сохраняет баланс клиента
func (r *BalanceRepository) Upsert(ctx context.Context, b *domain.PointBalance) error {
	return r.store.write(ctx, func(data *state) error {
		data.balances[b.CustomerID] = *b
		return nil
	})
}

// Get получает баланс клиента
func (r *BalanceRepository) Get(_ context.Context, customerID int64) (*domain.PointBalance, error) {
	var (
		b     domain.PointBalance
		found bool
	)
	r.store.read(func(data *state) {
		b, found = data.balances[customerID]
	})
	if !found {
		return nil, balanceRepo.ErrBalanceNotFound
	}
	return &b, nil
}
