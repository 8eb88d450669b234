package balance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ReservationService/pkg/psqlbuilder"
)

// Repository репозиторий материализованных балансов баллов
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория балансов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Upsert сохраняет пересчитанный баланс клиента
func (r *Repository) Upsert(ctx context.Context, b *domain.PointBalance) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("point_balances").
		Columns("customer_id", "total_earned", "total_used", "available_balance", "pending_balance", "last_calculated_at").
		Values(b.CustomerID, b.TotalEarned, b.TotalUsed, b.Available, b.Pending, b.LastCalculatedAt).
		Suffix(`ON CONFLICT (customer_id) DO UPDATE SET
			total_earned = EXCLUDED.total_earned,
			total_used = EXCLUDED.total_used,
			available_balance = EXCLUDED.available_balance,
			pending_balance = EXCLUDED.pending_balance,
			last_calculated_at = EXCLUDED.last_calculated_at`).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Upsert - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: Upsert - execute insert: %v", ErrExecQuery, err)
	}

	return nil
}

// Get получает материализованный баланс клиента
func (r *Repository) Get(ctx context.Context, customerID int64) (*domain.PointBalance, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("customer_id", "total_earned", "total_used", "available_balance", "pending_balance", "last_calculated_at").
		From("point_balances").
		Where(squirrel.Eq{"customer_id": customerID}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Get - build select query: %v", ErrBuildQuery, err)
	}

	var b domain.PointBalance
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&b.CustomerID,
		&b.TotalEarned,
		&b.TotalUsed,
		&b.Available,
		&b.Pending,
		&b.LastCalculatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBalanceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Get - scan row: %v", ErrScanRow, err)
	}

	return &b, nil
}
