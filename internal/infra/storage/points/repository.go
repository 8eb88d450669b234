package points

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ReservationService/pkg/psqlbuilder"
)

const (
	pqUniqueViolation = "23505"

	lockCustomerQuery = "SELECT pg_advisory_xact_lock(2, ($1 % 2147483647)::int)"
)

var transactionColumns = []string{
	"id",
	"customer_id",
	"reservation_id",
	"amount",
	"initial_amount",
	"kind",
	"status",
	"description",
	"available_from",
	"expires_at",
	"source_transaction_id",
	"created_at",
	"updated_at",
}

// Repository репозиторий реестра баллов
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория баллов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create добавляет запись в реестр.
// Повторное начисление за бронирование, повторный возврат и повторное сгорание
// отклоняются уникальными индексами и возвращают ErrDuplicateTransaction.
func (r *Repository) Create(ctx context.Context, t *domain.PointTransaction) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("point_transactions").
		Columns(
			"customer_id",
			"reservation_id",
			"amount",
			"initial_amount",
			"kind",
			"status",
			"description",
			"available_from",
			"expires_at",
			"source_transaction_id",
			"created_at",
			"updated_at",
		).
		Values(
			t.CustomerID,
			t.ReservationID,
			t.Amount,
			t.InitialAmount,
			t.Kind,
			t.Status,
			t.Description,
			t.AvailableFrom,
			t.ExpiresAt,
			t.SourceTransactionID,
			t.CreatedAt,
			t.UpdatedAt,
		).
		Suffix("RETURNING id").
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	if err := executor.QueryRowContext(ctx, query, args...).Scan(&t.ID); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return ErrDuplicateTransaction
		}
		return fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	return nil
}

// LockCustomer берёт advisory-блокировку реестра клиента до конца транзакции
func (r *Repository) LockCustomer(ctx context.Context, customerID int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	if _, err := executor.ExecContext(ctx, lockCustomerQuery, customerID); err != nil {
		return fmt.Errorf("%w: LockCustomer - acquire lock: %v", ErrExecQuery, err)
	}
	return nil
}

// PromoteMatured переводит созревшие pending записи в available.
// Если customerID == nil, обрабатываются все клиенты.
func (r *Repository) PromoteMatured(ctx context.Context, customerID *int64, now time.Time) (int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Update("point_transactions").
		Set("status", domain.TxAvailable).
		Set("updated_at", now).
		Where(squirrel.Eq{"status": domain.TxPending}).
		Where(squirrel.LtOrEq{"available_from": now})

	if customerID != nil {
		builder = builder.Where(squirrel.Eq{"customer_id": *customerID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: PromoteMatured - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: PromoteMatured - execute update: %v", ErrExecQuery, err)
	}

	promoted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: PromoteMatured - get rows affected: %v", ErrExecQuery, err)
	}

	return promoted, nil
}

// ListSpendable получает доступные к списанию кредиты клиента в порядке FIFO
// (сначала раньше ставшие доступными, затем раньше созданные) и блокирует их строки.
func (r *Repository) ListSpendable(ctx context.Context, customerID int64, now time.Time) ([]*domain.PointTransaction, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Select(transactionColumns...).
		From("point_transactions").
		Where(squirrel.Eq{"customer_id": customerID}).
		Where(squirrel.Eq{"status": domain.TxAvailable}).
		Where(squirrel.Gt{"amount": 0}).
		Where(squirrel.LtOrEq{"available_from": now}).
		Where(squirrel.Or{
			squirrel.Eq{"expires_at": nil},
			squirrel.Gt{"expires_at": now},
		}).
		OrderBy("available_from ASC", "created_at ASC", "id ASC")

	if dbmetrics.IsInTransaction(ctx) {
		builder = builder.Suffix("FOR UPDATE")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListSpendable - build select query: %v", ErrBuildQuery, err)
	}

	return r.query(ctx, executor, "ListSpendable", query, args)
}

// MarkUsed помечает полностью израсходованный кредит
func (r *Repository) MarkUsed(ctx context.Context, id int64, at time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("point_transactions").
		Set("status", domain.TxUsed).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"status": domain.TxAvailable}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: MarkUsed - build update query: %v", ErrBuildQuery, err)
	}

	_, err = r.execExpectOne(ctx, executor, "MarkUsed", query, args)
	return err
}

// Shrink уменьшает остаток частично израсходованного кредита
func (r *Repository) Shrink(ctx context.Context, id int64, remaining int64, at time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("point_transactions").
		Set("amount", remaining).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"status": domain.TxAvailable}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Shrink - build update query: %v", ErrBuildQuery, err)
	}

	_, err = r.execExpectOne(ctx, executor, "Shrink", query, args)
	return err
}

// ListExpirable получает доступные кредиты, срок которых истёк к моменту now
func (r *Repository) ListExpirable(ctx context.Context, now time.Time, limit int) ([]*domain.PointTransaction, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(transactionColumns...).
		From("point_transactions").
		Where(squirrel.Eq{"status": domain.TxAvailable}).
		Where(squirrel.Gt{"amount": 0}).
		Where(squirrel.NotEq{"expires_at": nil}).
		Where(squirrel.LtOrEq{"expires_at": now}).
		OrderBy("expires_at ASC", "id ASC").
		Limit(uint64(limit)).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListExpirable - build select query: %v", ErrBuildQuery, err)
	}

	return r.query(ctx, executor, "ListExpirable", query, args)
}

// MarkExpired переводит кредит в expired. Возвращает false, если кредит уже
// не доступен (сгорел в другом проходе или израсходован).
func (r *Repository) MarkExpired(ctx context.Context, id int64, at time.Time) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("point_transactions").
		Set("status", domain.TxExpired).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"status": domain.TxAvailable}).
		ToSql()

	if err != nil {
		return false, fmt.Errorf("%w: MarkExpired - build update query: %v", ErrBuildQuery, err)
	}

	updated, err := r.execExpectOne(ctx, executor, "MarkExpired", query, args)
	if errors.Is(err, ErrStatusMismatch) {
		return false, nil
	}
	return updated, err
}

// ListByCustomer получает все записи реестра клиента
func (r *Repository) ListByCustomer(ctx context.Context, customerID int64) ([]*domain.PointTransaction, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(transactionColumns...).
		From("point_transactions").
		Where(squirrel.Eq{"customer_id": customerID}).
		OrderBy("id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListByCustomer - build select query: %v", ErrBuildQuery, err)
	}

	return r.query(ctx, executor, "ListByCustomer", query, args)
}

// GetByReservation получает запись указанного вида, привязанную к бронированию
func (r *Repository) GetByReservation(ctx context.Context, reservationID int64, kind domain.TransactionKind) (*domain.PointTransaction, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(transactionColumns...).
		From("point_transactions").
		Where(squirrel.Eq{"reservation_id": reservationID}).
		Where(squirrel.Eq{"kind": kind}).
		OrderBy("id ASC").
		Limit(1).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByReservation - build select query: %v", ErrBuildQuery, err)
	}

	t, err := scanTransaction(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByReservation - scan row: %v", ErrScanRow, err)
	}

	return t, nil
}

// ListCustomerIDs получает всех клиентов, у которых есть записи в реестре
func (r *Repository) ListCustomerIDs(ctx context.Context) ([]int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("DISTINCT customer_id").
		From("point_transactions").
		OrderBy("customer_id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListCustomerIDs - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListCustomerIDs - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: ListCustomerIDs - scan row: %v", ErrScanRow, err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListCustomerIDs - rows error: %v", ErrScanRow, err)
	}

	return ids, nil
}

func (r *Repository) query(ctx context.Context, executor DBExecutor, op, query string, args []interface{}) ([]*domain.PointTransaction, error) {
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s - execute query: %v", ErrExecQuery, op, err)
	}
	defer rows.Close()

	result := make([]*domain.PointTransaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %s - scan row: %v", ErrScanRow, op, err)
		}
		result = append(result, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s - rows error: %v", ErrScanRow, op, err)
	}

	return result, nil
}

func (r *Repository) execExpectOne(ctx context.Context, executor DBExecutor, op, query string, args []interface{}) (bool, error) {
	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%w: %s - execute update: %v", ErrExecQuery, op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: %s - get rows affected: %v", ErrExecQuery, op, err)
	}

	if rowsAffected == 0 {
		return false, ErrStatusMismatch
	}

	return true, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner) (*domain.PointTransaction, error) {
	var t domain.PointTransaction

	err := row.Scan(
		&t.ID,
		&t.CustomerID,
		&t.ReservationID,
		&t.Amount,
		&t.InitialAmount,
		&t.Kind,
		&t.Status,
		&t.Description,
		&t.AvailableFrom,
		&t.ExpiresAt,
		&t.SourceTransactionID,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &t, nil
}
