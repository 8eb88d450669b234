package reservation

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

// pqExclusionViolation код нарушения EXCLUDE ограничения (пересечение окон)
const pqExclusionViolation = "23P01"

// lockShopQuery пространство 1 зарезервировано под магазины, 2 под клиентов
const lockShopQuery = "SELECT pg_advisory_xact_lock(1, ($1 % 2147483647)::int)"

var reservationColumns = []string{
	"id",
	"customer_id",
	"shop_id",
	"reserved_at",
	"duration_minutes",
	"status",
	"total_amount",
	"deposit_amount",
	"deposit_paid",
	"remaining_amount",
	"points_used",
	"points_to_earn",
	"special_requests",
	"payment_status",
	"refund_amount",
	"refund_percentage",
	"refund_attempts",
	"confirmed_at",
	"completed_at",
	"cancelled_at",
	"cancellation_reason",
	"created_at",
	"updated_at",
}

var lineItemColumns = []string{
	"id",
	"reservation_id",
	"service_id",
	"service_name",
	"quantity",
	"unit_price",
	"unit_deposit",
	"duration_minutes",
}

// Repository репозиторий для работы с бронированиями
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает бронирование вместе с позициями.
// Должен вызываться внутри транзакции, чтобы бронирование и позиции записались атомарно.
func (r *Repository) Create(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("reservations").
		Columns(
			"customer_id",
			"shop_id",
			"reserved_at",
			"ends_at",
			"duration_minutes",
			"status",
			"total_amount",
			"deposit_amount",
			"deposit_paid",
			"remaining_amount",
			"points_used",
			"points_to_earn",
			"special_requests",
			"payment_status",
			"created_at",
			"updated_at",
		).
		Values(
			res.CustomerID,
			res.ShopID,
			res.ReservedAt,
			res.EndsAt(),
			res.DurationMinutes,
			res.Status,
			res.TotalAmount,
			res.DepositAmount,
			res.DepositPaid,
			res.RemainingAmount,
			res.PointsUsed,
			res.PointsToEarn,
			res.SpecialRequests,
			res.PaymentStatus,
			res.CreatedAt,
			res.UpdatedAt,
		).
		Suffix("RETURNING id").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	if err := executor.QueryRowContext(ctx, query, args...).Scan(&res.ID); err != nil {
		if isExclusionViolation(err) {
			return nil, ErrSlotNotAvailable
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	for i := range res.Items {
		item := &res.Items[i]
		item.ReservationID = res.ID

		query, args, err := psqlbuilder.Insert("reservation_line_items").
			Columns(
				"reservation_id",
				"service_id",
				"service_name",
				"quantity",
				"unit_price",
				"unit_deposit",
				"duration_minutes",
			).
			Values(
				item.ReservationID,
				item.ServiceID,
				item.ServiceName,
				item.Quantity,
				item.UnitPrice,
				item.UnitDeposit,
				item.DurationMinutes,
			).
			Suffix("RETURNING id").
			ToSql()

		if err != nil {
			return nil, fmt.Errorf("%w: Create - build line item insert: %v", ErrBuildQuery, err)
		}

		if err := executor.QueryRowContext(ctx, query, args...).Scan(&item.ID); err != nil {
			return nil, fmt.Errorf("%w: Create - insert line item: %v", ErrExecQuery, err)
		}
	}

	return res, nil
}

// GetByID получает бронирование по ID вместе с позициями
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	return r.getByID(ctx, id, false)
}

// GetByIDForUpdate получает бронирование и блокирует строку до конца транзакции.
// Конкурентные переходы одного бронирования выполняются строго по очереди.
func (r *Repository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Reservation, error) {
	return r.getByID(ctx, id, dbmetrics.IsInTransaction(ctx))
}

func (r *Repository) getByID(ctx context.Context, id int64, forUpdate bool) (*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Select(reservationColumns...).
		From("reservations").
		Where(squirrel.Eq{"id": id})

	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	res, err := scanReservation(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan reservation: %v", ErrScanRow, err)
	}

	items, err := r.getLineItems(ctx, executor, res.ID)
	if err != nil {
		return nil, err
	}
	res.Items = items

	return res, nil
}

// ListOverlapping получает активные бронирования магазина, чьи окна строго пересекаются с w.
// Соседние окна (конец одного равен началу другого) не считаются пересечением.
func (r *Repository) ListOverlapping(ctx context.Context, shopID int64, w domain.Window, excludeID *int64) ([]*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Select(reservationColumns...).
		From("reservations").
		Where(squirrel.Eq{"shop_id": shopID}).
		Where(squirrel.Eq{"status": statusStrings(domain.ActiveStatuses)}).
		Where(squirrel.Lt{"reserved_at": w.End}).
		Where(squirrel.Gt{"ends_at": w.Start}).
		OrderBy("reserved_at ASC")

	if excludeID != nil {
		builder = builder.Where(squirrel.NotEq{"id": *excludeID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListOverlapping - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListOverlapping - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanReservations(rows)
}

// ListByShopInRange получает активные бронирования магазина, пересекающие диапазон
// (используется для построения индекса свободных слотов)
func (r *Repository) ListByShopInRange(ctx context.Context, shopID int64, w domain.Window) ([]*domain.Reservation, error) {
	return r.ListOverlapping(ctx, shopID, w, nil)
}

// ListPendingRefunds получает бронирования, по которым возврат ещё не прошёл
// и попытки не исчерпаны, начиная с давно не обновлявшихся
func (r *Repository) ListPendingRefunds(ctx context.Context, limit, maxAttempts int) ([]*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(reservationColumns...).
		From("reservations").
		Where(squirrel.Eq{"payment_status": domain.PaymentRefundPending}).
		Where(squirrel.Lt{"refund_attempts": maxAttempts}).
		OrderBy("updated_at ASC").
		Limit(uint64(limit)).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListPendingRefunds - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListPendingRefunds - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanReservations(rows)
}

// UpdateTransition записывает новый статус и связанные поля, только если текущий статус равен from.
// Если статус уже изменился конкурентно, возвращает ErrStatusMismatch.
func (r *Repository) UpdateTransition(ctx context.Context, res *domain.Reservation, from domain.ReservationStatus) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("reservations").
		Set("status", res.Status).
		Set("confirmed_at", res.ConfirmedAt).
		Set("completed_at", res.CompletedAt).
		Set("cancelled_at", res.CancelledAt).
		Set("cancellation_reason", res.CancellationReason).
		Set("payment_status", res.PaymentStatus).
		Set("refund_amount", res.RefundAmount).
		Set("refund_percentage", res.RefundPercentage).
		Set("updated_at", res.UpdatedAt).
		Where(squirrel.Eq{"id": res.ID}).
		Where(squirrel.Eq{"status": from}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: UpdateTransition - build update query: %v", ErrBuildQuery, err)
	}

	return r.execExpectOne(ctx, executor, "UpdateTransition", query, args)
}

// UpdateSchedule переносит бронирование на новое время
func (r *Repository) UpdateSchedule(ctx context.Context, res *domain.Reservation) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("reservations").
		Set("reserved_at", res.ReservedAt).
		Set("ends_at", res.EndsAt()).
		Set("remaining_amount", res.RemainingAmount).
		Set("updated_at", res.UpdatedAt).
		Where(squirrel.Eq{"id": res.ID}).
		Where(squirrel.Eq{"status": res.Status}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: UpdateSchedule - build update query: %v", ErrBuildQuery, err)
	}

	if err := r.execExpectOne(ctx, executor, "UpdateSchedule", query, args); err != nil {
		return err
	}
	return nil
}

// UpdatePoints сохраняет баллы, применённые к бронированию после создания
func (r *Repository) UpdatePoints(ctx context.Context, res *domain.Reservation) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("reservations").
		Set("points_used", res.PointsUsed).
		Set("remaining_amount", res.RemainingAmount).
		Set("updated_at", res.UpdatedAt).
		Where(squirrel.Eq{"id": res.ID}).
		Where(squirrel.Eq{"status": res.Status}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: UpdatePoints - build update query: %v", ErrBuildQuery, err)
	}

	return r.execExpectOne(ctx, executor, "UpdatePoints", query, args)
}

// MarkDeposit сохраняет результат списания депозита.
// Если бронирование уже отменено или отмечено неявкой, внесённый депозит сразу
// ставится в очередь на возврат по проценту, решённому при отмене (см. domain.Reservation.SettleDeposit).
func (r *Repository) MarkDeposit(ctx context.Context, id int64, status domain.PaymentStatus, paid int64, at time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	released := pq.Array(statusStrings(domain.InactiveStatuses))

	query, args, err := psqlbuilder.Update("reservations").
		Set("payment_status", squirrel.Expr(
			"CASE WHEN status = ANY(?) AND ?::bigint > 0 "+
				"THEN CASE WHEN ?::bigint * refund_percentage / 100 > 0 THEN ? ELSE ? END "+
				"ELSE ? END",
			released, paid, paid, domain.PaymentRefundPending, domain.PaymentNoRefund, status,
		)).
		Set("refund_amount", squirrel.Expr(
			"CASE WHEN status = ANY(?) THEN ?::bigint * refund_percentage / 100 ELSE refund_amount END",
			released, paid,
		)).
		Set("deposit_paid", paid).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"payment_status": domain.PaymentAwaitingDeposit}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: MarkDeposit - build update query: %v", ErrBuildQuery, err)
	}

	return r.execExpectOne(ctx, executor, "MarkDeposit", query, args)
}

// MarkRefund фиксирует попытку возврата. Обновляет только бронирования в статусе refund_pending,
// поэтому повторная пометка уже вернувшего деньги бронирования ничего не меняет.
func (r *Repository) MarkRefund(ctx context.Context, id int64, status domain.PaymentStatus, at time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("reservations").
		Set("payment_status", status).
		Set("refund_attempts", squirrel.Expr("refund_attempts + 1")).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"payment_status": domain.PaymentRefundPending}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: MarkRefund - build update query: %v", ErrBuildQuery, err)
	}

	return r.execExpectOne(ctx, executor, "MarkRefund", query, args)
}

// LockShop берёт advisory-блокировку магазина до конца транзакции.
// Проверка пересечений и вставка бронирования выполняются под этой блокировкой.
func (r *Repository) LockShop(ctx context.Context, shopID int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	if _, err := executor.ExecContext(ctx, lockShopQuery, shopID); err != nil {
		return fmt.Errorf("%w: LockShop - acquire lock: %v", ErrExecQuery, err)
	}
	return nil
}

func (r *Repository) execExpectOne(ctx context.Context, executor DBExecutor, op, query string, args []interface{}) error {
	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		if isExclusionViolation(err) {
			return ErrSlotNotAvailable
		}
		return fmt.Errorf("%w: %s - execute update: %v", ErrExecQuery, op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %v", ErrExecQuery, op, err)
	}

	if rowsAffected == 0 {
		return ErrStatusMismatch
	}

	return nil
}

func (r *Repository) getLineItems(ctx context.Context, executor DBExecutor, reservationID int64) ([]domain.ReservationLineItem, error) {
	query, args, err := psqlbuilder.Select(lineItemColumns...).
		From("reservation_line_items").
		Where(squirrel.Eq{"reservation_id": reservationID}).
		OrderBy("id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: getLineItems - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: getLineItems - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	items := make([]domain.ReservationLineItem, 0)
	for rows.Next() {
		var item domain.ReservationLineItem
		if err := rows.Scan(
			&item.ID,
			&item.ReservationID,
			&item.ServiceID,
			&item.ServiceName,
			&item.Quantity,
			&item.UnitPrice,
			&item.UnitDeposit,
			&item.DurationMinutes,
		); err != nil {
			return nil, fmt.Errorf("%w: getLineItems - scan row: %v", ErrScanRow, err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: getLineItems - rows error: %v", ErrScanRow, err)
	}

	return items, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReservation(row rowScanner) (*domain.Reservation, error) {
	var res domain.Reservation

	err := row.Scan(
		&res.ID,
		&res.CustomerID,
		&res.ShopID,
		&res.ReservedAt,
		&res.DurationMinutes,
		&res.Status,
		&res.TotalAmount,
		&res.DepositAmount,
		&res.DepositPaid,
		&res.RemainingAmount,
		&res.PointsUsed,
		&res.PointsToEarn,
		&res.SpecialRequests,
		&res.PaymentStatus,
		&res.RefundAmount,
		&res.RefundPercentage,
		&res.RefundAttempts,
		&res.ConfirmedAt,
		&res.CompletedAt,
		&res.CancelledAt,
		&res.CancellationReason,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &res, nil
}

// scanReservations сканирует результаты запроса в слайс бронирований (без позиций)
func scanReservations(rows *sql.Rows) ([]*domain.Reservation, error) {
	reservations := make([]*domain.Reservation, 0)

	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanReservations - scan row: %v", ErrScanRow, err)
		}
		reservations = append(reservations, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanReservations - rows error: %v", ErrScanRow, err)
	}

	return reservations, nil
}

func statusStrings(statuses []domain.ReservationStatus) []string {
	result := make([]string, len(statuses))
	for i, s := range statuses {
		result[i] = string(s)
	}
	return result
}

func isExclusionViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqExclusionViolation
}
