package history

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ReservationService/pkg/psqlbuilder"
)

// Repository репозиторий журнала статусов и истории переносов бронирований.
// Записи только добавляются, изменение и удаление не предусмотрены.
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория истории
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// CreateStatusLog добавляет запись о смене статуса
func (r *Repository) CreateStatusLog(ctx context.Context, log *domain.StatusLog) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("reservation_status_logs").
		Columns("reservation_id", "old_status", "new_status", "actor", "actor_id", "reason", "created_at").
		Values(log.ReservationID, log.OldStatus, log.NewStatus, log.Actor, log.ActorID, log.Reason, log.CreatedAt).
		Suffix("RETURNING id").
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: CreateStatusLog - build insert query: %v", ErrBuildQuery, err)
	}

	if err := executor.QueryRowContext(ctx, query, args...).Scan(&log.ID); err != nil {
		return fmt.Errorf("%w: CreateStatusLog - execute insert: %v", ErrExecQuery, err)
	}

	return nil
}

// CreateReschedule добавляет запись о переносе бронирования
func (r *Repository) CreateReschedule(ctx context.Context, h *domain.RescheduleHistory) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("reservation_reschedule_history").
		Columns("reservation_id", "old_reserved_at", "new_reserved_at", "actor", "actor_id", "reason", "fee", "created_at").
		Values(h.ReservationID, h.OldReservedAt, h.NewReservedAt, h.Actor, h.ActorID, h.Reason, h.Fee, h.CreatedAt).
		Suffix("RETURNING id").
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: CreateReschedule - build insert query: %v", ErrBuildQuery, err)
	}

	if err := executor.QueryRowContext(ctx, query, args...).Scan(&h.ID); err != nil {
		return fmt.Errorf("%w: CreateReschedule - execute insert: %v", ErrExecQuery, err)
	}

	return nil
}

// ListStatusLogs получает журнал статусов бронирования в порядке записи
func (r *Repository) ListStatusLogs(ctx context.Context, reservationID int64) ([]domain.StatusLog, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "reservation_id", "old_status", "new_status", "actor", "actor_id", "reason", "created_at").
		From("reservation_status_logs").
		Where(squirrel.Eq{"reservation_id": reservationID}).
		OrderBy("id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListStatusLogs - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListStatusLogs - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	logs := make([]domain.StatusLog, 0)
	for rows.Next() {
		var l domain.StatusLog
		if err := rows.Scan(&l.ID, &l.ReservationID, &l.OldStatus, &l.NewStatus, &l.Actor, &l.ActorID, &l.Reason, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: ListStatusLogs - scan row: %v", ErrScanRow, err)
		}
		logs = append(logs, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListStatusLogs - rows error: %v", ErrScanRow, err)
	}

	return logs, nil
}

// ListReschedules получает историю переносов бронирования
func (r *Repository) ListReschedules(ctx context.Context, reservationID int64) ([]domain.RescheduleHistory, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "reservation_id", "old_reserved_at", "new_reserved_at", "actor", "actor_id", "reason", "fee", "created_at").
		From("reservation_reschedule_history").
		Where(squirrel.Eq{"reservation_id": reservationID}).
		OrderBy("id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListReschedules - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListReschedules - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	history := make([]domain.RescheduleHistory, 0)
	for rows.Next() {
		var h domain.RescheduleHistory
		if err := rows.Scan(&h.ID, &h.ReservationID, &h.OldReservedAt, &h.NewReservedAt, &h.Actor, &h.ActorID, &h.Reason, &h.Fee, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: ListReschedules - scan row: %v", ErrScanRow, err)
		}
		history = append(history, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListReschedules - rows error: %v", ErrScanRow, err)
	}

	return history, nil
}
