package memory

import (
	"context"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// HistoryRepository in-memory журнал статусов и переносов
type HistoryRepository struct {
	store *Store
}

// CreateStatusLog добавляет запись о смене статуса
func (r *HistoryRepository) CreateStatusLog(ctx context.Context, log *domain.StatusLog) error {
	return r.store.write(ctx, func(data *state) error {
		data.nextLogID++
		log.ID = data.nextLogID
		data.statusLogs = append(data.statusLogs, *log)
		return nil
	})
}

// CreateReschedule добавляет запись о переносе
func (r *HistoryRepository) CreateReschedule(ctx context.Context, h *domain.RescheduleHistory) error {
	return r.store.write(ctx, func(data *state) error {
		data.nextRescheduleID++
		h.ID = data.nextRescheduleID
		data.reschedules = append(data.reschedules, *h)
		return nil
	})
}

// ListStatusLogs получает журнал статусов бронирования
func (r *HistoryRepository) ListStatusLogs(_ context.Context, reservationID int64) ([]domain.StatusLog, error) {
	logs := make([]domain.StatusLog, 0)
	r.store.read(func(data *state) {
		for _, l := range data.statusLogs {
			if l.ReservationID == reservationID {
				logs = append(logs, l)
			}
		}
	})
	return logs, nil
}

// ListReschedules получает историю переносов бронирования
func (r *HistoryRepository) ListReschedules(_ context.Context, reservationID int64) ([]domain.RescheduleHistory, error) {
	history := make([]domain.RescheduleHistory, 0)
	r.store.read(func(data *state) {
		for _, h := range data.reschedules {
			if h.ReservationID == reservationID {
				history = append(history, h)
			}
		}
	})
	return history, nil
}
