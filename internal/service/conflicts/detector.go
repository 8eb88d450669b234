// Package conflicts проверяет, что окно бронирования свободно.
package conflicts

import (
	"context"
	"fmt"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/pkg/metrics"
)

// Detector детектор пересечений окон бронирования
type Detector struct {
	repo    ReservationRepository
	clock   Clock
	metrics *metrics.Metrics
	logger  Logger
}

// NewDetector создает детектор
func NewDetector(repo ReservationRepository, clock Clock, metrics *metrics.Metrics, logger Logger) *Detector {
	return &Detector{
		repo:    repo,
		clock:   clock,
		metrics: metrics,
		logger:  logger,
	}
}

// Check проверяет, что окно w магазина свободно.
// Вызывается внутри транзакции, которая затем записывает бронирование:
// блокировка магазина держится до её фиксации, поэтому проверка и запись не разделены.
// excludeID исключает само переносимое бронирование.
func (d *Detector) Check(ctx context.Context, op string, shopID int64, w domain.Window, excludeID *int64) error {
	if !w.IsValid() {
		return ErrInvalidWindow
	}
	if w.Start.Before(d.clock.Now()) {
		d.logger.Warn("Check: shop=%d window starts in the past: %s", shopID, w.Start.Format(domain.DateFormat+" "+domain.TimeFormat))
		return ErrInvalidDate
	}

	if err := d.repo.LockShop(ctx, shopID); err != nil {
		d.logger.Error("Check: lock shop=%d: %v", shopID, err)
		return fmt.Errorf("%w: Check - lock shop: %v", ErrInternal, err)
	}

	overlapping, err := d.repo.ListOverlapping(ctx, shopID, w, excludeID)
	if err != nil {
		d.logger.Error("Check: list overlapping shop=%d: %v", shopID, err)
		return fmt.Errorf("%w: Check - list overlapping: %v", ErrInternal, err)
	}

	if len(overlapping) > 0 {
		d.logger.Warn("Check: shop=%d window %s-%s overlaps reservation id=%d",
			shopID, w.Start.Format(domain.TimeFormat), w.End.Format(domain.TimeFormat), overlapping[0].ID)
		d.metrics.IncSlotConflict(op)
		return ErrSlotConflict
	}

	return nil
}
