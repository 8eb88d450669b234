package get_available_slots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/catalog"
	"github.com/m04kA/SMC-ReservationService/internal/slotindex"
)

const defaultStepMinutes = 30

// UseCase use case для получения свободных слотов магазина на дату
type UseCase struct {
	reservationRepo ReservationRepository
	catalogClient   CatalogClient
	clock           Clock
	logger          Logger
	cfg             Config
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	reservationRepo ReservationRepository,
	catalogClient CatalogClient,
	clock Clock,
	logger Logger,
	cfg Config,
) *UseCase {
	if cfg.StepMinutes <= 0 {
		cfg.StepMinutes = defaultStepMinutes
	}
	if cfg.DefaultDurationMinutes <= 0 {
		cfg.DefaultDurationMinutes = domain.DefaultServiceDurationMinutes
	}
	return &UseCase{
		reservationRepo: reservationRepo,
		catalogClient:   catalogClient,
		clock:           clock,
		logger:          logger,
		cfg:             cfg,
	}
}

// Execute выполняет use case получения доступных слотов.
// Индекс окон строится по активным бронированиям дня, после чего перебираются
// начала с фиксированным шагом внутри часов работы.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailableSlots: validation failed: %v", err)
		return nil, err
	}

	now := uc.clock.Now()
	y, m, d := req.Date.Date()
	date := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	uc.logger.Info("GetAvailableSlots: shop=%d, date=%s", req.ShopID, date.Format(domain.DateFormat))

	// 2. Проверяем дату
	if err := validateDate(date, now, uc.cfg.AdvanceBookingDays); err != nil {
		uc.logger.Warn("GetAvailableSlots: date validation failed: %v", err)
		return nil, err
	}

	// 3. Получаем магазин
	shop, err := uc.catalogClient.GetShop(ctx, req.ShopID)
	if err != nil {
		if errors.Is(err, catalog.ErrShopNotFound) {
			uc.logger.Warn("GetAvailableSlots: shop id=%d not found", req.ShopID)
			return nil, ErrShopNotFound
		}
		uc.logger.Error("GetAvailableSlots: failed to get shop id=%d: %v", req.ShopID, err)
		return nil, fmt.Errorf("%w: failed to get shop: %v", ErrInternal, err)
	}

	// 4. Определяем длительность окна
	duration, err := uc.resolveDuration(ctx, req)
	if err != nil {
		return nil, err
	}

	resp := &Response{
		Date:            date.Format(domain.DateFormat),
		ShopID:          req.ShopID,
		DurationMinutes: duration,
		Slots:           []Slot{},
	}

	if !shop.IsActive {
		uc.logger.Info("GetAvailableSlots: shop id=%d is not active", req.ShopID)
		return resp, nil
	}

	// 5. Часы работы на дату
	opening, open, err := shop.ScheduleFor(date).OpeningWindow(date)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: shop id=%d has malformed working hours: %v", req.ShopID, err)
		return nil, fmt.Errorf("%w: malformed working hours: %v", ErrInternal, err)
	}
	if !open {
		uc.logger.Info("GetAvailableSlots: shop id=%d is closed on %s", req.ShopID, resp.Date)
		return resp, nil
	}

	// 6. Наполняем индекс занятыми окнами
	reservations, err := uc.reservationRepo.ListByShopInRange(ctx, req.ShopID, opening)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to list reservations: %v", err)
		return nil, fmt.Errorf("%w: failed to list reservations: %v", ErrInternal, err)
	}

	index := slotindex.New()
	for _, res := range reservations {
		if err := index.Reserve(res.ShopID, res.ID, res.Window()); err != nil {
			uc.logger.Warn("GetAvailableSlots: reservation id=%d overlaps another window: %v", res.ID, err)
		}
	}
	if req.ExcludeReservationID != nil && !index.Release(req.ShopID, *req.ExcludeReservationID) {
		uc.logger.Info("GetAvailableSlots: excluded reservation id=%d holds no window on %s", *req.ExcludeReservationID, resp.Date)
	}

	// 7. Перебираем свободные начала
	length := time.Duration(duration) * time.Minute
	step := time.Duration(uc.cfg.StepMinutes) * time.Minute
	for _, start := range index.FreeStarts(req.ShopID, opening, length, step, now) {
		resp.Slots = append(resp.Slots, Slot{
			StartTime: start.Format(domain.TimeFormat),
			StartsAt:  start,
			EndsAt:    start.Add(length),
		})
	}

	uc.logger.Info("GetAvailableSlots: found %d free slots for shop=%d, date=%s", len(resp.Slots), req.ShopID, resp.Date)

	return resp, nil
}

// resolveDuration берёт длительность из запроса, затем из услуги, затем из конфигурации
func (uc *UseCase) resolveDuration(ctx context.Context, req *Request) (int, error) {
	if req.DurationMinutes != nil {
		return *req.DurationMinutes, nil
	}
	if req.ServiceID == nil {
		return uc.cfg.DefaultDurationMinutes, nil
	}

	service, err := uc.catalogClient.GetService(ctx, req.ShopID, *req.ServiceID)
	if err != nil {
		if errors.Is(err, catalog.ErrServiceNotFound) {
			uc.logger.Warn("GetAvailableSlots: service id=%d not found", *req.ServiceID)
			return 0, ErrServiceNotFound
		}
		uc.logger.Error("GetAvailableSlots: failed to get service id=%d: %v", *req.ServiceID, err)
		return 0, fmt.Errorf("%w: failed to get service: %v", ErrInternal, err)
	}
	if service.ShopID != req.ShopID {
		return 0, ErrServiceNotFound
	}
	if service.DurationMinutes == nil || *service.DurationMinutes <= 0 {
		return uc.cfg.DefaultDurationMinutes, nil
	}
	return *service.DurationMinutes, nil
}
