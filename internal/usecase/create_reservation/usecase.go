package create_reservation

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	reservationRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/catalog"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/notification"
	"github.com/m04kA/SMC-ReservationService/internal/service/ledger"
	"github.com/m04kA/SMC-ReservationService/internal/service/reservations/models"
	"github.com/m04kA/SMC-ReservationService/pkg/metrics"
	"github.com/m04kA/SMC-ReservationService/pkg/ptr"
	"github.com/m04kA/SMC-ReservationService/pkg/txmanager"
)

// UseCase use case для создания бронирования
type UseCase struct {
	reservationRepo ReservationRepository
	historyRepo     HistoryRepository
	detector        ConflictDetector
	ledger          PointLedger
	catalogClient   CatalogClient
	paymentClient   PaymentClient
	notifier        Notifier
	txManager       TransactionManager
	clock           Clock
	metrics         *metrics.Metrics
	logger          Logger
	cfg             Config
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	reservationRepo ReservationRepository,
	historyRepo HistoryRepository,
	detector ConflictDetector,
	ledger PointLedger,
	catalogClient CatalogClient,
	paymentClient PaymentClient,
	notifier Notifier,
	txManager TransactionManager,
	clock Clock,
	metrics *metrics.Metrics,
	logger Logger,
	cfg Config,
) *UseCase {
	if cfg.DefaultDurationMinutes <= 0 {
		cfg.DefaultDurationMinutes = domain.DefaultServiceDurationMinutes
	}
	return &UseCase{
		reservationRepo: reservationRepo,
		historyRepo:     historyRepo,
		detector:        detector,
		ledger:          ledger,
		catalogClient:   catalogClient,
		paymentClient:   paymentClient,
		notifier:        notifier,
		txManager:       txManager,
		clock:           clock,
		metrics:         metrics,
		logger:          logger,
		cfg:             cfg,
	}
}

// Execute выполняет use case создания бронирования.
// Проверка окна, запись бронирования, строка журнала и списание баллов выполняются
// в одной транзакции: любая ошибка откатывает всё. Депозит списывается после фиксации.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*models.ReservationResponse, error) {
	uc.logger.Info("CreateReservation: customer=%d, shop=%d, at=%s, items=%d, points=%d",
		req.CustomerID, req.ShopID, req.ReservedAt.Format(domain.DateFormat+" "+domain.TimeFormat), len(req.Items), req.PointsToUse)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateReservation: validation failed: %v", err)
		return nil, err
	}

	// 2. Бронирование в прошлом отклоняется до обращения к каталогу
	now := uc.clock.Now()
	if req.ReservedAt.Before(now) {
		uc.logger.Warn("CreateReservation: reservation time %s is in the past", req.ReservedAt)
		return nil, ErrInvalidDate
	}

	// 3. Получаем магазин
	shop, err := uc.catalogClient.GetShop(ctx, req.ShopID)
	if err != nil {
		if errors.Is(err, catalog.ErrShopNotFound) {
			uc.logger.Warn("CreateReservation: shop id=%d not found", req.ShopID)
			return nil, ErrShopNotFound
		}
		uc.logger.Error("CreateReservation: failed to get shop id=%d: %v", req.ShopID, err)
		return nil, fmt.Errorf("%w: failed to get shop: %v", ErrInternal, err)
	}
	if !shop.IsActive {
		uc.logger.Warn("CreateReservation: shop id=%d is not active", req.ShopID)
		return nil, ErrShopInactive
	}

	// 4. Фиксируем цены услуг на момент бронирования
	items := make([]domain.ReservationLineItem, 0, len(req.Items))
	for _, itemReq := range req.Items {
		service, err := uc.catalogClient.GetService(ctx, req.ShopID, itemReq.ServiceID)
		if err != nil {
			if errors.Is(err, catalog.ErrServiceNotFound) {
				uc.logger.Warn("CreateReservation: service id=%d not found in shop id=%d", itemReq.ServiceID, req.ShopID)
				return nil, ErrServiceNotFound
			}
			uc.logger.Error("CreateReservation: failed to get service id=%d: %v", itemReq.ServiceID, err)
			return nil, fmt.Errorf("%w: failed to get service: %v", ErrInternal, err)
		}
		if service.ShopID != req.ShopID {
			uc.logger.Warn("CreateReservation: service id=%d belongs to shop id=%d", service.ID, service.ShopID)
			return nil, ErrServiceNotFound
		}
		if !service.IsActive {
			uc.logger.Warn("CreateReservation: service id=%d is not active", service.ID)
			return nil, ErrServiceInactive
		}
		items = append(items, freezeLineItem(service, itemReq.Quantity, uc.cfg.DefaultDurationMinutes))
	}

	// 5. Считаем суммы и окно
	totals := domain.ComputeTotals(items, uc.cfg.DefaultDurationMinutes)
	payable := totals.TotalAmount - totals.DepositAmount
	if req.PointsToUse > payable {
		uc.logger.Warn("CreateReservation: points=%d exceed payable amount=%d", req.PointsToUse, payable)
		return nil, fmt.Errorf("%w: pointsToUse exceeds the amount payable on site", ErrInvalidInput)
	}

	reservation := &domain.Reservation{
		CustomerID:      req.CustomerID,
		ShopID:          req.ShopID,
		ReservedAt:      req.ReservedAt.In(now.Location()),
		DurationMinutes: totals.DurationMinutes,
		Status:          domain.StatusRequested,
		TotalAmount:     totals.TotalAmount,
		DepositAmount:   totals.DepositAmount,
		RemainingAmount: payable - req.PointsToUse,
		PointsUsed:      req.PointsToUse,
		PointsToEarn:    domain.EarnedPoints(totals.TotalAmount, uc.cfg.EarnRatePercent),
		SpecialRequests: req.SpecialRequests,
		PaymentStatus:   domain.PaymentAwaitingDeposit,
		Items:           items,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if reservation.DepositAmount == 0 {
		reservation.PaymentStatus = domain.PaymentDepositPaid
	}

	// 6. Проверяем часы работы
	if err := validateWorkingHours(shop, reservation.Window()); err != nil {
		uc.logger.Warn("CreateReservation: shop id=%d: %v", req.ShopID, err)
		return nil, err
	}

	// 7. Проверка окна, запись и списание баллов в одной транзакции
	var created *domain.Reservation
	err = uc.txManager.Do(ctx, func(txCtx context.Context) error {
		if err := uc.detector.Check(txCtx, "create", reservation.ShopID, reservation.Window(), nil); err != nil {
			return err
		}

		res, err := uc.reservationRepo.Create(txCtx, reservation)
		if err != nil {
			if errors.Is(err, reservationRepo.ErrSlotNotAvailable) {
				uc.logger.Warn("CreateReservation: slot taken concurrently for shop id=%d", req.ShopID)
				return ErrSlotConflict
			}
			uc.logger.Error("CreateReservation: failed to create reservation: %v", err)
			return fmt.Errorf("%w: failed to create reservation: %v", ErrInternal, err)
		}

		entry := &domain.StatusLog{
			ReservationID: res.ID,
			NewStatus:     domain.StatusRequested,
			Actor:         domain.ActorUser,
			ActorID:       ptr.Ptr(req.CustomerID),
			CreatedAt:     now,
		}
		if err := uc.historyRepo.CreateStatusLog(txCtx, entry); err != nil {
			uc.logger.Error("CreateReservation: failed to write status log: %v", err)
			return fmt.Errorf("%w: failed to write status log: %v", ErrInternal, err)
		}

		if req.PointsToUse > 0 {
			_, err := uc.ledger.Debit(txCtx, ledger.DebitRequest{
				CustomerID:    req.CustomerID,
				ReservationID: res.ID,
				Amount:        req.PointsToUse,
				Description:   ptr.Ptr(fmt.Sprintf("used for reservation %d", res.ID)),
			})
			if err != nil {
				if errors.Is(err, ErrInsufficientAvailableBalance) {
					uc.logger.Warn("CreateReservation: customer=%d has fewer than %d available points", req.CustomerID, req.PointsToUse)
					return err
				}
				return fmt.Errorf("%w: failed to debit points: %v", ErrInternal, err)
			}
		}

		created = res
		txmanager.AfterCommit(txCtx, func(ctx context.Context) {
			uc.metrics.IncTransition(string(domain.StatusRequested))
			uc.notifier.Publish(ctx, uc.event(notification.EventReservationCreated, res))
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("CreateReservation: successfully created reservation id=%d", created.ID)

	// 8. Депозит списывается вне транзакции; ошибка не отменяет бронирование
	if created.PaymentStatus == domain.PaymentAwaitingDeposit {
		uc.chargeDeposit(ctx, created)
	}

	stored, err := uc.reservationRepo.GetByID(ctx, created.ID)
	if err != nil {
		uc.logger.Error("CreateReservation: failed to reload reservation id=%d: %v", created.ID, err)
		return nil, fmt.Errorf("%w: failed to reload reservation: %v", ErrInternal, err)
	}

	resp := models.FromDomainReservation(stored)
	return &resp, nil
}

// chargeDeposit списывает депозит и записывает результат.
// Бронирование, отменённое до списания, не оплачивается; если отмена успела между
// проверкой и списанием, MarkDeposit ставит внесённый депозит на возврат.
func (uc *UseCase) chargeDeposit(ctx context.Context, res *domain.Reservation) {
	current, err := uc.reservationRepo.GetByID(ctx, res.ID)
	if err != nil {
		uc.logger.Error("CreateReservation: failed to reload reservation id=%d before deposit charge: %v", res.ID, err)
		return
	}
	if current.IsCancelled() {
		uc.logger.Warn("CreateReservation: reservation id=%d was cancelled before deposit charge", res.ID)
		return
	}

	status, paid := domain.PaymentDepositPaid, res.DepositAmount

	if _, err := uc.paymentClient.ChargeDeposit(ctx, res.ID, res.DepositAmount); err != nil {
		uc.logger.Error("CreateReservation: deposit charge for reservation id=%d failed: %v", res.ID, err)
		status, paid = domain.PaymentDepositFailed, 0
	}

	writeCtx := context.WithoutCancel(ctx)
	if err := uc.reservationRepo.MarkDeposit(writeCtx, res.ID, status, paid, uc.clock.Now()); err != nil {
		uc.logger.Error("CreateReservation: failed to record deposit for reservation id=%d: %v", res.ID, err)
		return
	}

	if status != domain.PaymentDepositPaid {
		return
	}

	event := uc.event(notification.EventDepositCharged, res)
	event.Amount = paid
	uc.notifier.Publish(ctx, event)

	if settled, err := uc.reservationRepo.GetByID(writeCtx, res.ID); err == nil && settled.PaymentStatus == domain.PaymentRefundPending {
		uc.logger.Warn("CreateReservation: reservation id=%d was cancelled during deposit charge, refund of %d queued",
			res.ID, settled.RefundAmount)
	}
}

func (uc *UseCase) event(eventType notification.EventType, res *domain.Reservation) notification.Event {
	event := notification.NewEvent(eventType, res.CustomerID, uc.clock.Now())
	event.ShopID = ptr.Ptr(res.ShopID)
	event.ReservationID = ptr.Ptr(res.ID)
	event.Status = string(res.Status)
	return event
}
