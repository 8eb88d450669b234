// Package reservations ведёт жизненный цикл бронирования после его создания:
// подтверждение, завершение, неявку, отмену с возвратом депозита и перенос.
package reservations

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	reservationRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/catalog"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/notification"
	"github.com/m04kA/SMC-ReservationService/internal/service/ledger"
	"github.com/m04kA/SMC-ReservationService/internal/service/refundpolicy"
	"github.com/m04kA/SMC-ReservationService/internal/service/reservations/models"
	"github.com/m04kA/SMC-ReservationService/pkg/metrics"
	"github.com/m04kA/SMC-ReservationService/pkg/ptr"
	"github.com/m04kA/SMC-ReservationService/pkg/txmanager"
)

const defaultMaxRefundAttempts = 10

// Config параметры сервиса
type Config struct {
	MaxRefundAttempts int // после стольких неудачных попыток возврат требует ручного разбора
}

// Service сервис жизненного цикла бронирований
type Service struct {
	reservations ReservationRepository
	history      HistoryRepository
	detector     ConflictDetector
	ledger       PointLedger
	policy       RefundPolicy
	payment      PaymentClient
	catalog      CatalogClient
	txManager    TransactionManager
	notifier     Notifier
	clock        Clock
	metrics      *metrics.Metrics
	logger       Logger
	cfg          Config
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	reservations ReservationRepository,
	history HistoryRepository,
	detector ConflictDetector,
	ledger PointLedger,
	policy RefundPolicy,
	payment PaymentClient,
	catalog CatalogClient,
	txManager TransactionManager,
	notifier Notifier,
	clock Clock,
	metrics *metrics.Metrics,
	logger Logger,
	cfg Config,
) *Service {
	if cfg.MaxRefundAttempts <= 0 {
		cfg.MaxRefundAttempts = defaultMaxRefundAttempts
	}
	return &Service{
		reservations: reservations,
		history:      history,
		detector:     detector,
		ledger:       ledger,
		policy:       policy,
		payment:      payment,
		catalog:      catalog,
		txManager:    txManager,
		notifier:     notifier,
		clock:        clock,
		metrics:      metrics,
		logger:       logger,
		cfg:          cfg,
	}
}

// GetByID получает бронирование вместе с журналом статусов и переносов.
// Доступно клиенту бронирования и менеджерам магазина.
func (s *Service) GetByID(ctx context.Context, id int64, userID int64) (*models.ReservationDetailsResponse, error) {
	s.logger.Info("GetByID: fetching reservation id=%d for user=%d", id, userID)

	res, err := s.load(ctx, "GetByID", id)
	if err != nil {
		return nil, err
	}

	if _, err := s.resolveActor(ctx, res, userID); err != nil {
		s.logger.Warn("GetByID: access denied for user=%d to reservation id=%d", userID, id)
		return nil, err
	}

	logs, err := s.history.ListStatusLogs(ctx, id)
	if err != nil {
		s.logger.Error("GetByID: failed to list status logs for reservation id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - list status logs: %v", ErrInternal, err)
	}
	reschedules, err := s.history.ListReschedules(ctx, id)
	if err != nil {
		s.logger.Error("GetByID: failed to list reschedules for reservation id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - list reschedules: %v", ErrInternal, err)
	}

	return models.FromDomainDetails(res, logs, reschedules), nil
}

// ListByShop возвращает активные бронирования магазина, пересекающие указанный день.
// Доступно только менеджерам магазина.
func (s *Service) ListByShop(ctx context.Context, req *models.ShopReservationsRequest) ([]models.ReservationResponse, error) {
	s.logger.Info("ListByShop: shop=%d, date=%s, user=%d", req.ShopID, req.Date.Format(domain.DateFormat), req.UserID)

	if err := s.checkManagerAccess(ctx, req.ShopID, req.UserID); err != nil {
		return nil, err
	}

	y, m, d := req.Date.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, s.clock.Now().Location())
	day := domain.Window{Start: start, End: start.AddDate(0, 0, 1)}

	list, err := s.reservations.ListByShopInRange(ctx, req.ShopID, day)
	if err != nil {
		s.logger.Error("ListByShop: failed to list reservations for shop=%d: %v", req.ShopID, err)
		return nil, fmt.Errorf("%w: ListByShop - list reservations: %v", ErrInternal, err)
	}

	result := make([]models.ReservationResponse, 0, len(list))
	for _, res := range list {
		result = append(result, models.FromDomainReservation(res))
	}
	return result, nil
}

// Confirm подтверждает бронирование (requested -> confirmed). Доступно менеджерам магазина.
func (s *Service) Confirm(ctx context.Context, id int64, req *models.TransitionRequest) (*models.ReservationResponse, error) {
	s.logger.Info("Confirm: confirming reservation id=%d by user=%d", id, req.UserID)

	if err := s.authorizeShop(ctx, "Confirm", id, req.UserID); err != nil {
		return nil, err
	}

	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		res, err := s.lockForTransition(ctx, "Confirm", id, domain.StatusConfirmed)
		if err != nil {
			return err
		}

		from := res.Status
		res.ApplyTransition(domain.StatusConfirmed, s.clock.Now())
		return s.saveTransition(ctx, "Confirm", res, from, domain.ActorShop, &req.UserID, nil)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Confirm: reservation id=%d confirmed", id)
	return s.reload(ctx, "Confirm", id)
}

// Complete завершает подтверждённое бронирование и начисляет клиенту баллы
// в статусе pending. Доступно менеджерам магазина.
func (s *Service) Complete(ctx context.Context, id int64, req *models.TransitionRequest) (*models.ReservationResponse, error) {
	s.logger.Info("Complete: completing reservation id=%d by user=%d", id, req.UserID)

	if err := s.authorizeShop(ctx, "Complete", id, req.UserID); err != nil {
		return nil, err
	}

	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		res, err := s.lockForTransition(ctx, "Complete", id, domain.StatusCompleted)
		if err != nil {
			return err
		}

		from := res.Status
		res.ApplyTransition(domain.StatusCompleted, s.clock.Now())
		if err := s.saveTransition(ctx, "Complete", res, from, domain.ActorShop, &req.UserID, nil); err != nil {
			return err
		}

		if res.PointsToEarn <= 0 {
			return nil
		}
		_, err = s.ledger.Credit(ctx, ledger.CreditRequest{
			CustomerID:    res.CustomerID,
			ReservationID: ptr.Ptr(res.ID),
			Amount:        res.PointsToEarn,
			Kind:          domain.KindEarnedService,
			Description:   ptr.Ptr(fmt.Sprintf("earned for reservation %d", res.ID)),
		})
		if err != nil {
			s.logger.Error("Complete: failed to credit points for reservation id=%d: %v", id, err)
			return fmt.Errorf("%w: Complete - credit points: %v", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Complete: reservation id=%d completed", id)
	return s.reload(ctx, "Complete", id)
}

// MarkNoShow отмечает неявку клиента на подтверждённое бронирование после его начала.
// Депозит не возвращается, решение политики только записывается в журнал.
func (s *Service) MarkNoShow(ctx context.Context, id int64, req *models.TransitionRequest) (*models.ReservationResponse, error) {
	s.logger.Info("MarkNoShow: reservation id=%d by user=%d", id, req.UserID)

	if err := s.authorizeShop(ctx, "MarkNoShow", id, req.UserID); err != nil {
		return nil, err
	}

	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		res, err := s.lockForTransition(ctx, "MarkNoShow", id, domain.StatusNoShow)
		if err != nil {
			return err
		}
		if res.Status != domain.StatusConfirmed {
			s.logger.Warn("MarkNoShow: reservation id=%d is %s, expected confirmed", id, res.Status)
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, res.Status, domain.StatusNoShow)
		}

		now := s.clock.Now()
		if now.Before(res.ReservedAt) {
			s.logger.Warn("MarkNoShow: reservation id=%d starts at %s", id, res.ReservedAt)
			return ErrNoShowTooEarly
		}

		decision := s.policy.Decide(res, refundpolicy.CauseNoShow, now)
		s.logger.Info("MarkNoShow: reservation id=%d: %v", id, decision.Err())

		from := res.Status
		res.ApplyTransition(domain.StatusNoShow, now)
		applyRefund(res, decision)
		return s.saveTransition(ctx, "MarkNoShow", res, from, domain.ActorShop, &req.UserID, ptr.Ptr(string(decision.Reason)))
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, "MarkNoShow", id)
}

// Cancel отменяет бронирование.
// Клиент отменяет своё бронирование (cancelled_by_user), менеджер магазина любое
// бронирование магазина (cancelled_by_shop). При положенном возврате списанные баллы
// восстанавливаются в той же транзакции, а запрос на возврат депозита уходит
// в платёжный сервис после фиксации; при его ошибке возврат остаётся в refund_pending.
func (s *Service) Cancel(ctx context.Context, id int64, req *models.CancelRequest) (*models.CancelResponse, error) {
	s.logger.Info("Cancel: cancelling reservation id=%d by user=%d", id, req.UserID)

	if req.Reason != nil && utf8.RuneCountInString(*req.Reason) > domain.MaxCancellationReasonLength {
		return nil, fmt.Errorf("%w: cancellation reason is too long", ErrInvalidInput)
	}

	current, err := s.load(ctx, "Cancel", id)
	if err != nil {
		return nil, err
	}
	actor, err := s.resolveActor(ctx, current, req.UserID)
	if err != nil {
		s.logger.Warn("Cancel: access denied for user=%d to reservation id=%d", req.UserID, id)
		return nil, err
	}

	target := domain.StatusCancelledByUser
	if actor == domain.ActorShop {
		target = domain.StatusCancelledByShop
	}

	var (
		decision refundpolicy.Decision
		restored int64
	)
	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		res, err := s.lockForTransition(ctx, "Cancel", id, target)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		decision = s.policy.Decide(res, refundpolicy.CauseFor(actor), now)

		from := res.Status
		res.ApplyTransition(target, now)
		res.CancellationReason = req.Reason
		applyRefund(res, decision)

		if err := s.saveTransition(ctx, "Cancel", res, from, actor, &req.UserID, req.Reason); err != nil {
			return err
		}

		if decision.Eligible && res.PointsUsed > 0 {
			reversal, err := s.ledger.Reverse(ctx, res.CustomerID, res.ID)
			if err != nil {
				s.logger.Error("Cancel: failed to restore points for reservation id=%d: %v", id, err)
				return fmt.Errorf("%w: Cancel - restore points: %v", ErrInternal, err)
			}
			if reversal != nil {
				restored = reversal.Amount
			}
		}

		if res.PaymentStatus == domain.PaymentRefundPending {
			amount := res.RefundAmount
			txmanager.AfterCommit(ctx, func(ctx context.Context) {
				s.issueRefund(ctx, id, amount)
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Cancel: reservation id=%d cancelled with status=%s, refund=%d%% (%s)",
		id, target, decision.Percentage, decision.Reason)
	if err := decision.Err(); err != nil {
		s.logger.Info("Cancel: reservation id=%d: %v", id, err)
	}

	res, err := s.reload(ctx, "Cancel", id)
	if err != nil {
		return nil, err
	}
	return &models.CancelResponse{
		Reservation: *res,
		Refund: models.RefundResponse{
			Eligible:   decision.Eligible,
			Percentage: decision.Percentage,
			Amount:     decision.Amount,
			Reason:     string(decision.Reason),
		},
		PointsRestored: restored,
	}, nil
}

// Reschedule переносит бронирование на новое время, если новое окно свободно.
// Статус не меняется, в историю переносов добавляется одна запись;
// плата за перенос прибавляется к сумме, оплачиваемой на месте.
func (s *Service) Reschedule(ctx context.Context, id int64, req *models.RescheduleRequest) (*models.ReservationResponse, error) {
	s.logger.Info("Reschedule: reservation id=%d to %s by user=%d", id, req.ReservedAt, req.UserID)

	if err := validateReschedule(req); err != nil {
		s.logger.Warn("Reschedule: validation failed for reservation id=%d: %v", id, err)
		return nil, err
	}

	current, err := s.load(ctx, "Reschedule", id)
	if err != nil {
		return nil, err
	}
	actor, err := s.resolveActor(ctx, current, req.UserID)
	if err != nil {
		s.logger.Warn("Reschedule: access denied for user=%d to reservation id=%d", req.UserID, id)
		return nil, err
	}

	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		res, err := s.reservations.GetByIDForUpdate(ctx, id)
		if err != nil {
			return s.mapRepoError("Reschedule", id, err)
		}
		if res.Status.IsTerminal() {
			s.logger.Warn("Reschedule: reservation id=%d is %s", id, res.Status)
			return fmt.Errorf("%w: cannot reschedule %s reservation", ErrInvalidTransition, res.Status)
		}

		newStart := req.ReservedAt.In(res.ReservedAt.Location())
		if newStart.Equal(res.ReservedAt) {
			return fmt.Errorf("%w: reservation is already at %s", ErrInvalidInput, newStart)
		}

		window := domain.Window{Start: newStart, End: newStart.Add(res.Window().Duration())}
		if err := s.detector.Check(ctx, "reschedule", res.ShopID, window, &res.ID); err != nil {
			return err
		}

		now := s.clock.Now()
		oldStart := res.ReservedAt
		res.ReservedAt = newStart
		res.RemainingAmount += req.Fee
		res.UpdatedAt = now

		if err := s.reservations.UpdateSchedule(ctx, res); err != nil {
			return s.mapRepoError("Reschedule", id, err)
		}

		entry := &domain.RescheduleHistory{
			ReservationID: res.ID,
			OldReservedAt: oldStart,
			NewReservedAt: newStart,
			Actor:         actor,
			ActorID:       ptr.Ptr(req.UserID),
			Reason:        req.Reason,
			Fee:           req.Fee,
			CreatedAt:     now,
		}
		if err := s.history.CreateReschedule(ctx, entry); err != nil {
			s.logger.Error("Reschedule: failed to write history for reservation id=%d: %v", id, err)
			return fmt.Errorf("%w: Reschedule - write history: %v", ErrInternal, err)
		}

		event := s.event(notification.EventReservationRescheduled, res)
		event.Attributes = map[string]string{"old_reserved_at": oldStart.Format(time.RFC3339)}
		txmanager.AfterCommit(ctx, func(ctx context.Context) {
			s.notifier.Publish(ctx, event)
		})
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrSlotConflict) || errors.Is(err, ErrInvalidDate) {
			s.logger.Warn("Reschedule: reservation id=%d: %v", id, err)
		}
		return nil, err
	}

	s.logger.Info("Reschedule: reservation id=%d moved to %s", id, req.ReservedAt)
	return s.reload(ctx, "Reschedule", id)
}

// RetryPendingRefunds повторяет возвраты, которые не прошли сразу после отмены.
// Бронирования, исчерпавшие лимит попыток, не выбираются и требуют ручного разбора.
func (s *Service) RetryPendingRefunds(ctx context.Context, limit int) (*models.RefundRetryResult, error) {
	pending, err := s.reservations.ListPendingRefunds(ctx, limit, s.cfg.MaxRefundAttempts)
	if err != nil {
		s.logger.Error("RetryPendingRefunds: failed to list pending refunds: %v", err)
		return nil, fmt.Errorf("%w: RetryPendingRefunds - list: %v", ErrInternal, err)
	}

	result := &models.RefundRetryResult{}
	for _, res := range pending {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		result.Attempted++
		if s.issueRefund(ctx, res.ID, res.RefundAmount) {
			result.Refunded++
		} else {
			result.Failed++
			if res.RefundAttempts+1 >= s.cfg.MaxRefundAttempts {
				s.logger.Error("RetryPendingRefunds: reservation id=%d exhausted %d refund attempts", res.ID, s.cfg.MaxRefundAttempts)
				result.Exhausted++
			}
		}
	}

	if result.Attempted > 0 {
		s.logger.Info("RetryPendingRefunds: attempted=%d refunded=%d failed=%d exhausted=%d",
			result.Attempted, result.Refunded, result.Failed, result.Exhausted)
	}
	return result, nil
}

// Вспомогательные методы

// issueRefund вызывает платёжный сервис и фиксирует результат попытки.
// Вызывается вне транзакции. Возвращает true, если возврат прошёл.
func (s *Service) issueRefund(ctx context.Context, id int64, amount int64) bool {
	_, err := s.payment.Refund(ctx, id, amount)
	if err != nil {
		s.logger.Error("issueRefund: refund of %d for reservation id=%d failed: %v", amount, id, err)
		s.metrics.IncRefund("failed")
		if markErr := s.reservations.MarkRefund(ctx, id, domain.PaymentRefundPending, s.clock.Now()); markErr != nil {
			s.logger.Error("issueRefund: failed to record attempt for reservation id=%d: %v", id, markErr)
		}
		return false
	}

	if err := s.reservations.MarkRefund(ctx, id, domain.PaymentRefunded, s.clock.Now()); err != nil {
		// деньги вернулись, но статус не записан: следующий повтор отправит тот же ключ идемпотентности
		s.logger.Error("issueRefund: failed to mark reservation id=%d refunded: %v", id, err)
		return false
	}

	s.metrics.IncRefund("refunded")
	s.logger.Info("issueRefund: refunded %d for reservation id=%d", amount, id)

	if res, err := s.reservations.GetByID(ctx, id); err == nil {
		event := s.event(notification.EventRefundIssued, res)
		event.Amount = amount
		s.notifier.Publish(ctx, event)
	}
	return true
}

// lockForTransition блокирует строку бронирования и проверяет, что переход в to разрешён
func (s *Service) lockForTransition(ctx context.Context, op string, id int64, to domain.ReservationStatus) (*domain.Reservation, error) {
	res, err := s.reservations.GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(op, id, err)
	}
	if !res.CanTransitionTo(to) {
		s.logger.Warn("%s: reservation id=%d cannot move %s -> %s", op, id, res.Status, to)
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, res.Status, to)
	}
	return res, nil
}

// saveTransition записывает новый статус и ровно одну строку журнала в текущей транзакции.
// Событие и метрика уходят после фиксации.
func (s *Service) saveTransition(
	ctx context.Context,
	op string,
	res *domain.Reservation,
	from domain.ReservationStatus,
	actor domain.Actor,
	actorID *int64,
	reason *string,
) error {
	if err := s.reservations.UpdateTransition(ctx, res, from); err != nil {
		return s.mapRepoError(op, res.ID, err)
	}

	entry := &domain.StatusLog{
		ReservationID: res.ID,
		OldStatus:     ptr.Ptr(from),
		NewStatus:     res.Status,
		Actor:         actor,
		ActorID:       actorID,
		Reason:        reason,
		CreatedAt:     res.UpdatedAt,
	}
	if err := s.history.CreateStatusLog(ctx, entry); err != nil {
		s.logger.Error("%s: failed to write status log for reservation id=%d: %v", op, res.ID, err)
		return fmt.Errorf("%w: %s - write status log: %v", ErrInternal, op, err)
	}

	event := s.event(transitionEvent(res.Status), res)
	txmanager.AfterCommit(ctx, func(ctx context.Context) {
		s.metrics.IncTransition(string(res.Status))
		s.notifier.Publish(ctx, event)
	})
	return nil
}

// authorizeShop проверяет, что пользователь управляет магазином бронирования
func (s *Service) authorizeShop(ctx context.Context, op string, id int64, userID int64) error {
	res, err := s.load(ctx, op, id)
	if err != nil {
		return err
	}
	if err := s.checkManagerAccess(ctx, res.ShopID, userID); err != nil {
		s.logger.Warn("%s: user=%d may not manage reservation id=%d", op, userID, id)
		return err
	}
	return nil
}

// resolveActor определяет, действует ли пользователь как клиент или как менеджер магазина
func (s *Service) resolveActor(ctx context.Context, res *domain.Reservation, userID int64) (domain.Actor, error) {
	if res.CustomerID == userID {
		return domain.ActorUser, nil
	}
	if err := s.checkManagerAccess(ctx, res.ShopID, userID); err != nil {
		return "", err
	}
	return domain.ActorShop, nil
}

// checkManagerAccess проверяет, что пользователь является менеджером магазина
func (s *Service) checkManagerAccess(ctx context.Context, shopID int64, userID int64) error {
	shop, err := s.catalog.GetShop(ctx, shopID)
	if err != nil {
		if errors.Is(err, catalog.ErrShopNotFound) {
			s.logger.Warn("checkManagerAccess: shop id=%d not found", shopID)
			return ErrShopNotFound
		}
		s.logger.Error("checkManagerAccess: failed to get shop id=%d: %v", shopID, err)
		return fmt.Errorf("%w: checkManagerAccess - failed to get shop: %v", ErrInternal, err)
	}

	if !shop.IsManager(userID) {
		s.logger.Warn("checkManagerAccess: user=%d is not a manager of shop=%d", userID, shopID)
		return ErrAccessDenied
	}
	return nil
}

func (s *Service) load(ctx context.Context, op string, id int64) (*domain.Reservation, error) {
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(op, id, err)
	}
	return res, nil
}

func (s *Service) reload(ctx context.Context, op string, id int64) (*models.ReservationResponse, error) {
	res, err := s.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	resp := models.FromDomainReservation(res)
	return &resp, nil
}

func (s *Service) mapRepoError(op string, id int64, err error) error {
	switch {
	case errors.Is(err, reservationRepo.ErrReservationNotFound):
		s.logger.Warn("%s: reservation id=%d not found", op, id)
		return ErrReservationNotFound
	case errors.Is(err, reservationRepo.ErrStatusMismatch):
		s.logger.Warn("%s: reservation id=%d changed concurrently", op, id)
		return fmt.Errorf("%w: reservation status changed concurrently", ErrInvalidTransition)
	case errors.Is(err, reservationRepo.ErrSlotNotAvailable):
		return ErrSlotConflict
	default:
		s.logger.Error("%s: repository error for reservation id=%d: %v", op, id, err)
		return fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
	}
}

func (s *Service) event(eventType notification.EventType, res *domain.Reservation) notification.Event {
	event := notification.NewEvent(eventType, res.CustomerID, s.clock.Now())
	event.ShopID = ptr.Ptr(res.ShopID)
	event.ReservationID = ptr.Ptr(res.ID)
	event.Status = string(res.Status)
	return event
}

// applyRefund переносит решение политики на платёжный статус бронирования.
// Если депозит ещё не внесён, платёжный статус не меняется, а процент возврата
// сохраняется для депозита, списанного позже (MarkDeposit).
func applyRefund(res *domain.Reservation, d refundpolicy.Decision) {
	res.RefundAmount = d.Amount
	res.RefundPercentage = d.Percentage
	switch {
	case d.Eligible && d.Amount > 0:
		res.PaymentStatus = domain.PaymentRefundPending
	case res.PaymentStatus == domain.PaymentDepositPaid:
		res.PaymentStatus = domain.PaymentNoRefund
	}
}

func transitionEvent(status domain.ReservationStatus) notification.EventType {
	switch status {
	case domain.StatusConfirmed:
		return notification.EventReservationConfirmed
	case domain.StatusCompleted:
		return notification.EventReservationCompleted
	case domain.StatusNoShow:
		return notification.EventReservationNoShow
	default:
		return notification.EventReservationCancelled
	}
}

func validateReschedule(req *models.RescheduleRequest) error {
	if req.ReservedAt.IsZero() {
		return fmt.Errorf("%w: new reservation time is required", ErrInvalidInput)
	}
	if req.Fee < 0 {
		return fmt.Errorf("%w: fee must not be negative", ErrInvalidInput)
	}
	if req.Reason != nil && utf8.RuneCountInString(*req.Reason) > domain.MaxRescheduleReasonLength {
		return fmt.Errorf("%w: reschedule reason is too long", ErrInvalidInput)
	}
	return nil
}
