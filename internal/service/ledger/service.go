// Package ledger ведёт реестр баллов лояльности: списание по FIFO, начисление с периодом
// ожидания, возврат списанного при отмене и сгорание просроченных начислений.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	pointsRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/points"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/notification"
	"github.com/m04kA/SMC-ReservationService/pkg/metrics"
	"github.com/m04kA/SMC-ReservationService/pkg/ptr"
	"github.com/m04kA/SMC-ReservationService/pkg/txmanager"
)

const defaultSweepBatch = 500

// Service сервис реестра баллов
type Service struct {
	repo      PointsRepository
	txManager TransactionManager
	balances  BalanceRefresher
	notifier  Notifier
	clock     Clock
	metrics   *metrics.Metrics
	logger    Logger
	cfg       Config
}

// NewService создает новый экземпляр сервиса реестра
func NewService(
	repo PointsRepository,
	txManager TransactionManager,
	balances BalanceRefresher,
	notifier Notifier,
	clock Clock,
	metrics *metrics.Metrics,
	logger Logger,
	cfg Config,
) *Service {
	if cfg.PendingWindow < 0 {
		cfg.PendingWindow = 0
	}
	return &Service{
		repo:      repo,
		txManager: txManager,
		balances:  balances,
		notifier:  notifier,
		clock:     clock,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
	}
}

// Debit списывает баллы клиента в пользу бронирования.
// Чтение доступного баланса и расход кредитов выполняются под блокировкой клиента,
// поэтому конкурентные списания одного клиента выполняются по очереди.
// Может вызываться внутри внешней транзакции (создание бронирования).
func (s *Service) Debit(ctx context.Context, req DebitRequest) (*DebitResult, error) {
	s.logger.Info("Debit: customer=%d amount=%d reservation=%d", req.CustomerID, req.Amount, req.ReservationID)

	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var result *DebitResult
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		now := s.clock.Now()

		if err := s.repo.LockCustomer(ctx, req.CustomerID); err != nil {
			return fmt.Errorf("%w: Debit - lock customer: %v", ErrInternal, err)
		}

		if _, err := s.repo.PromoteMatured(ctx, &req.CustomerID, now); err != nil {
			return fmt.Errorf("%w: Debit - promote matured: %v", ErrInternal, err)
		}

		credits, err := s.repo.ListSpendable(ctx, req.CustomerID, now)
		if err != nil {
			return fmt.Errorf("%w: Debit - list spendable: %v", ErrInternal, err)
		}

		plan, err := PlanDebit(credits, req.Amount)
		if err != nil {
			return err
		}

		for _, c := range plan {
			if c.Exhausted() {
				err = s.repo.MarkUsed(ctx, c.TransactionID, now)
			} else {
				err = s.repo.Shrink(ctx, c.TransactionID, c.Remaining, now)
			}
			if err != nil {
				return fmt.Errorf("%w: Debit - consume credit id=%d: %v", ErrInternal, c.TransactionID, err)
			}
		}

		debit := &domain.PointTransaction{
			CustomerID:    req.CustomerID,
			ReservationID: ptr.Ptr(req.ReservationID),
			Amount:        -req.Amount,
			InitialAmount: -req.Amount,
			Kind:          domain.KindUsedService,
			Status:        domain.TxUsed,
			Description:   req.Description,
			AvailableFrom: now,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.create(ctx, debit); err != nil {
			return err
		}

		result = &DebitResult{Debit: debit, Consumed: plan}
		s.afterWrite(ctx, "debit", req.CustomerID, &req.ReservationID, notification.EventPointsUsed, req.Amount)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientAvailableBalance) {
			s.logger.Warn("Debit: customer=%d: %v", req.CustomerID, err)
			s.metrics.ObserveLedger("debit", "insufficient", 0)
			return nil, err
		}
		s.logger.Error("Debit: customer=%d: %v", req.CustomerID, err)
		s.metrics.ObserveLedger("debit", "error", 0)
		return nil, err
	}

	s.logger.Info("Debit: customer=%d consumed %d credits, debit id=%d", req.CustomerID, len(result.Consumed), result.Debit.ID)
	return result, nil
}

// Credit начисляет баллы со статусом pending. Доступными они станут через период ожидания.
// Повторное начисление за то же бронирование возвращает уже существующую запись:
// проверка выполняется под блокировкой клиента, уникальный индекс остаётся последней защитой.
func (s *Service) Credit(ctx context.Context, req CreditRequest) (*domain.PointTransaction, error) {
	s.logger.Info("Credit: customer=%d amount=%d kind=%s", req.CustomerID, req.Amount, req.Kind)

	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if !req.Kind.IsEarning() {
		return nil, fmt.Errorf("%w: %s is not an earning kind", ErrInvalidTransaction, req.Kind)
	}

	var credit *domain.PointTransaction
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		now := s.clock.Now()

		if err := s.repo.LockCustomer(ctx, req.CustomerID); err != nil {
			return fmt.Errorf("%w: Credit - lock customer: %v", ErrInternal, err)
		}

		if req.ReservationID != nil && req.Kind == domain.KindEarnedService {
			existing, err := s.repo.GetByReservation(ctx, *req.ReservationID, req.Kind)
			if err == nil {
				s.logger.Info("Credit: reservation=%d already credited, id=%d", *req.ReservationID, existing.ID)
				credit = existing
				return nil
			}
			if !errors.Is(err, pointsRepo.ErrTransactionNotFound) {
				return fmt.Errorf("%w: Credit - load existing credit: %v", ErrInternal, err)
			}
		}

		credit = &domain.PointTransaction{
			CustomerID:    req.CustomerID,
			ReservationID: req.ReservationID,
			Amount:        req.Amount,
			InitialAmount: req.Amount,
			Kind:          req.Kind,
			Status:        domain.TxPending,
			Description:   req.Description,
			AvailableFrom: now.Add(s.cfg.PendingWindow),
			ExpiresAt:     s.expiresAt(now),
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		// без периода ожидания начисление доступно сразу
		if s.cfg.PendingWindow == 0 {
			credit.Status = domain.TxAvailable
		}

		if err := s.create(ctx, credit); err != nil {
			return err
		}

		s.afterWrite(ctx, "credit", req.CustomerID, req.ReservationID, notification.EventPointsEarned, req.Amount)
		return nil
	})
	if err != nil {
		s.logger.Error("Credit: customer=%d: %v", req.CustomerID, err)
		s.metrics.ObserveLedger("credit", "error", 0)
		return nil, err
	}

	return credit, nil
}

// Reverse возвращает клиенту баллы, списанные при создании бронирования.
// Возврат доступен сразу. Если списания не было, возвращает nil без ошибки;
// повторный вызов возвращает уже созданную запись.
func (s *Service) Reverse(ctx context.Context, customerID, reservationID int64) (*domain.PointTransaction, error) {
	s.logger.Info("Reverse: customer=%d reservation=%d", customerID, reservationID)

	var reversal *domain.PointTransaction
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		now := s.clock.Now()

		if err := s.repo.LockCustomer(ctx, customerID); err != nil {
			return fmt.Errorf("%w: Reverse - lock customer: %v", ErrInternal, err)
		}

		debit, err := s.repo.GetByReservation(ctx, reservationID, domain.KindUsedService)
		if errors.Is(err, pointsRepo.ErrTransactionNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: Reverse - load debit: %v", ErrInternal, err)
		}

		existing, err := s.repo.GetByReservation(ctx, reservationID, domain.KindReversal)
		if err == nil {
			reversal = existing
			return nil
		}
		if !errors.Is(err, pointsRepo.ErrTransactionNotFound) {
			return fmt.Errorf("%w: Reverse - load reversal: %v", ErrInternal, err)
		}

		amount := -debit.Amount
		reversal = &domain.PointTransaction{
			CustomerID:          customerID,
			ReservationID:       ptr.Ptr(reservationID),
			Amount:              amount,
			InitialAmount:       amount,
			Kind:                domain.KindReversal,
			Status:              domain.TxAvailable,
			Description:         ptr.Ptr(fmt.Sprintf("reversal of reservation %d", reservationID)),
			AvailableFrom:       now,
			ExpiresAt:           s.expiresAt(now),
			SourceTransactionID: ptr.Ptr(debit.ID),
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		if err := s.create(ctx, reversal); err != nil {
			return err
		}

		s.afterWrite(ctx, "reverse", customerID, &reservationID, notification.EventPointsReversed, amount)
		return nil
	})
	if err != nil {
		s.logger.Error("Reverse: reservation=%d: %v", reservationID, err)
		s.metrics.ObserveLedger("reverse", "error", 0)
		return nil, err
	}

	return reversal, nil
}

// PromoteMatured переводит все созревшие pending начисления в available
func (s *Service) PromoteMatured(ctx context.Context) (int64, error) {
	promoted, err := s.repo.PromoteMatured(ctx, nil, s.clock.Now())
	if err != nil {
		s.logger.Error("PromoteMatured: %v", err)
		return 0, fmt.Errorf("%w: PromoteMatured: %v", ErrInternal, err)
	}
	if promoted > 0 {
		s.logger.Info("PromoteMatured: promoted %d entries", promoted)
	}
	return promoted, nil
}

// ExpireSweep переводит просроченные начисления в expired, добавляя к каждому
// отрицательную запись вида expired. Каждое начисление сгорает в своей транзакции
// не более одного раза, поэтому повторный проход ничего не дублирует.
// Ошибка прерывает проход; необработанные записи подберёт следующий запуск.
func (s *Service) ExpireSweep(ctx context.Context, batchSize int) (*SweepResult, error) {
	if batchSize <= 0 {
		batchSize = defaultSweepBatch
	}

	result := &SweepResult{}

	promoted, err := s.PromoteMatured(ctx)
	if err != nil {
		return result, err
	}
	result.Promoted = promoted

	for {
		expirable, err := s.repo.ListExpirable(ctx, s.clock.Now(), batchSize)
		if err != nil {
			s.logger.Error("ExpireSweep: list expirable: %v", err)
			return result, fmt.Errorf("%w: ExpireSweep - list expirable: %v", ErrInternal, err)
		}

		for _, credit := range expirable {
			expired, err := s.expireOne(ctx, credit)
			if err != nil {
				s.logger.Error("ExpireSweep: credit id=%d: %v", credit.ID, err)
				return result, err
			}
			if expired {
				result.Expired++
				result.ExpiredPoints += credit.Amount
			}
		}

		if len(expirable) < batchSize {
			break
		}
	}

	s.logger.Info("ExpireSweep: promoted=%d expired=%d points=%d", result.Promoted, result.Expired, result.ExpiredPoints)
	return result, nil
}

func (s *Service) expireOne(ctx context.Context, credit *domain.PointTransaction) (bool, error) {
	expired := false
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		now := s.clock.Now()

		if err := s.repo.LockCustomer(ctx, credit.CustomerID); err != nil {
			return fmt.Errorf("%w: expireOne - lock customer: %v", ErrInternal, err)
		}

		ok, err := s.repo.MarkExpired(ctx, credit.ID, now)
		if err != nil {
			return fmt.Errorf("%w: expireOne - mark expired: %v", ErrInternal, err)
		}
		if !ok {
			// уже сгорело или израсходовано конкурентно
			return nil
		}

		entry := &domain.PointTransaction{
			CustomerID:          credit.CustomerID,
			ReservationID:       credit.ReservationID,
			Amount:              -credit.Amount,
			InitialAmount:       -credit.Amount,
			Kind:                domain.KindExpired,
			Status:              domain.TxExpired,
			AvailableFrom:       now,
			SourceTransactionID: ptr.Ptr(credit.ID),
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		if err := s.create(ctx, entry); err != nil {
			return err
		}

		expired = true
		s.afterWrite(ctx, "expire", credit.CustomerID, credit.ReservationID, notification.EventPointsExpired, credit.Amount)
		return nil
	})
	return expired, err
}

func (s *Service) create(ctx context.Context, t *domain.PointTransaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, t); err != nil {
		if errors.Is(err, pointsRepo.ErrDuplicateTransaction) {
			return err
		}
		return fmt.Errorf("%w: create %s entry: %v", ErrInternal, t.Kind, err)
	}
	return nil
}

// afterWrite после фиксации транзакции пересчитывает баланс, публикует событие и пишет метрику
func (s *Service) afterWrite(ctx context.Context, op string, customerID int64, reservationID *int64, eventType notification.EventType, points int64) {
	txmanager.AfterCommit(ctx, func(ctx context.Context) {
		s.metrics.ObserveLedger(op, "ok", points)

		if s.balances != nil {
			s.balances.Refresh(ctx, customerID)
		}

		event := notification.NewEvent(eventType, customerID, s.clock.Now())
		event.ReservationID = reservationID
		event.Points = points
		s.notifier.Publish(ctx, event)
	})
}

func (s *Service) expiresAt(now time.Time) *time.Time {
	if s.cfg.Expiry <= 0 {
		return nil
	}
	return ptr.Ptr(now.Add(s.cfg.Expiry))
}
