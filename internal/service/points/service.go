// Package points обслуживает прямые операции с баллами клиента:
// оплату бронирования баллами, ручное начисление и чтение баланса.
package points

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	reservationRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/catalog"
	"github.com/m04kA/SMC-ReservationService/internal/service/ledger"
	"github.com/m04kA/SMC-ReservationService/internal/service/points/models"
)

// Config параметры сервиса
type Config struct {
	AdminIDs []int64 // пользователи, которым разрешены начисления без бронирования
}

// Service сервис операций с баллами
type Service struct {
	reservations ReservationRepository
	ledger       PointLedger
	balances     BalanceReader
	catalog      CatalogClient
	txManager    TransactionManager
	clock        Clock
	logger       Logger
	admins       map[int64]struct{}
}

// NewService создает новый экземпляр сервиса баллов
func NewService(
	reservations ReservationRepository,
	ledger PointLedger,
	balances BalanceReader,
	catalog CatalogClient,
	txManager TransactionManager,
	clock Clock,
	logger Logger,
	cfg Config,
) *Service {
	admins := make(map[int64]struct{}, len(cfg.AdminIDs))
	for _, id := range cfg.AdminIDs {
		admins[id] = struct{}{}
	}
	return &Service{
		reservations: reservations,
		ledger:       ledger,
		balances:     balances,
		catalog:      catalog,
		txManager:    txManager,
		clock:        clock,
		logger:       logger,
		admins:       admins,
	}
}

// Use оплачивает часть остатка бронирования баллами клиента.
// Списание и уменьшение остатка к оплате выполняются в одной транзакции.
func (s *Service) Use(ctx context.Context, req *models.UseRequest) (*models.UseResponse, error) {
	s.logger.Info("UsePoints: user=%d, customer=%d, reservation=%d, amount=%d",
		req.UserID, req.CustomerID, req.ReservationID, req.Amount)

	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if req.ReservationID <= 0 {
		return nil, fmt.Errorf("%w: reservationId is required", ErrInvalidInput)
	}
	if err := validateDescription(req.Description); err != nil {
		return nil, err
	}
	if req.UserID != req.CustomerID {
		s.logger.Warn("UsePoints: user=%d may not spend points of customer=%d", req.UserID, req.CustomerID)
		return nil, ErrAccessDenied
	}

	var resp *models.UseResponse
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		res, err := s.reservations.GetByIDForUpdate(txCtx, req.ReservationID)
		if err != nil {
			return s.mapRepoError("UsePoints", req.ReservationID, err)
		}

		if res.CustomerID != req.CustomerID {
			s.logger.Warn("UsePoints: reservation id=%d belongs to another customer", res.ID)
			return ErrReservationNotFound
		}
		if res.Status != domain.StatusRequested && res.Status != domain.StatusConfirmed {
			s.logger.Warn("UsePoints: reservation id=%d is %s", res.ID, res.Status)
			return ErrReservationNotEditable
		}
		if res.PointsUsed > 0 {
			return ErrPointsAlreadyApplied
		}
		if req.Amount > res.RemainingAmount {
			return fmt.Errorf("%w: amount exceeds the remaining amount %d", ErrInvalidInput, res.RemainingAmount)
		}

		result, err := s.ledger.Debit(txCtx, ledger.DebitRequest{
			CustomerID:    req.CustomerID,
			ReservationID: res.ID,
			Amount:        req.Amount,
			Description:   req.Description,
		})
		if err != nil {
			if errors.Is(err, ErrInsufficientAvailableBalance) {
				return err
			}
			return fmt.Errorf("%w: UsePoints - debit: %v", ErrInternal, err)
		}

		res.PointsUsed = req.Amount
		res.RemainingAmount -= req.Amount
		res.UpdatedAt = s.clock.Now()
		if err := s.reservations.UpdatePoints(txCtx, res); err != nil {
			return s.mapRepoError("UsePoints", res.ID, err)
		}

		resp = &models.UseResponse{
			Transaction:     models.FromDomainTransaction(result.Debit),
			Consumed:        make([]models.ConsumptionResponse, 0, len(result.Consumed)),
			RemainingAmount: res.RemainingAmount,
		}
		for _, c := range result.Consumed {
			resp.Consumed = append(resp.Consumed, models.ConsumptionResponse{
				TransactionID: c.TransactionID,
				Taken:         c.Taken,
				Remaining:     c.Remaining,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("UsePoints: reservation id=%d remaining=%d", req.ReservationID, resp.RemainingAmount)
	return resp, nil
}

// Earn начисляет баллы. Начисление за бронирование делает менеджер магазина,
// остальные начисления разрешены только администраторам.
func (s *Service) Earn(ctx context.Context, req *models.EarnRequest) (*models.TransactionResponse, error) {
	kind := req.Kind
	if kind == "" {
		kind = domain.KindEarnedService
	}

	s.logger.Info("EarnPoints: user=%d, customer=%d, kind=%s, amount=%d", req.UserID, req.CustomerID, kind, req.Amount)

	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if !kind.IsEarning() {
		return nil, fmt.Errorf("%w: %s is not an earning kind", ErrInvalidInput, kind)
	}
	if kind == domain.KindEarnedService && req.ReservationID == nil {
		return nil, fmt.Errorf("%w: %s requires a reservation", ErrInvalidInput, kind)
	}
	if err := validateDescription(req.Description); err != nil {
		return nil, err
	}

	res, err := s.authorizeEarn(ctx, req)
	if err != nil {
		return nil, err
	}
	// начисление за услугу до завершения заняло бы место начисления при Complete
	if kind == domain.KindEarnedService && res.Status != domain.StatusCompleted {
		s.logger.Warn("EarnPoints: reservation id=%d is %s, service credit requires completed", res.ID, res.Status)
		return nil, ErrReservationNotCompleted
	}

	credit, err := s.ledger.Credit(ctx, ledger.CreditRequest{
		CustomerID:    req.CustomerID,
		ReservationID: req.ReservationID,
		Amount:        req.Amount,
		Kind:          kind,
		Description:   req.Description,
	})
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidTransaction) || errors.Is(err, ledger.ErrInvalidAmount) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return nil, fmt.Errorf("%w: EarnPoints - credit: %v", ErrInternal, err)
	}

	resp := models.FromDomainTransaction(credit)
	return &resp, nil
}

// Balance возвращает баланс клиента. Читать его может сам клиент или администратор.
func (s *Service) Balance(ctx context.Context, userID, customerID int64) (*models.BalanceResponse, error) {
	if userID != customerID && !s.isAdmin(userID) {
		s.logger.Warn("GetPointBalance: user=%d may not read balance of customer=%d", userID, customerID)
		return nil, ErrAccessDenied
	}

	b, err := s.balances.Get(ctx, customerID)
	if err != nil {
		s.logger.Error("GetPointBalance: customer=%d: %v", customerID, err)
		return nil, fmt.Errorf("%w: GetPointBalance - get balance: %v", ErrInternal, err)
	}

	resp := models.FromDomainBalance(b)
	return &resp, nil
}

func (s *Service) authorizeEarn(ctx context.Context, req *models.EarnRequest) (*domain.Reservation, error) {
	if req.ReservationID == nil {
		if !s.isAdmin(req.UserID) {
			s.logger.Warn("EarnPoints: user=%d is not an administrator", req.UserID)
			return nil, ErrAccessDenied
		}
		return nil, nil
	}

	res, err := s.reservations.GetByID(ctx, *req.ReservationID)
	if err != nil {
		return nil, s.mapRepoError("EarnPoints", *req.ReservationID, err)
	}
	if res.CustomerID != req.CustomerID {
		return nil, ErrReservationNotFound
	}
	if s.isAdmin(req.UserID) {
		return res, nil
	}

	shop, err := s.catalog.GetShop(ctx, res.ShopID)
	if err != nil {
		if errors.Is(err, catalog.ErrShopNotFound) {
			return nil, ErrAccessDenied
		}
		return nil, fmt.Errorf("%w: EarnPoints - get shop: %v", ErrInternal, err)
	}
	if !shop.IsManager(req.UserID) {
		s.logger.Warn("EarnPoints: user=%d does not manage shop id=%d", req.UserID, res.ShopID)
		return nil, ErrAccessDenied
	}
	return res, nil
}

func (s *Service) isAdmin(userID int64) bool {
	_, ok := s.admins[userID]
	return ok
}

func (s *Service) mapRepoError(op string, id int64, err error) error {
	switch {
	case errors.Is(err, reservationRepo.ErrReservationNotFound):
		s.logger.Warn("%s: reservation id=%d not found", op, id)
		return ErrReservationNotFound
	case errors.Is(err, reservationRepo.ErrStatusMismatch):
		return ErrReservationNotEditable
	default:
		s.logger.Error("%s: repository error for reservation id=%d: %v", op, id, err)
		return fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
	}
}

func validateDescription(description *string) error {
	if description != nil && utf8.RuneCountInString(*description) > domain.MaxDescriptionLength {
		return fmt.Errorf("%w: description must be at most %d characters", ErrInvalidInput, domain.MaxDescriptionLength)
	}
	return nil
}
