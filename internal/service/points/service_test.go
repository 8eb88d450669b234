package points

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/infra/storage/memory"
	pointsRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/points"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/catalog"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/notification"
	"github.com/m04kA/SMC-ReservationService/internal/service/balance"
	"github.com/m04kA/SMC-ReservationService/internal/service/ledger"
	"github.com/m04kA/SMC-ReservationService/internal/service/points/models"
	"github.com/m04kA/SMC-ReservationService/pkg/clock"
	"github.com/m04kA/SMC-ReservationService/pkg/logger"
	"github.com/m04kA/SMC-ReservationService/pkg/ptr"
)

const (
	shopID     = int64(5)
	customerID = int64(42)
	managerID  = int64(900)
	adminID    = int64(1)
)

var now = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

type catalogStub struct{}

func (catalogStub) GetShop(_ context.Context, id int64) (*catalog.Shop, error) {
	if id != shopID {
		return nil, catalog.ErrShopNotFound
	}
	return &catalog.Shop{ID: id, IsActive: true, ManagerIDs: []int64{managerID}}, nil
}

type fixture struct {
	store *memory.Store
	svc   *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	clk := clock.NewMock(now)
	log := logger.NewDiscard()
	materializer := balance.NewMaterializer(store.Points(), store.Balances(), nil, store.TxManager(), clk, log)
	points := ledger.NewService(
		store.Points(),
		store.TxManager(),
		materializer,
		notification.Discard{},
		clk,
		nil,
		log,
		ledger.Config{PendingWindow: 7 * 24 * time.Hour},
	)
	svc := NewService(store.Reservations(), points, materializer, catalogStub{}, store.TxManager(), clk, log, Config{AdminIDs: []int64{adminID}})

	credit := &domain.PointTransaction{
		CustomerID:    customerID,
		Amount:        3000,
		InitialAmount: 3000,
		Kind:          domain.KindBonus,
		Status:        domain.TxAvailable,
		AvailableFrom: now.Add(-time.Hour),
		CreatedAt:     now.Add(-time.Hour),
		UpdatedAt:     now.Add(-time.Hour),
	}
	require.NoError(t, store.Points().Create(context.Background(), credit))

	return &fixture{store: store, svc: svc}
}

func (f *fixture) reservation(t *testing.T, customer int64, status domain.ReservationStatus, hour int) *domain.Reservation {
	t.Helper()
	res, err := f.store.Reservations().Create(context.Background(), &domain.Reservation{
		CustomerID:      customer,
		ShopID:          shopID,
		ReservedAt:      time.Date(2026, 6, 2, hour, 0, 0, 0, time.UTC),
		DurationMinutes: 60,
		Status:          status,
		TotalAmount:     50000,
		DepositAmount:   10000,
		DepositPaid:     10000,
		RemainingAmount: 40000,
		PaymentStatus:   domain.PaymentDepositPaid,
		Items:           []domain.ReservationLineItem{{ServiceID: 8, ServiceName: "Color", Quantity: 1, UnitPrice: 50000}},
	})
	require.NoError(t, err)
	return res
}

func TestUseReducesRemainingAmount(t *testing.T) {
	f := newFixture(t)
	res := f.reservation(t, customerID, domain.StatusConfirmed, 10)

	resp, err := f.svc.Use(context.Background(), &models.UseRequest{
		UserID:        customerID,
		CustomerID:    customerID,
		ReservationID: res.ID,
		Amount:        1000,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(39000), resp.RemainingAmount)
	assert.Equal(t, int64(-1000), resp.Transaction.Amount)
	require.Len(t, resp.Consumed, 1)
	assert.Equal(t, int64(2000), resp.Consumed[0].Remaining)

	stored, err := f.store.Reservations().GetByID(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), stored.PointsUsed)
	assert.Equal(t, int64(39000), stored.RemainingAmount)

	_, err = f.svc.Use(context.Background(), &models.UseRequest{
		UserID:        customerID,
		CustomerID:    customerID,
		ReservationID: res.ID,
		Amount:        500,
	})
	assert.ErrorIs(t, err, ErrPointsAlreadyApplied)

	b, err := f.svc.Balance(context.Background(), customerID, customerID)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), b.Available)
	assert.Equal(t, int64(1000), b.TotalUsed)
}

func TestUseRejections(t *testing.T) {
	f := newFixture(t)
	own := f.reservation(t, customerID, domain.StatusRequested, 10)
	foreign := f.reservation(t, 77, domain.StatusRequested, 12)
	done := f.reservation(t, customerID, domain.StatusCompleted, 14)

	tests := []struct {
		name    string
		req     *models.UseRequest
		wantErr error
	}{
		{
			name:    "other user",
			req:     &models.UseRequest{UserID: 7, CustomerID: customerID, ReservationID: own.ID, Amount: 100},
			wantErr: ErrAccessDenied,
		},
		{
			name:    "zero amount",
			req:     &models.UseRequest{UserID: customerID, CustomerID: customerID, ReservationID: own.ID},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "more than remaining",
			req:     &models.UseRequest{UserID: customerID, CustomerID: customerID, ReservationID: own.ID, Amount: 40001},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "more than available",
			req:     &models.UseRequest{UserID: customerID, CustomerID: customerID, ReservationID: own.ID, Amount: 3001},
			wantErr: ErrInsufficientAvailableBalance,
		},
		{
			name:    "foreign reservation",
			req:     &models.UseRequest{UserID: customerID, CustomerID: customerID, ReservationID: foreign.ID, Amount: 100},
			wantErr: ErrReservationNotFound,
		},
		{
			name:    "completed reservation",
			req:     &models.UseRequest{UserID: customerID, CustomerID: customerID, ReservationID: done.ID, Amount: 100},
			wantErr: ErrReservationNotEditable,
		},
		{
			name:    "missing reservation",
			req:     &models.UseRequest{UserID: customerID, CustomerID: customerID, ReservationID: 999, Amount: 100},
			wantErr: ErrReservationNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Use(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	stored, err := f.store.Reservations().GetByID(context.Background(), own.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.PointsUsed)
	assert.Equal(t, int64(40000), stored.RemainingAmount)

	entries, err := f.store.Points().ListByCustomer(context.Background(), customerID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestEarnAuthorization(t *testing.T) {
	f := newFixture(t)
	res := f.reservation(t, customerID, domain.StatusCompleted, 10)

	credit, err := f.svc.Earn(context.Background(), &models.EarnRequest{
		UserID:        managerID,
		CustomerID:    customerID,
		ReservationID: ptr.Ptr(res.ID),
		Amount:        1250,
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.KindEarnedService), credit.Kind)
	assert.Equal(t, string(domain.TxPending), credit.Status)
	assert.Equal(t, now.Add(7*24*time.Hour), credit.AvailableFrom)

	bonus, err := f.svc.Earn(context.Background(), &models.EarnRequest{
		UserID:     adminID,
		CustomerID: customerID,
		Amount:     500,
		Kind:       domain.KindBonus,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(500), bonus.Amount)

	tests := []struct {
		name    string
		req     *models.EarnRequest
		wantErr error
	}{
		{
			name:    "stranger on reservation",
			req:     &models.EarnRequest{UserID: 3, CustomerID: customerID, ReservationID: ptr.Ptr(res.ID), Amount: 10},
			wantErr: ErrAccessDenied,
		},
		{
			name:    "bonus by non admin",
			req:     &models.EarnRequest{UserID: managerID, CustomerID: customerID, Amount: 10, Kind: domain.KindBonus},
			wantErr: ErrAccessDenied,
		},
		{
			name:    "service credit without reservation",
			req:     &models.EarnRequest{UserID: adminID, CustomerID: customerID, Amount: 10},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "debit kind",
			req:     &models.EarnRequest{UserID: adminID, CustomerID: customerID, Amount: 10, Kind: domain.KindUsedService},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "wrong customer",
			req:     &models.EarnRequest{UserID: managerID, CustomerID: 77, ReservationID: ptr.Ptr(res.ID), Amount: 10},
			wantErr: ErrReservationNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Earn(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestEarnServiceCreditRequiresCompletedReservation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pending := f.reservation(t, customerID, domain.StatusConfirmed, 10)

	for _, userID := range []int64{managerID, adminID} {
		_, err := f.svc.Earn(ctx, &models.EarnRequest{
			UserID:        userID,
			CustomerID:    customerID,
			ReservationID: ptr.Ptr(pending.ID),
			Amount:        1250,
		})
		assert.ErrorIs(t, err, ErrReservationNotCompleted)
	}

	// другие виды начислений по незавершённому бронированию допустимы
	_, err := f.svc.Earn(ctx, &models.EarnRequest{
		UserID:        adminID,
		CustomerID:    customerID,
		ReservationID: ptr.Ptr(pending.ID),
		Amount:        100,
		Kind:          domain.KindBonus,
	})
	require.NoError(t, err)

	_, err = f.store.Points().GetByReservation(ctx, pending.ID, domain.KindEarnedService)
	assert.ErrorIs(t, err, pointsRepo.ErrTransactionNotFound)
}

func TestBalanceAccess(t *testing.T) {
	f := newFixture(t)

	b, err := f.svc.Balance(context.Background(), adminID, customerID)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), b.Available)

	_, err = f.svc.Balance(context.Background(), 9, customerID)
	assert.ErrorIs(t, err, ErrAccessDenied)
}
