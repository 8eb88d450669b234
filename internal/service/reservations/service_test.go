package reservations

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/catalog"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/notification"
	"github.com/m04kA/SMC-ReservationService/internal/integrations/payment"
	"github.com/m04kA/SMC-ReservationService/internal/service/conflicts"
	"github.com/m04kA/SMC-ReservationService/internal/service/ledger"
	"github.com/m04kA/SMC-ReservationService/internal/service/refundpolicy"
	"github.com/m04kA/SMC-ReservationService/internal/service/reservations/models"
	"github.com/m04kA/SMC-ReservationService/pkg/clock"
	"github.com/m04kA/SMC-ReservationService/pkg/logger"
	"github.com/m04kA/SMC-ReservationService/pkg/ptr"
)

const (
	shopID     = int64(5)
	customerID = int64(42)
	managerID  = int64(900)
	strangerID = int64(555)
)

var now = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

type paymentMock struct {
	mock.Mock
}

func (m *paymentMock) Refund(ctx context.Context, reservationID int64, amount int64) (*payment.Result, error) {
	args := m.Called(ctx, reservationID, amount)
	res, _ := args.Get(0).(*payment.Result)
	return res, args.Error(1)
}

type catalogStub struct{}

func (catalogStub) GetShop(_ context.Context, id int64) (*catalog.Shop, error) {
	if id != shopID {
		return nil, catalog.ErrShopNotFound
	}
	return &catalog.Shop{ID: id, Name: "Salon", IsActive: true, ManagerIDs: []int64{managerID}}, nil
}

type fixture struct {
	store   *memory.Store
	clock   *clock.Mock
	payment *paymentMock
	ledger  *ledger.Service
	svc     *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	clk := clock.NewMock(now)
	log := logger.NewDiscard()
	pay := &paymentMock{}

	led := ledger.NewService(store.Points(), store.TxManager(), nil, notification.Discard{}, clk, nil, log,
		ledger.Config{PendingWindow: 7 * 24 * time.Hour, Expiry: 365 * 24 * time.Hour})
	detector := conflicts.NewDetector(store.Reservations(), clk, nil, log)

	svc := NewService(
		store.Reservations(),
		store.History(),
		detector,
		led,
		refundpolicy.New(24*time.Hour),
		pay,
		catalogStub{},
		store.TxManager(),
		notification.Discard{},
		clk,
		nil,
		log,
		Config{MaxRefundAttempts: 3},
	)

	t.Cleanup(func() { pay.AssertExpectations(t) })
	return &fixture{store: store, clock: clk, payment: pay, ledger: led, svc: svc}
}

func (f *fixture) seed(t *testing.T, status domain.ReservationStatus, start time.Time, mutate ...func(r *domain.Reservation)) *domain.Reservation {
	t.Helper()
	r := &domain.Reservation{
		CustomerID:      customerID,
		ShopID:          shopID,
		ReservedAt:      start,
		DurationMinutes: 60,
		Status:          status,
		TotalAmount:     50000,
		DepositAmount:   10000,
		DepositPaid:     10000,
		RemainingAmount: 40000,
		PaymentStatus:   domain.PaymentDepositPaid,
		Items: []domain.ReservationLineItem{
			{ServiceID: 1, ServiceName: "Color", Quantity: 1, UnitPrice: 50000, UnitDeposit: 10000, DurationMinutes: 60},
		},
		CreatedAt: now.Add(-72 * time.Hour),
		UpdatedAt: now.Add(-72 * time.Hour),
	}
	for _, fn := range mutate {
		fn(r)
	}
	created, err := f.store.Reservations().Create(context.Background(), r)
	require.NoError(t, err)
	return created
}

func (f *fixture) logs(t *testing.T, id int64) []domain.StatusLog {
	t.Helper()
	logs, err := f.store.History().ListStatusLogs(context.Background(), id)
	require.NoError(t, err)
	return logs
}

func (f *fixture) get(t *testing.T, id int64) *domain.Reservation {
	t.Helper()
	r, err := f.store.Reservations().GetByID(context.Background(), id)
	require.NoError(t, err)
	return r
}

func TestTransitionMatrix(t *testing.T) {
	statuses := []domain.ReservationStatus{
		domain.StatusRequested,
		domain.StatusConfirmed,
		domain.StatusCompleted,
		domain.StatusCancelledByUser,
		domain.StatusCancelledByShop,
		domain.StatusNoShow,
	}

	ops := []struct {
		name    string
		allowed map[domain.ReservationStatus]domain.ReservationStatus
		run     func(ctx context.Context, s *Service, id int64) error
	}{
		{
			name:    "confirm",
			allowed: map[domain.ReservationStatus]domain.ReservationStatus{domain.StatusRequested: domain.StatusConfirmed},
			run: func(ctx context.Context, s *Service, id int64) error {
				_, err := s.Confirm(ctx, id, &models.TransitionRequest{UserID: managerID})
				return err
			},
		},
		{
			name:    "complete",
			allowed: map[domain.ReservationStatus]domain.ReservationStatus{domain.StatusConfirmed: domain.StatusCompleted},
			run: func(ctx context.Context, s *Service, id int64) error {
				_, err := s.Complete(ctx, id, &models.TransitionRequest{UserID: managerID})
				return err
			},
		},
		{
			name:    "no-show",
			allowed: map[domain.ReservationStatus]domain.ReservationStatus{domain.StatusConfirmed: domain.StatusNoShow},
			run: func(ctx context.Context, s *Service, id int64) error {
				_, err := s.MarkNoShow(ctx, id, &models.TransitionRequest{UserID: managerID})
				return err
			},
		},
		{
			name: "cancel by user",
			allowed: map[domain.ReservationStatus]domain.ReservationStatus{
				domain.StatusRequested: domain.StatusCancelledByUser,
				domain.StatusConfirmed: domain.StatusCancelledByUser,
			},
			run: func(ctx context.Context, s *Service, id int64) error {
				_, err := s.Cancel(ctx, id, &models.CancelRequest{UserID: customerID})
				return err
			},
		},
	}

	for _, op := range ops {
		for _, from := range statuses {
			t.Run(op.name+" from "+string(from), func(t *testing.T) {
				f := newFixture(t)
				// прошедшее бронирование: неявку можно отметить, возврат клиенту не положен
				res := f.seed(t, from, now.Add(-2*time.Hour), func(r *domain.Reservation) { r.PointsToEarn = 0 })

				err := op.run(context.Background(), f.svc, res.ID)

				to, ok := op.allowed[from]
				if !ok {
					assert.ErrorIs(t, err, ErrInvalidTransition)
					assert.Equal(t, from, f.get(t, res.ID).Status)
					assert.Empty(t, f.logs(t, res.ID))
					return
				}

				require.NoError(t, err)
				assert.Equal(t, to, f.get(t, res.ID).Status)

				logs := f.logs(t, res.ID)
				require.Len(t, logs, 1)
				assert.Equal(t, from, *logs[0].OldStatus)
				assert.Equal(t, to, logs[0].NewStatus)
			})
		}
	}
}

func TestConfirmRequiresManager(t *testing.T) {
	f := newFixture(t)
	res := f.seed(t, domain.StatusRequested, now.Add(48*time.Hour))

	_, err := f.svc.Confirm(context.Background(), res.ID, &models.TransitionRequest{UserID: customerID})
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = f.svc.Confirm(context.Background(), 999, &models.TransitionRequest{UserID: managerID})
	assert.ErrorIs(t, err, ErrReservationNotFound)

	confirmed, err := f.svc.Confirm(context.Background(), res.ID, &models.TransitionRequest{UserID: managerID})
	require.NoError(t, err)
	require.NotNil(t, confirmed.ConfirmedAt)
	assert.True(t, confirmed.ConfirmedAt.Equal(now))
}

func TestConcurrentConfirmSucceedsOnce(t *testing.T) {
	f := newFixture(t)
	res := f.seed(t, domain.StatusRequested, now.Add(48*time.Hour))

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.Confirm(context.Background(), res.ID, &models.TransitionRequest{UserID: managerID}); err == nil {
				succeeded.Add(1)
			} else {
				assert.ErrorIs(t, err, ErrInvalidTransition)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Len(t, f.logs(t, res.ID), 1)
}

func TestCompleteCreditsPendingPoints(t *testing.T) {
	f := newFixture(t)
	res := f.seed(t, domain.StatusConfirmed, now.Add(-time.Hour), func(r *domain.Reservation) { r.PointsToEarn = 1250 })

	completed, err := f.svc.Complete(context.Background(), res.ID, &models.TransitionRequest{UserID: managerID})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCompleted), completed.Status)
	require.NotNil(t, completed.CompletedAt)

	entries, err := f.store.Points().ListByCustomer(context.Background(), customerID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.KindEarnedService, entries[0].Kind)
	assert.Equal(t, domain.TxPending, entries[0].Status)
	assert.Equal(t, int64(1250), entries[0].Amount)
	assert.True(t, entries[0].AvailableFrom.Equal(now.Add(7*24*time.Hour)))

	_, err = f.svc.Complete(context.Background(), res.ID, &models.TransitionRequest{UserID: managerID})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancelByUserWithNoticeRefundsAndRestoresPoints(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	credit := &domain.PointTransaction{
		CustomerID:    customerID,
		Amount:        500,
		InitialAmount: 500,
		Kind:          domain.KindBonus,
		Status:        domain.TxAvailable,
		AvailableFrom: now.Add(-24 * time.Hour),
		CreatedAt:     now.Add(-24 * time.Hour),
		UpdatedAt:     now.Add(-24 * time.Hour),
	}
	require.NoError(t, f.store.Points().Create(ctx, credit))

	res := f.seed(t, domain.StatusConfirmed, now.Add(24*time.Hour), func(r *domain.Reservation) { r.PointsUsed = 300 })
	_, err := f.ledger.Debit(ctx, ledger.DebitRequest{CustomerID: customerID, ReservationID: res.ID, Amount: 300})
	require.NoError(t, err)

	f.payment.On("Refund", mock.Anything, res.ID, int64(10000)).Return(&payment.Result{Status: "refunded", Amount: 10000}, nil).Once()

	resp, err := f.svc.Cancel(ctx, res.ID, &models.CancelRequest{UserID: customerID, Reason: ptr.Ptr("plans changed")})
	require.NoError(t, err)

	assert.Equal(t, string(domain.StatusCancelledByUser), resp.Reservation.Status)
	assert.Equal(t, string(domain.PaymentRefunded), resp.Reservation.PaymentStatus)
	assert.True(t, resp.Refund.Eligible)
	assert.Equal(t, 100, resp.Refund.Percentage)
	assert.Equal(t, int64(10000), resp.Refund.Amount)
	assert.Equal(t, int64(300), resp.PointsRestored)
	require.NotNil(t, resp.Reservation.CancellationReason)
	assert.Equal(t, "plans changed", *resp.Reservation.CancellationReason)

	spendable, err := f.store.Points().ListSpendable(ctx, customerID, now)
	require.NoError(t, err)
	var available int64
	for _, e := range spendable {
		available += e.Amount
	}
	assert.Equal(t, int64(500), available)
}

func TestCancelLateByUserHasNoRefund(t *testing.T) {
	f := newFixture(t)
	res := f.seed(t, domain.StatusConfirmed, now.Add(24*time.Hour-time.Minute))

	resp, err := f.svc.Cancel(context.Background(), res.ID, &models.CancelRequest{UserID: customerID})
	require.NoError(t, err)

	assert.False(t, resp.Refund.Eligible)
	assert.Equal(t, string(refundpolicy.ReasonLateCancel), resp.Refund.Reason)
	assert.Equal(t, string(domain.PaymentNoRefund), resp.Reservation.PaymentStatus)
	assert.Zero(t, resp.Reservation.RefundAmount)
	f.payment.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything, mock.Anything)
}

func TestCancelByShopRefundFailureStaysPendingUntilRetry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.seed(t, domain.StatusRequested, now.Add(2*time.Hour))

	f.payment.On("Refund", mock.Anything, res.ID, int64(10000)).Return(nil, payment.ErrUnavailable).Once()

	resp, err := f.svc.Cancel(ctx, res.ID, &models.CancelRequest{UserID: managerID})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCancelledByShop), resp.Reservation.Status)
	assert.Equal(t, string(domain.PaymentRefundPending), resp.Reservation.PaymentStatus)
	assert.Equal(t, 1, f.get(t, res.ID).RefundAttempts)

	f.payment.On("Refund", mock.Anything, res.ID, int64(10000)).Return(&payment.Result{Status: "refunded"}, nil).Once()

	result, err := f.svc.RetryPendingRefunds(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Attempted)
	assert.Equal(t, 1, result.Refunded)

	stored := f.get(t, res.ID)
	assert.Equal(t, domain.PaymentRefunded, stored.PaymentStatus)
	assert.Equal(t, 2, stored.RefundAttempts)

	// к возврату больше ничего нет
	result, err = f.svc.RetryPendingRefunds(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, result.Attempted)
}

func TestRetryPendingRefundsIgnoresExhausted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	exhausted := make([]*domain.Reservation, 0, 3)
	for i := 0; i < 3; i++ {
		exhausted = append(exhausted, f.seed(t, domain.StatusCancelledByShop, now.Add(time.Duration(i+1)*time.Hour), func(r *domain.Reservation) {
			r.PaymentStatus = domain.PaymentRefundPending
			r.RefundAmount = 10000
			r.RefundAttempts = 3
		}))
	}
	fresh := f.seed(t, domain.StatusCancelledByShop, now.Add(5*time.Hour), func(r *domain.Reservation) {
		r.PaymentStatus = domain.PaymentRefundPending
		r.RefundAmount = 10000
		r.RefundAttempts = 1
		r.UpdatedAt = now
	})

	f.payment.On("Refund", mock.Anything, fresh.ID, int64(10000)).Return(nil, payment.ErrUnavailable).Once()

	// лимит меньше числа исчерпанных: свежий возврат всё равно выбирается
	result, err := f.svc.RetryPendingRefunds(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Attempted)
	assert.Equal(t, 1, result.Failed)
	assert.Zero(t, result.Exhausted)
	assert.Equal(t, 2, f.get(t, fresh.ID).RefundAttempts)

	f.payment.On("Refund", mock.Anything, fresh.ID, int64(10000)).Return(nil, payment.ErrUnavailable).Once()

	result, err = f.svc.RetryPendingRefunds(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Attempted)
	assert.Equal(t, 1, result.Exhausted)

	result, err = f.svc.RetryPendingRefunds(ctx, 2)
	require.NoError(t, err)
	assert.Zero(t, result.Attempted)

	for _, r := range append(exhausted, fresh) {
		stored := f.get(t, r.ID)
		assert.Equal(t, domain.PaymentRefundPending, stored.PaymentStatus)
		assert.Equal(t, 3, stored.RefundAttempts)
	}
}

func TestDepositChargedAfterCancelIsQueuedForRefund(t *testing.T) {
	ctx := context.Background()
	unpaid := func(r *domain.Reservation) {
		r.PaymentStatus = domain.PaymentAwaitingDeposit
		r.DepositPaid = 0
	}

	t.Run("shop cancellation refunds the late deposit", func(t *testing.T) {
		f := newFixture(t)
		res := f.seed(t, domain.StatusRequested, now.Add(2*time.Hour), unpaid)

		resp, err := f.svc.Cancel(ctx, res.ID, &models.CancelRequest{UserID: managerID})
		require.NoError(t, err)
		assert.True(t, resp.Refund.Eligible)
		assert.Zero(t, resp.Refund.Amount)
		assert.Equal(t, string(domain.PaymentAwaitingDeposit), resp.Reservation.PaymentStatus)

		// списание депозита завершилось уже после отмены
		require.NoError(t, f.store.Reservations().MarkDeposit(ctx, res.ID, domain.PaymentDepositPaid, 10000, now))

		stored := f.get(t, res.ID)
		assert.Equal(t, domain.PaymentRefundPending, stored.PaymentStatus)
		assert.Equal(t, int64(10000), stored.DepositPaid)
		assert.Equal(t, int64(10000), stored.RefundAmount)

		f.payment.On("Refund", mock.Anything, res.ID, int64(10000)).Return(&payment.Result{Status: "refunded"}, nil).Once()

		result, err := f.svc.RetryPendingRefunds(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Refunded)
		assert.Equal(t, domain.PaymentRefunded, f.get(t, res.ID).PaymentStatus)
	})

	t.Run("late user cancellation keeps the deposit", func(t *testing.T) {
		f := newFixture(t)
		res := f.seed(t, domain.StatusRequested, now.Add(2*time.Hour), unpaid)

		_, err := f.svc.Cancel(ctx, res.ID, &models.CancelRequest{UserID: customerID})
		require.NoError(t, err)

		require.NoError(t, f.store.Reservations().MarkDeposit(ctx, res.ID, domain.PaymentDepositPaid, 10000, now))

		stored := f.get(t, res.ID)
		assert.Equal(t, domain.PaymentNoRefund, stored.PaymentStatus)
		assert.Zero(t, stored.RefundAmount)
	})
}

func TestCancelByStrangerDenied(t *testing.T) {
	f := newFixture(t)
	res := f.seed(t, domain.StatusRequested, now.Add(48*time.Hour))

	_, err := f.svc.Cancel(context.Background(), res.ID, &models.CancelRequest{UserID: strangerID})
	assert.ErrorIs(t, err, ErrAccessDenied)
	assert.Equal(t, domain.StatusRequested, f.get(t, res.ID).Status)
}

func TestMarkNoShowBeforeStartRejected(t *testing.T) {
	f := newFixture(t)
	res := f.seed(t, domain.StatusConfirmed, now.Add(time.Hour))

	_, err := f.svc.MarkNoShow(context.Background(), res.ID, &models.TransitionRequest{UserID: managerID})
	assert.ErrorIs(t, err, ErrNoShowTooEarly)
	assert.Empty(t, f.logs(t, res.ID))

	f.clock.Advance(90 * time.Minute)
	resp, err := f.svc.MarkNoShow(context.Background(), res.ID, &models.TransitionRequest{UserID: managerID})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusNoShow), resp.Status)
	assert.Equal(t, string(domain.PaymentNoRefund), resp.PaymentStatus)

	logs := f.logs(t, res.ID)
	require.Len(t, logs, 1)
	require.NotNil(t, logs[0].Reason)
	assert.Equal(t, string(refundpolicy.ReasonNoShow), *logs[0].Reason)
}

func TestReschedule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tomorrow := time.Date(2026, 6, 2, 14, 0, 0, 0, time.UTC)

	first := f.seed(t, domain.StatusConfirmed, tomorrow)
	f.seed(t, domain.StatusRequested, tomorrow.Add(2*time.Hour))

	t.Run("conflict leaves original untouched", func(t *testing.T) {
		_, err := f.svc.Reschedule(ctx, first.ID, &models.RescheduleRequest{
			UserID:     customerID,
			ReservedAt: tomorrow.Add(90 * time.Minute),
		})
		assert.ErrorIs(t, err, ErrSlotConflict)

		stored := f.get(t, first.ID)
		assert.True(t, stored.ReservedAt.Equal(tomorrow))
		history, err := f.store.History().ListReschedules(ctx, first.ID)
		require.NoError(t, err)
		assert.Empty(t, history)
	})

	t.Run("past time rejected", func(t *testing.T) {
		_, err := f.svc.Reschedule(ctx, first.ID, &models.RescheduleRequest{
			UserID:     customerID,
			ReservedAt: now.Add(-time.Hour),
		})
		assert.ErrorIs(t, err, ErrInvalidDate)
	})

	t.Run("negative fee rejected", func(t *testing.T) {
		_, err := f.svc.Reschedule(ctx, first.ID, &models.RescheduleRequest{
			UserID:     managerID,
			ReservedAt: tomorrow.Add(4 * time.Hour),
			Fee:        -1,
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("free window moves reservation", func(t *testing.T) {
		resp, err := f.svc.Reschedule(ctx, first.ID, &models.RescheduleRequest{
			UserID:     managerID,
			ReservedAt: tomorrow.Add(3 * time.Hour),
			Reason:     ptr.Ptr("master is ill"),
			Fee:        500,
		})
		require.NoError(t, err)
		assert.True(t, resp.ReservedAt.Equal(tomorrow.Add(3*time.Hour)))
		assert.Equal(t, int64(40500), resp.RemainingAmount)
		assert.Equal(t, string(domain.StatusConfirmed), resp.Status)

		history, err := f.store.History().ListReschedules(ctx, first.ID)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, domain.ActorShop, history[0].Actor)
		assert.True(t, history[0].OldReservedAt.Equal(tomorrow))
		assert.Equal(t, int64(500), history[0].Fee)

		assert.Empty(t, f.logs(t, first.ID))
	})
}

func TestGetByIDIncludesHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.seed(t, domain.StatusRequested, now.Add(48*time.Hour))

	_, err := f.svc.Confirm(ctx, res.ID, &models.TransitionRequest{UserID: managerID})
	require.NoError(t, err)

	details, err := f.svc.GetByID(ctx, res.ID, customerID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusConfirmed), details.Status)
	require.Len(t, details.StatusHistory, 1)
	assert.Equal(t, string(domain.ActorShop), details.StatusHistory[0].Actor)
	require.Len(t, details.Items, 1)
	assert.Equal(t, int64(50000), details.Items[0].Subtotal)

	_, err = f.svc.GetByID(ctx, res.ID, strangerID)
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestListByShopReturnsDayForManagers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	day := now.Add(48 * time.Hour)

	first := f.seed(t, domain.StatusRequested, day)
	f.seed(t, domain.StatusConfirmed, day.Add(2*time.Hour))
	f.seed(t, domain.StatusCancelledByUser, day.Add(4*time.Hour))
	f.seed(t, domain.StatusRequested, day.Add(24*time.Hour))

	list, err := f.svc.ListByShop(ctx, &models.ShopReservationsRequest{UserID: managerID, ShopID: shopID, Date: day})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)

	_, err = f.svc.ListByShop(ctx, &models.ShopReservationsRequest{UserID: customerID, ShopID: shopID, Date: day})
	assert.ErrorIs(t, err, ErrAccessDenied)
}
