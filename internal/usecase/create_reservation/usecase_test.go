package create_reservation

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
	"github.com/m04kA/SMC-ReservationService/internal/service/balance"
	"github.com/m04kA/SMC-ReservationService/internal/service/conflicts"
	"github.com/m04kA/SMC-ReservationService/internal/service/ledger"
	"github.com/m04kA/SMC-ReservationService/internal/service/refundpolicy"
	"github.com/m04kA/SMC-ReservationService/internal/service/reservations"
	reservationModels "github.com/m04kA/SMC-ReservationService/internal/service/reservations/models"
	"github.com/m04kA/SMC-ReservationService/pkg/clock"
	"github.com/m04kA/SMC-ReservationService/pkg/logger"
	"github.com/m04kA/SMC-ReservationService/pkg/ptr"
)

const (
	shopID     = int64(3)
	serviceID  = int64(8)
	customerID = int64(42)
	managerID  = int64(900)
)

// понедельник
var now = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

func tomorrowAt(hour, minute int) time.Time {
	return time.Date(2026, 5, 5, hour, minute, 0, 0, time.UTC)
}

type catalogStub struct {
	mu     sync.Mutex
	price  int64
	closed bool
}

func (c *catalogStub) GetShop(_ context.Context, id int64) (*catalog.Shop, error) {
	if id != shopID {
		return nil, catalog.ErrShopNotFound
	}
	hours := make(map[string]catalog.DaySchedule)
	for _, day := range []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"} {
		hours[day] = catalog.DaySchedule{IsOpen: !c.closed, OpenTime: "09:00", CloseTime: "21:00"}
	}
	return &catalog.Shop{ID: id, Name: "Salon", IsActive: true, ManagerIDs: []int64{managerID}, WorkingHours: hours}, nil
}

func (c *catalogStub) GetService(_ context.Context, shop, id int64) (*catalog.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if shop != shopID || id != serviceID {
		return nil, catalog.ErrServiceNotFound
	}
	return &catalog.Service{ID: id, ShopID: shop, Name: "Color", Price: c.price, DepositAmount: 10000, DurationMinutes: ptr.Ptr(60), IsActive: true}, nil
}

func (c *catalogStub) setPrice(p int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.price = p
}

type paymentMock struct {
	mock.Mock
}

func (m *paymentMock) ChargeDeposit(ctx context.Context, reservationID int64, amount int64) (*payment.Result, error) {
	args := m.Called(ctx, reservationID, amount)
	res, _ := args.Get(0).(*payment.Result)
	return res, args.Error(1)
}

func (m *paymentMock) Refund(ctx context.Context, reservationID int64, amount int64) (*payment.Result, error) {
	args := m.Called(ctx, reservationID, amount)
	res, _ := args.Get(0).(*payment.Result)
	return res, args.Error(1)
}

type fixture struct {
	store        *memory.Store
	clock        *clock.Mock
	catalog      *catalogStub
	payment      *paymentMock
	balances     *balance.Materializer
	reservations *reservations.Service
	uc           *UseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	clk := clock.NewMock(now)
	log := logger.NewDiscard()
	cat := &catalogStub{price: 50000}
	pay := &paymentMock{}

	materializer := balance.NewMaterializer(store.Points(), store.Balances(), nil, store.TxManager(), clk, log)
	led := ledger.NewService(store.Points(), store.TxManager(), materializer, notification.Discard{}, clk, nil, log,
		ledger.Config{PendingWindow: 7 * 24 * time.Hour, Expiry: 365 * 24 * time.Hour})
	detector := conflicts.NewDetector(store.Reservations(), clk, nil, log)

	svc := reservations.NewService(
		store.Reservations(), store.History(), detector, led, refundpolicy.New(24*time.Hour),
		pay, cat, store.TxManager(), notification.Discard{}, clk, nil, log, reservations.Config{},
	)
	uc := NewUseCase(
		store.Reservations(), store.History(), detector, led, cat, pay,
		notification.Discard{}, store.TxManager(), clk, nil, log,
		Config{DefaultDurationMinutes: 60, EarnRatePercent: 2.5},
	)

	return &fixture{store: store, clock: clk, catalog: cat, payment: pay, balances: materializer, reservations: svc, uc: uc}
}

func request(at time.Time, points int64) *Request {
	return &Request{
		CustomerID:  customerID,
		ShopID:      shopID,
		ReservedAt:  at,
		Items:       []ItemRequest{{ServiceID: serviceID, Quantity: 1}},
		PointsToUse: points,
	}
}

func TestExecuteFreezesPricesAndChargesDeposit(t *testing.T) {
	f := newFixture(t)
	f.payment.On("ChargeDeposit", mock.Anything, mock.Anything, int64(10000)).Return(&payment.Result{Status: "paid"}, nil).Once()

	resp, err := f.uc.Execute(context.Background(), request(tomorrowAt(14, 0), 0))
	require.NoError(t, err)
	f.payment.AssertExpectations(t)

	assert.Equal(t, string(domain.StatusRequested), resp.Status)
	assert.Equal(t, int64(50000), resp.TotalAmount)
	assert.Equal(t, int64(10000), resp.DepositPaid)
	assert.Equal(t, int64(40000), resp.RemainingAmount)
	assert.Equal(t, int64(1250), resp.PointsToEarn)
	assert.Equal(t, string(domain.PaymentDepositPaid), resp.PaymentStatus)
	assert.True(t, resp.EndsAt.Equal(tomorrowAt(15, 0)))

	// последующее изменение цены в каталоге не меняет бронирование
	f.catalog.setPrice(70000)
	stored, err := f.store.Reservations().GetByID(context.Background(), resp.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, int64(50000), stored.Items[0].UnitPrice)

	logs, err := f.store.History().ListStatusLogs(context.Background(), resp.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Nil(t, logs[0].OldStatus)
	assert.Equal(t, domain.StatusRequested, logs[0].NewStatus)
}

func TestExecuteDepositFailureKeepsReservation(t *testing.T) {
	f := newFixture(t)
	f.payment.On("ChargeDeposit", mock.Anything, mock.Anything, int64(10000)).Return(nil, payment.ErrUnavailable).Once()

	resp, err := f.uc.Execute(context.Background(), request(tomorrowAt(14, 0), 0))
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusRequested), resp.Status)
	assert.Equal(t, string(domain.PaymentDepositFailed), resp.PaymentStatus)
	assert.Zero(t, resp.DepositPaid)
}

// cancelOnCreate отменяет бронирование от имени менеджера сразу после фиксации создания
type cancelOnCreate struct {
	svc *reservations.Service
}

func (n *cancelOnCreate) Publish(ctx context.Context, event notification.Event) {
	if event.Type != notification.EventReservationCreated || event.ReservationID == nil {
		return
	}
	_, _ = n.svc.Cancel(ctx, *event.ReservationID, &reservationModels.CancelRequest{UserID: managerID})
}

func TestExecuteSkipsDepositForReservationCancelledBeforeCharge(t *testing.T) {
	f := newFixture(t)
	log := logger.NewDiscard()
	detector := conflicts.NewDetector(f.store.Reservations(), f.clock, nil, log)
	led := ledger.NewService(f.store.Points(), f.store.TxManager(), f.balances, notification.Discard{}, f.clock, nil, log,
		ledger.Config{PendingWindow: 7 * 24 * time.Hour, Expiry: 365 * 24 * time.Hour})
	uc := NewUseCase(
		f.store.Reservations(), f.store.History(), detector, led, f.catalog, f.payment,
		&cancelOnCreate{svc: f.reservations}, f.store.TxManager(), f.clock, nil, log,
		Config{DefaultDurationMinutes: 60, EarnRatePercent: 2.5},
	)

	resp, err := uc.Execute(context.Background(), request(tomorrowAt(14, 0), 0))
	require.NoError(t, err)

	assert.Equal(t, string(domain.StatusCancelledByShop), resp.Status)
	assert.Equal(t, string(domain.PaymentAwaitingDeposit), resp.PaymentStatus)
	assert.Zero(t, resp.DepositPaid)
	f.payment.AssertNotCalled(t, "ChargeDeposit", mock.Anything, mock.Anything, mock.Anything)
}

func TestExecuteValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *Request)
		wantErr error
	}{
		{"no items", func(r *Request) { r.Items = nil }, ErrInvalidInput},
		{"zero quantity", func(r *Request) { r.Items[0].Quantity = 0 }, ErrInvalidInput},
		{"too many units", func(r *Request) { r.Items[0].Quantity = domain.MaxLineItemQuantity + 1 }, ErrInvalidInput},
		{"duplicate service", func(r *Request) { r.Items = append(r.Items, ItemRequest{ServiceID: serviceID, Quantity: 1}) }, ErrInvalidInput},
		{"negative points", func(r *Request) { r.PointsToUse = -1 }, ErrInvalidInput},
		{"points above payable", func(r *Request) { r.PointsToUse = 40001 }, ErrInvalidInput},
		{"past", func(r *Request) { r.ReservedAt = now.Add(-time.Minute) }, ErrInvalidDate},
		{"unknown shop", func(r *Request) { r.ShopID = 99 }, ErrShopNotFound},
		{"unknown service", func(r *Request) { r.Items[0].ServiceID = 99 }, ErrServiceNotFound},
		{"before opening", func(r *Request) { r.ReservedAt = tomorrowAt(8, 30) }, ErrOutsideWorkingHours},
		{"past closing", func(r *Request) { r.ReservedAt = tomorrowAt(20, 30) }, ErrOutsideWorkingHours},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := request(tomorrowAt(14, 0), 0)
			tt.mutate(req)

			_, err := f.uc.Execute(context.Background(), req)
			assert.ErrorIs(t, err, tt.wantErr)
			f.payment.AssertNotCalled(t, "ChargeDeposit", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestExecuteShopClosed(t *testing.T) {
	f := newFixture(t)
	f.catalog.closed = true

	_, err := f.uc.Execute(context.Background(), request(tomorrowAt(14, 0), 0))
	assert.ErrorIs(t, err, ErrShopClosed)
}

func TestExecuteInsufficientPointsLeavesNoTrace(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.Execute(context.Background(), request(tomorrowAt(14, 0), 100))
	require.ErrorIs(t, err, ErrInsufficientAvailableBalance)

	overlapping, err := f.store.Reservations().ListOverlapping(context.Background(), shopID,
		domain.Window{Start: tomorrowAt(0, 0), End: tomorrowAt(23, 59)}, nil)
	require.NoError(t, err)
	assert.Empty(t, overlapping)
	f.payment.AssertNotCalled(t, "ChargeDeposit", mock.Anything, mock.Anything, mock.Anything)
}

func TestConcurrentOverlappingCreatesAdmitOne(t *testing.T) {
	f := newFixture(t)
	f.payment.On("ChargeDeposit", mock.Anything, mock.Anything, int64(10000)).Return(&payment.Result{Status: "paid"}, nil)

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		rejected  atomic.Int32
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			_, err := f.uc.Execute(context.Background(), request(tomorrowAt(14, offset*5), 0))
			switch {
			case err == nil:
				succeeded.Add(1)
			case assert.ErrorIs(t, err, ErrSlotConflict):
				rejected.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, int32(7), rejected.Load())
}

// race запускает обе операции одновременно и возвращает их ошибки
func race(first, second func() error) (error, error) {
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		errs  [2]error
	)
	for i, fn := range []func() error{first, second} {
		wg.Add(1)
		go func(i int, fn func() error) {
			defer wg.Done()
			<-start
			errs[i] = fn()
		}(i, fn)
	}
	close(start)
	wg.Wait()
	return errs[0], errs[1]
}

func assertExactlyOneWins(t *testing.T, first, second error) {
	t.Helper()
	if first == nil {
		assert.ErrorIs(t, second, ErrSlotConflict)
		return
	}
	assert.ErrorIs(t, first, ErrSlotConflict)
	assert.NoError(t, second)
}

func TestConcurrentRescheduleAndCreateAdmitOne(t *testing.T) {
	for round := 0; round < 20; round++ {
		f := newFixture(t)
		ctx := context.Background()
		f.payment.On("ChargeDeposit", mock.Anything, mock.Anything, int64(10000)).Return(&payment.Result{Status: "paid"}, nil)

		existing, err := f.uc.Execute(ctx, request(tomorrowAt(10, 0), 0))
		require.NoError(t, err)

		rescheduleErr, createErr := race(
			func() error {
				_, err := f.reservations.Reschedule(ctx, existing.ID, &reservationModels.RescheduleRequest{
					UserID:     customerID,
					ReservedAt: tomorrowAt(14, 0),
				})
				return err
			},
			func() error {
				_, err := f.uc.Execute(ctx, request(tomorrowAt(14, 30), 0))
				return err
			},
		)
		assertExactlyOneWins(t, rescheduleErr, createErr)

		overlapping, err := f.store.Reservations().ListOverlapping(ctx, shopID,
			domain.Window{Start: tomorrowAt(14, 0), End: tomorrowAt(15, 30)}, nil)
		require.NoError(t, err)
		assert.Len(t, overlapping, 1)
	}
}

func TestConcurrentReschedulesIntoSameWindowAdmitOne(t *testing.T) {
	for round := 0; round < 20; round++ {
		f := newFixture(t)
		ctx := context.Background()
		f.payment.On("ChargeDeposit", mock.Anything, mock.Anything, int64(10000)).Return(&payment.Result{Status: "paid"}, nil)

		morning, err := f.uc.Execute(ctx, request(tomorrowAt(10, 0), 0))
		require.NoError(t, err)
		noon, err := f.uc.Execute(ctx, request(tomorrowAt(12, 0), 0))
		require.NoError(t, err)

		move := func(id int64, at time.Time) func() error {
			return func() error {
				_, err := f.reservations.Reschedule(ctx, id, &reservationModels.RescheduleRequest{
					UserID:     customerID,
					ReservedAt: at,
				})
				return err
			}
		}
		firstErr, secondErr := race(move(morning.ID, tomorrowAt(14, 0)), move(noon.ID, tomorrowAt(14, 30)))
		assertExactlyOneWins(t, firstErr, secondErr)

		overlapping, err := f.store.Reservations().ListOverlapping(ctx, shopID,
			domain.Window{Start: tomorrowAt(14, 0), End: tomorrowAt(15, 30)}, nil)
		require.NoError(t, err)
		assert.Len(t, overlapping, 1)
	}
}

func TestEndToEndReservationAndPoints(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.payment.On("ChargeDeposit", mock.Anything, mock.Anything, int64(10000)).Return(&payment.Result{Status: "paid"}, nil)

	// клиент без баллов бронирует 14:00-15:00 на завтра
	first, err := f.uc.Execute(ctx, request(tomorrowAt(14, 0), 0))
	require.NoError(t, err)

	// пересекающееся 14:30-15:30 отклоняется
	_, err = f.uc.Execute(ctx, request(tomorrowAt(14, 30), 0))
	require.ErrorIs(t, err, ErrSlotConflict)

	// магазин подтверждает и завершает
	_, err = f.reservations.Confirm(ctx, first.ID, &reservationModels.TransitionRequest{UserID: managerID})
	require.NoError(t, err)
	_, err = f.reservations.Complete(ctx, first.ID, &reservationModels.TransitionRequest{UserID: managerID})
	require.NoError(t, err)

	earned, err := f.store.Points().GetByReservation(ctx, first.ID, domain.KindEarnedService)
	require.NoError(t, err)
	assert.Equal(t, int64(1250), earned.Amount)
	assert.Equal(t, domain.TxPending, earned.Status)
	assert.True(t, earned.AvailableFrom.Equal(now.Add(7*24*time.Hour)))

	b, err := f.balances.Get(ctx, customerID)
	require.NoError(t, err)
	assert.Zero(t, b.Available)
	assert.Equal(t, int64(1250), b.Pending)

	// через 8 дней баллы доступны и оплачивают новое бронирование
	f.clock.Advance(8 * 24 * time.Hour)

	b, err = f.balances.Recalculate(ctx, customerID)
	require.NoError(t, err)
	assert.Equal(t, int64(1250), b.Available)

	second, err := f.uc.Execute(ctx, request(tomorrowAt(14, 0).AddDate(0, 0, 8), 1000))
	require.NoError(t, err)
	assert.Equal(t, int64(1000), second.PointsUsed)
	assert.Equal(t, int64(39000), second.RemainingAmount)

	b, err = f.balances.Recalculate(ctx, customerID)
	require.NoError(t, err)
	assert.Equal(t, int64(250), b.Available)
	assert.Equal(t, int64(1250), b.TotalEarned)
	assert.Equal(t, int64(1000), b.TotalUsed)
}
