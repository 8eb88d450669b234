package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationService/internal/service/balance"
	"github.com/m04kA/SMC-ReservationService/internal/service/ledger"
	"github.com/m04kA/SMC-ReservationService/internal/service/reservations/models"
	"github.com/m04kA/SMC-ReservationService/pkg/logger"
	"github.com/m04kA/SMC-ReservationService/pkg/metrics"
)

func TestSchedulerRunsJobsUntilStopped(t *testing.T) {
	m := metrics.NewWithRegistry("test", prometheus.NewRegistry())

	var okRuns, failedRuns atomic.Int32
	s := NewScheduler(m, logger.NewDiscard(),
		Job{Name: "ok", Interval: 5 * time.Millisecond, Run: func(context.Context) error {
			okRuns.Add(1)
			return nil
		}},
		Job{Name: "failing", Interval: 5 * time.Millisecond, Run: func(context.Context) error {
			failedRuns.Add(1)
			return errors.New("boom")
		}},
		Job{Name: "disabled", Run: func(context.Context) error {
			t.Error("disabled job must not run")
			return nil
		}},
	)

	s.Start(context.Background())
	require.Eventually(t, func() bool {
		return okRuns.Load() >= 3 && failedRuns.Load() >= 3
	}, time.Second, time.Millisecond)
	s.Stop()

	stoppedAt := okRuns.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stoppedAt, okRuns.Load())

	assert.Equal(t, float64(stoppedAt), testutil.ToFloat64(m.WorkerRuns.WithLabelValues("ok", "ok")))
	assert.Equal(t, float64(failedRuns.Load()), testutil.ToFloat64(m.WorkerRuns.WithLabelValues("failing", "error")))
}

func TestSchedulerStopWithoutStart(t *testing.T) {
	s := NewScheduler(nil, logger.NewDiscard())
	s.Stop()
}

type servicesMock struct {
	mock.Mock
}

func (m *servicesMock) ExpireSweep(ctx context.Context, batchSize int) (*ledger.SweepResult, error) {
	args := m.Called(ctx, batchSize)
	result, _ := args.Get(0).(*ledger.SweepResult)
	return result, args.Error(1)
}

func (m *servicesMock) ReconcileAll(ctx context.Context) (*balance.ReconcileResult, error) {
	args := m.Called(ctx)
	result, _ := args.Get(0).(*balance.ReconcileResult)
	return result, args.Error(1)
}

func (m *servicesMock) RetryPendingRefunds(ctx context.Context, limit int) (*models.RefundRetryResult, error) {
	args := m.Called(ctx, limit)
	result, _ := args.Get(0).(*models.RefundRetryResult)
	return result, args.Error(1)
}

func TestJobsDelegateToServices(t *testing.T) {
	svc := &servicesMock{}
	log := logger.NewDiscard()
	ctx := context.Background()

	svc.On("ExpireSweep", ctx, 200).Return(&ledger.SweepResult{Promoted: 2, Expired: 1, ExpiredPoints: 300}, nil).Once()
	svc.On("ReconcileAll", ctx).Return(nil, errors.New("db down")).Once()
	svc.On("RetryPendingRefunds", ctx, 50).Return(&models.RefundRetryResult{Attempted: 1, Refunded: 1}, nil).Once()

	expiry := ExpiryJob(svc, 200, time.Minute, log)
	reconcile := ReconcileJob(svc, time.Hour, log)
	refunds := RefundRetryJob(svc, 50, time.Minute, log)

	assert.Equal(t, JobPointsExpiry, expiry.Name)
	assert.NoError(t, expiry.Run(ctx))
	assert.EqualError(t, reconcile.Run(ctx), "db down")
	assert.NoError(t, refunds.Run(ctx))

	svc.AssertExpectations(t)
}
