package worker

import (
	"context"
	"time"
)

// Имена задач, они же метки метрик
const (
	JobPointsExpiry     = "points_expiry"
	JobBalanceReconcile = "balance_reconcile"
	JobRefundRetry      = "refund_retry"
)

// ExpiryJob сгорание просроченных и созревание отложенных баллов
func ExpiryJob(sweeper ExpirySweeper, batchSize int, interval time.Duration, logger Logger) Job {
	return Job{
		Name:     JobPointsExpiry,
		Interval: interval,
		Run: func(ctx context.Context) error {
			result, err := sweeper.ExpireSweep(ctx, batchSize)
			if err != nil {
				return err
			}
			if result.Promoted > 0 || result.Expired > 0 {
				logger.Info("PointsExpiry: promoted=%d expired=%d points=%d", result.Promoted, result.Expired, result.ExpiredPoints)
			}
			return nil
		},
	}
}

// ReconcileJob сверка материализованных балансов с реестром
func ReconcileJob(reconciler BalanceReconciler, interval time.Duration, logger Logger) Job {
	return Job{
		Name:     JobBalanceReconcile,
		Interval: interval,
		Run: func(ctx context.Context) error {
			result, err := reconciler.ReconcileAll(ctx)
			if err != nil {
				return err
			}
			if result.Drifted > 0 || result.Failed > 0 {
				logger.Warn("BalanceReconcile: customers=%d drifted=%d failed=%d", result.Customers, result.Drifted, result.Failed)
			}
			return nil
		},
	}
}

// RefundRetryJob повтор возвратов в статусе refund_pending
func RefundRetryJob(retrier RefundRetrier, limit int, interval time.Duration, logger Logger) Job {
	return Job{
		Name:     JobRefundRetry,
		Interval: interval,
		Run: func(ctx context.Context) error {
			result, err := retrier.RetryPendingRefunds(ctx, limit)
			if err != nil {
				return err
			}
			if result.Attempted > 0 {
				logger.Info("RefundRetry: attempted=%d refunded=%d failed=%d exhausted=%d",
					result.Attempted, result.Refunded, result.Failed, result.Exhausted)
			}
			return nil
		},
	}
}
