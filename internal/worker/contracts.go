package worker

import (
	"context"

	"github.com/m04kA/SMC-ReservationService/internal/service/balance"
	"github.com/m04kA/SMC-ReservationService/internal/service/ledger"
	"github.com/m04kA/SMC-ReservationService/internal/service/reservations/models"
)

// ExpirySweeper переводит созревшие начисления в available и сжигает просроченные
type ExpirySweeper interface {
	ExpireSweep(ctx context.Context, batchSize int) (*ledger.SweepResult, error)
}

// BalanceReconciler пересчитывает балансы всех клиентов
type BalanceReconciler interface {
	ReconcileAll(ctx context.Context) (*balance.ReconcileResult, error)
}

// RefundRetrier повторяет неудавшиеся возвраты
type RefundRetrier interface {
	RetryPendingRefunds(ctx context.Context, limit int) (*models.RefundRetryResult, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
