package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

func credits(amounts ...int64) []*domain.PointTransaction {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	result := make([]*domain.PointTransaction, len(amounts))
	for i, a := range amounts {
		result[i] = &domain.PointTransaction{
			ID:            int64(i + 1),
			Amount:        a,
			AvailableFrom: start.Add(time.Duration(i) * time.Hour),
		}
	}
	return result
}

func TestPlanDebit(t *testing.T) {
	tests := []struct {
		name    string
		credits []*domain.PointTransaction
		amount  int64
		want    []Consumption
		wantErr error
	}{
		{
			name:    "partial second credit",
			credits: credits(100, 50, 30),
			amount:  120,
			want: []Consumption{
				{TransactionID: 1, Taken: 100, Remaining: 0},
				{TransactionID: 2, Taken: 20, Remaining: 30},
			},
		},
		{
			name:    "exact first credit",
			credits: credits(100, 50),
			amount:  100,
			want:    []Consumption{{TransactionID: 1, Taken: 100, Remaining: 0}},
		},
		{
			name:    "everything",
			credits: credits(10, 20),
			amount:  30,
			want: []Consumption{
				{TransactionID: 1, Taken: 10, Remaining: 0},
				{TransactionID: 2, Taken: 20, Remaining: 0},
			},
		},
		{
			name:    "insufficient",
			credits: credits(10, 20),
			amount:  31,
			wantErr: ErrInsufficientAvailableBalance,
		},
		{
			name:    "no credits",
			amount:  1,
			wantErr: ErrInsufficientAvailableBalance,
		},
		{
			name:    "zero amount",
			credits: credits(10),
			amount:  0,
			wantErr: ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := PlanDebit(tt.credits, tt.amount)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, plan)
		})
	}
}
