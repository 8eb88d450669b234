package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPointTransactionValidate(t *testing.T) {
	resID := int64(7)

	tests := []struct {
		name    string
		tx      PointTransaction
		wantErr bool
	}{
		{"earned positive", PointTransaction{Kind: KindEarnedService, Amount: 100}, false},
		{"earned negative", PointTransaction{Kind: KindEarnedService, Amount: -100}, true},
		{"debit with reservation", PointTransaction{Kind: KindUsedService, Amount: -50, ReservationID: &resID}, false},
		{"debit without reservation", PointTransaction{Kind: KindUsedService, Amount: -50}, true},
		{"debit positive", PointTransaction{Kind: KindUsedService, Amount: 50, ReservationID: &resID}, true},
		{"expired negative", PointTransaction{Kind: KindExpired, Amount: -10}, false},
		{"expired positive", PointTransaction{Kind: KindExpired, Amount: 10}, true},
		{"adjusted negative", PointTransaction{Kind: KindAdjusted, Amount: -10}, false},
		{"adjusted positive", PointTransaction{Kind: KindAdjusted, Amount: 10}, false},
		{"bonus negative", PointTransaction{Kind: KindBonus, Amount: -1}, true},
		{"zero amount", PointTransaction{Kind: KindBonus, Amount: 0}, true},
		{"unknown kind", PointTransaction{Kind: "gift", Amount: 10}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tx.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPointTransaction)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPointTransactionIsSpendable(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.True(t, (&PointTransaction{Status: TxAvailable, Amount: 10, AvailableFrom: past}).IsSpendable(now))
	assert.True(t, (&PointTransaction{Status: TxAvailable, Amount: 10, AvailableFrom: now}).IsSpendable(now))
	assert.False(t, (&PointTransaction{Status: TxAvailable, Amount: 10, AvailableFrom: future}).IsSpendable(now))
	assert.False(t, (&PointTransaction{Status: TxPending, Amount: 10, AvailableFrom: past}).IsSpendable(now))
	assert.False(t, (&PointTransaction{Status: TxAvailable, Amount: 10, AvailableFrom: past, ExpiresAt: &now}).IsSpendable(now))
	assert.True(t, (&PointTransaction{Status: TxAvailable, Amount: 10, AvailableFrom: past, ExpiresAt: &future}).IsSpendable(now))
}
