package domain

import (
	"fmt"
	"time"
)

// TransactionKind classifies a ledger entry
type TransactionKind string

const (
	KindEarnedService  TransactionKind = "earned_service"
	KindEarnedReferral TransactionKind = "earned_referral"
	KindUsedService    TransactionKind = "used_service"
	KindExpired        TransactionKind = "expired"
	KindAdjusted       TransactionKind = "adjusted"
	KindBonus          TransactionKind = "bonus"
	KindReversal       TransactionKind = "reversal" // points restored by a refund
)

// IsValid reports whether the kind is known
func (k TransactionKind) IsValid() bool {
	switch k {
	case KindEarnedService, KindEarnedReferral, KindUsedService, KindExpired,
		KindAdjusted, KindBonus, KindReversal:
		return true
	}
	return false
}

// IsEarning reports whether the kind counts towards total earned
func (k TransactionKind) IsEarning() bool {
	return k == KindEarnedService || k == KindEarnedReferral || k == KindBonus || k == KindAdjusted
}

// TransactionStatus is the state of a ledger entry
type TransactionStatus string

const (
	TxPending   TransactionStatus = "pending"
	TxAvailable TransactionStatus = "available"
	TxUsed      TransactionStatus = "used"
	TxExpired   TransactionStatus = "expired"
)

// PointTransaction is one ledger entry. Positive amounts are credits, negative are debits.
// Amount of a credit shrinks in place when it is partially consumed; InitialAmount never changes.
type PointTransaction struct {
	ID                  int64
	CustomerID          int64
	ReservationID       *int64
	Amount              int64
	InitialAmount       int64
	Kind                TransactionKind
	Status              TransactionStatus
	Description         *string
	AvailableFrom       time.Time
	ExpiresAt           *time.Time
	SourceTransactionID *int64 // credit that an expiry entry closes out
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// IsCredit returns true for positive entries
func (t *PointTransaction) IsCredit() bool {
	return t.Amount > 0
}

// IsExpiredAt reports whether the expiry instant has been reached
func (t *PointTransaction) IsExpiredAt(now time.Time) bool {
	return t.ExpiresAt != nil && !t.ExpiresAt.After(now)
}

// IsSpendable reports whether the entry can fund a debit at now:
// an available credit whose available-from has passed and which has not expired.
func (t *PointTransaction) IsSpendable(now time.Time) bool {
	return t.Status == TxAvailable &&
		t.Amount > 0 &&
		!t.AvailableFrom.After(now) &&
		!t.IsExpiredAt(now)
}

// IsMatured reports whether a pending entry may be promoted to available
func (t *PointTransaction) IsMatured(now time.Time) bool {
	return t.Status == TxPending && !t.AvailableFrom.After(now)
}

// Validate checks the sign/kind/reservation invariants of a new entry
func (t *PointTransaction) Validate() error {
	if !t.Kind.IsValid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidPointTransaction, t.Kind)
	}
	if t.Amount == 0 {
		return fmt.Errorf("%w: amount must not be zero", ErrInvalidPointTransaction)
	}

	switch t.Kind {
	case KindUsedService:
		if t.Amount > 0 {
			return fmt.Errorf("%w: %s must be negative", ErrInvalidPointTransaction, t.Kind)
		}
		if t.ReservationID == nil {
			return fmt.Errorf("%w: debit must reference a reservation", ErrInvalidPointTransaction)
		}
	case KindExpired:
		if t.Amount > 0 {
			return fmt.Errorf("%w: %s must be negative", ErrInvalidPointTransaction, t.Kind)
		}
	case KindAdjusted:
		// either sign
	default:
		if t.Amount < 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalidPointTransaction, t.Kind)
		}
	}
	return nil
}

// PointBalance is the materialized per-customer summary of the ledger
type PointBalance struct {
	CustomerID       int64
	TotalEarned      int64
	TotalUsed        int64
	Available        int64
	Pending          int64
	LastCalculatedAt time.Time
}
