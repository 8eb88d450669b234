package models

import (
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// UseRequest запрос на оплату бронирования баллами
type UseRequest struct {
	UserID        int64
	CustomerID    int64
	ReservationID int64
	Amount        int64
	Description   *string
}

// EarnRequest запрос на начисление баллов
type EarnRequest struct {
	UserID        int64
	CustomerID    int64
	ReservationID *int64
	Amount        int64
	Kind          domain.TransactionKind // пусто - earned_service
	Description   *string
}

// TransactionResponse запись реестра баллов
type TransactionResponse struct {
	ID            int64      `json:"id"`
	CustomerID    int64      `json:"customerId"`
	ReservationID *int64     `json:"reservationId,omitempty"`
	Amount        int64      `json:"amount"`
	InitialAmount int64      `json:"initialAmount"`
	Kind          string     `json:"kind"`
	Status        string     `json:"status"`
	Description   *string    `json:"description,omitempty"`
	AvailableFrom time.Time  `json:"availableFrom"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// ConsumptionResponse сколько списано с одного начисления
type ConsumptionResponse struct {
	TransactionID int64 `json:"transactionId"`
	Taken         int64 `json:"taken"`
	Remaining     int64 `json:"remaining"`
}

// UseResponse результат оплаты баллами
type UseResponse struct {
	Transaction     TransactionResponse   `json:"transaction"`
	Consumed        []ConsumptionResponse `json:"consumed"`
	RemainingAmount int64                 `json:"remainingAmount"` // остаток к оплате на месте
}

// BalanceResponse материализованный баланс клиента
type BalanceResponse struct {
	CustomerID       int64     `json:"customerId"`
	TotalEarned      int64     `json:"totalEarned"`
	TotalUsed        int64     `json:"totalUsed"`
	Available        int64     `json:"available"`
	Pending          int64     `json:"pending"`
	LastCalculatedAt time.Time `json:"lastCalculatedAt"`
}

// FromDomainTransaction конвертирует запись реестра в ответ
func FromDomainTransaction(t *domain.PointTransaction) TransactionResponse {
	return TransactionResponse{
		ID:            t.ID,
		CustomerID:    t.CustomerID,
		ReservationID: t.ReservationID,
		Amount:        t.Amount,
		InitialAmount: t.InitialAmount,
		Kind:          string(t.Kind),
		Status:        string(t.Status),
		Description:   t.Description,
		AvailableFrom: t.AvailableFrom,
		ExpiresAt:     t.ExpiresAt,
		CreatedAt:     t.CreatedAt,
	}
}

// FromDomainBalance конвертирует баланс в ответ
func FromDomainBalance(b *domain.PointBalance) BalanceResponse {
	return BalanceResponse{
		CustomerID:       b.CustomerID,
		TotalEarned:      b.TotalEarned,
		TotalUsed:        b.TotalUsed,
		Available:        b.Available,
		Pending:          b.Pending,
		LastCalculatedAt: b.LastCalculatedAt,
	}
}
