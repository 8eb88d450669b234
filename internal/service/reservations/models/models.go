package models

import (
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// Request модели

// TransitionRequest запрос на переход без дополнительных данных (confirm, complete, no-show)
type TransitionRequest struct {
	UserID int64 `json:"userId"`
}

// ShopReservationsRequest запрос на список бронирований магазина за день
type ShopReservationsRequest struct {
	UserID int64
	ShopID int64
	Date   time.Time // день в часовом поясе сервиса
}

// CancelRequest запрос на отмену бронирования
type CancelRequest struct {
	UserID int64   `json:"userId"`
	Reason *string `json:"reason,omitempty"`
}

// RescheduleRequest запрос на перенос бронирования
type RescheduleRequest struct {
	UserID     int64     `json:"userId"`
	ReservedAt time.Time `json:"reservedAt"`
	Reason     *string   `json:"reason,omitempty"`
	Fee        int64     `json:"fee"`
}

// Response модели

// LineItemResponse услуга в составе бронирования
type LineItemResponse struct {
	ServiceID       int64  `json:"serviceId"`
	ServiceName     string `json:"serviceName"`
	Quantity        int    `json:"quantity"`
	UnitPrice       int64  `json:"unitPrice"`
	UnitDeposit     int64  `json:"unitDeposit"`
	DurationMinutes int    `json:"durationMinutes"`
	Subtotal        int64  `json:"subtotal"`
}

// ReservationResponse ответ с данными бронирования
type ReservationResponse struct {
	ID                 int64              `json:"id"`
	CustomerID         int64              `json:"customerId"`
	ShopID             int64              `json:"shopId"`
	ReservedAt         time.Time          `json:"reservedAt"`
	EndsAt             time.Time          `json:"endsAt"`
	DurationMinutes    int                `json:"durationMinutes"`
	Status             string             `json:"status"`
	TotalAmount        int64              `json:"totalAmount"`
	DepositAmount      int64              `json:"depositAmount"`
	DepositPaid        int64              `json:"depositPaid"`
	RemainingAmount    int64              `json:"remainingAmount"`
	PointsUsed         int64              `json:"pointsUsed"`
	PointsToEarn       int64              `json:"pointsToEarn"`
	SpecialRequests    *string            `json:"specialRequests,omitempty"`
	PaymentStatus      string             `json:"paymentStatus"`
	RefundAmount       int64              `json:"refundAmount"`
	ConfirmedAt        *time.Time         `json:"confirmedAt,omitempty"`
	CompletedAt        *time.Time         `json:"completedAt,omitempty"`
	CancelledAt        *time.Time         `json:"cancelledAt,omitempty"`
	CancellationReason *string            `json:"cancellationReason,omitempty"`
	Items              []LineItemResponse `json:"items"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
}

// StatusLogResponse запись журнала статусов
type StatusLogResponse struct {
	OldStatus *string   `json:"oldStatus,omitempty"`
	NewStatus string    `json:"newStatus"`
	Actor     string    `json:"actor"`
	ActorID   *int64    `json:"actorId,omitempty"`
	Reason    *string   `json:"reason,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// RescheduleResponse запись истории переносов
type RescheduleResponse struct {
	OldReservedAt time.Time `json:"oldReservedAt"`
	NewReservedAt time.Time `json:"newReservedAt"`
	Actor         string    `json:"actor"`
	ActorID       *int64    `json:"actorId,omitempty"`
	Reason        *string   `json:"reason,omitempty"`
	Fee           int64     `json:"fee"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ReservationDetailsResponse бронирование вместе с журналом изменений
type ReservationDetailsResponse struct {
	ReservationResponse
	StatusHistory     []StatusLogResponse  `json:"statusHistory"`
	RescheduleHistory []RescheduleResponse `json:"rescheduleHistory"`
}

// RefundResponse решение о возврате депозита
type RefundResponse struct {
	Eligible   bool   `json:"eligible"`
	Percentage int    `json:"percentage"`
	Amount     int64  `json:"amount"`
	Reason     string `json:"reason"`
}

// CancelResponse результат отмены
type CancelResponse struct {
	Reservation    ReservationResponse `json:"reservation"`
	Refund         RefundResponse      `json:"refund"`
	PointsRestored int64               `json:"pointsRestored"`
}

// RefundRetryResult результат прохода по ожидающим возвратам
type RefundRetryResult struct {
	Attempted int
	Refunded  int
	Failed    int
	Exhausted int // неудачная попытка была последней разрешённой
}

// Конвертеры из domain

// FromDomainReservation конвертирует domain.Reservation в ReservationResponse
func FromDomainReservation(r *domain.Reservation) ReservationResponse {
	items := make([]LineItemResponse, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, LineItemResponse{
			ServiceID:       item.ServiceID,
			ServiceName:     item.ServiceName,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
			UnitDeposit:     item.UnitDeposit,
			DurationMinutes: item.DurationMinutes,
			Subtotal:        item.Subtotal(),
		})
	}

	return ReservationResponse{
		ID:                 r.ID,
		CustomerID:         r.CustomerID,
		ShopID:             r.ShopID,
		ReservedAt:         r.ReservedAt,
		EndsAt:             r.EndsAt(),
		DurationMinutes:    r.DurationMinutes,
		Status:             string(r.Status),
		TotalAmount:        r.TotalAmount,
		DepositAmount:      r.DepositAmount,
		DepositPaid:        r.DepositPaid,
		RemainingAmount:    r.RemainingAmount,
		PointsUsed:         r.PointsUsed,
		PointsToEarn:       r.PointsToEarn,
		SpecialRequests:    r.SpecialRequests,
		PaymentStatus:      string(r.PaymentStatus),
		RefundAmount:       r.RefundAmount,
		ConfirmedAt:        r.ConfirmedAt,
		CompletedAt:        r.CompletedAt,
		CancelledAt:        r.CancelledAt,
		CancellationReason: r.CancellationReason,
		Items:              items,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

// FromDomainDetails собирает бронирование и его журналы в один ответ
func FromDomainDetails(r *domain.Reservation, logs []domain.StatusLog, reschedules []domain.RescheduleHistory) *ReservationDetailsResponse {
	resp := &ReservationDetailsResponse{
		ReservationResponse: FromDomainReservation(r),
		StatusHistory:       make([]StatusLogResponse, 0, len(logs)),
		RescheduleHistory:   make([]RescheduleResponse, 0, len(reschedules)),
	}

	for _, l := range logs {
		var old *string
		if l.OldStatus != nil {
			s := string(*l.OldStatus)
			old = &s
		}
		resp.StatusHistory = append(resp.StatusHistory, StatusLogResponse{
			OldStatus: old,
			NewStatus: string(l.NewStatus),
			Actor:     string(l.Actor),
			ActorID:   l.ActorID,
			Reason:    l.Reason,
			CreatedAt: l.CreatedAt,
		})
	}

	for _, h := range reschedules {
		resp.RescheduleHistory = append(resp.RescheduleHistory, RescheduleResponse{
			OldReservedAt: h.OldReservedAt,
			NewReservedAt: h.NewReservedAt,
			Actor:         string(h.Actor),
			ActorID:       h.ActorID,
			Reason:        h.Reason,
			Fee:           h.Fee,
			CreatedAt:     h.CreatedAt,
		})
	}

	return resp
}
