package payment

// ChargeRequest запрос на списание депозита
type ChargeRequest struct {
	ReservationID int64 `json:"reservation_id"`
	Amount        int64 `json:"amount"`
}

// RefundRequest запрос на возврат депозита
type RefundRequest struct {
	ReservationID int64 `json:"reservation_id"`
	Amount        int64 `json:"amount"`
}

// Result ответ платёжного сервиса
type Result struct {
	PaymentID string `json:"payment_id"`
	Status    string `json:"status"`
	Amount    int64  `json:"amount"`
}

// ErrorResponse модель ошибки от платёжного сервиса
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
