package get_available_slots

import "time"

// Config параметры построения сетки слотов
type Config struct {
	StepMinutes            int // шаг между соседними началами слотов
	DefaultDurationMinutes int
	AdvanceBookingDays     int // 0 - без ограничения
}

// Request модель запроса на получение доступных слотов
type Request struct {
	ShopID          int64
	Date            time.Time // дата без времени; часовой пояс берётся из часов сервиса
	ServiceID       *int64    // если задан, длительность берётся из услуги
	DurationMinutes *int

	// ExcludeReservationID окно этого бронирования считается свободным (подбор времени для переноса)
	ExcludeReservationID *int64
}

// Response модель ответа со списком доступных слотов
type Response struct {
	Date            string `json:"date"`
	ShopID          int64  `json:"shopId"`
	DurationMinutes int    `json:"durationMinutes"`
	Slots           []Slot `json:"slots"`
}

// Slot свободное начало окна
type Slot struct {
	StartTime string    `json:"startTime"` // HH:MM
	StartsAt  time.Time `json:"startsAt"`
	EndsAt    time.Time `json:"endsAt"`
}
