package catalog

import (
	"strings"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

// Shop модель магазина из каталога
type Shop struct {
	ID           int64                  `json:"id"`
	Name         string                 `json:"name"`
	IsActive     bool                   `json:"is_active"`
	ManagerIDs   []int64                `json:"manager_ids"`
	WorkingHours map[string]DaySchedule `json:"working_hours"` // ключ: monday ... sunday
}

// IsManager проверяет, что пользователь управляет магазином
func (s *Shop) IsManager(userID int64) bool {
	for _, id := range s.ManagerIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// DaySchedule часы работы в один день недели
type DaySchedule struct {
	IsOpen    bool   `json:"is_open"`
	OpenTime  string `json:"open_time,omitempty"`  // HH:MM
	CloseTime string `json:"close_time,omitempty"` // HH:MM
}

// Service модель услуги магазина
type Service struct {
	ID              int64  `json:"id"`
	ShopID          int64  `json:"shop_id"`
	Name            string `json:"name"`
	Price           int64  `json:"price"`
	DepositAmount   int64  `json:"deposit_amount"`
	DurationMinutes *int   `json:"duration_minutes,omitempty"`
	IsActive        bool   `json:"is_active"`
}

// ErrorResponse модель ошибки от каталога
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ScheduleFor возвращает часы работы магазина в день недели даты
func (s *Shop) ScheduleFor(date time.Time) domain.DaySchedule {
	day, ok := s.WorkingHours[strings.ToLower(date.Weekday().String())]
	if !ok {
		return domain.DaySchedule{}
	}
	return domain.DaySchedule{
		IsOpen:    day.IsOpen,
		OpenTime:  day.OpenTime,
		CloseTime: day.CloseTime,
	}
}
