package conflicts

import (
	"errors"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

var (
	// ErrSlotConflict окно пересекается с активным бронированием магазина
	ErrSlotConflict = domain.ErrSlotConflict

	// ErrInvalidDate окно начинается в прошлом
	ErrInvalidDate = domain.ErrInvalidDate

	// ErrInvalidWindow окно нулевой или отрицательной длины
	ErrInvalidWindow = errors.New("conflicts: invalid window")

	// ErrInternal внутренняя ошибка детектора
	ErrInternal = errors.New("conflicts: internal error")
)
