package create_reservation

import (
	"errors"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

var (
	// ErrShopNotFound возвращается, когда магазин не найден
	ErrShopNotFound = errors.New("create_reservation: shop not found")

	// ErrShopInactive возвращается, когда магазин не принимает бронирования
	ErrShopInactive = errors.New("create_reservation: shop is not active")

	// ErrServiceNotFound возвращается, когда услуга не найдена в магазине
	ErrServiceNotFound = errors.New("create_reservation: service not found")

	// ErrServiceInactive возвращается, когда услуга снята с продажи
	ErrServiceInactive = errors.New("create_reservation: service is not active")

	// ErrShopClosed возвращается, когда магазин закрыт в указанную дату
	ErrShopClosed = errors.New("create_reservation: shop is closed on this date")

	// ErrOutsideWorkingHours возвращается, когда окно выходит за часы работы
	ErrOutsideWorkingHours = errors.New("create_reservation: window is outside working hours")

	// ErrInvalidDate время бронирования в прошлом
	ErrInvalidDate = domain.ErrInvalidDate

	// ErrSlotConflict окно пересекается с другим бронированием
	ErrSlotConflict = domain.ErrSlotConflict

	// ErrInsufficientAvailableBalance у клиента недостаточно доступных баллов
	ErrInsufficientAvailableBalance = domain.ErrInsufficientAvailableBalance

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_reservation: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_reservation: internal error")
)
