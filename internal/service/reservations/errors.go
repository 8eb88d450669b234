package reservations

import (
	"errors"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

var (
	// ErrReservationNotFound возвращается, когда бронирование не найдено
	ErrReservationNotFound = domain.ErrReservationNotFound

	// ErrInvalidTransition текущий статус не допускает переход
	ErrInvalidTransition = domain.ErrInvalidTransition

	// ErrSlotConflict новое окно пересекается с другим бронированием
	ErrSlotConflict = domain.ErrSlotConflict

	// ErrInvalidDate новое время бронирования в прошлом
	ErrInvalidDate = domain.ErrInvalidDate

	// ErrNoShowTooEarly неявку можно отметить только после начала бронирования
	ErrNoShowTooEarly = errors.New("reservation time has not passed yet")

	// ErrAccessDenied возвращается, когда у пользователя нет прав доступа
	ErrAccessDenied = errors.New("access denied")

	// ErrShopNotFound возвращается, когда магазин не найден в каталоге
	ErrShopNotFound = errors.New("shop not found")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("service: internal error")
)
