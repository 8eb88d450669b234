package points

import (
	"errors"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

var (
	// ErrInsufficientAvailableBalance списание превышает доступный баланс
	ErrInsufficientAvailableBalance = domain.ErrInsufficientAvailableBalance

	// ErrReservationNotFound бронирование не найдено или принадлежит другому клиенту
	ErrReservationNotFound = domain.ErrReservationNotFound

	// ErrReservationNotEditable баллы можно применить только к ожидающему визита бронированию
	ErrReservationNotEditable = errors.New("points: reservation no longer accepts points")

	// ErrReservationNotCompleted баллы за услугу начисляются только по завершённому бронированию
	ErrReservationNotCompleted = errors.New("points: reservation is not completed")

	// ErrPointsAlreadyApplied к бронированию уже применены баллы
	ErrPointsAlreadyApplied = errors.New("points: points already applied to reservation")

	// ErrAccessDenied пользователь не может управлять баллами клиента
	ErrAccessDenied = errors.New("points: access denied")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("points: invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("points: internal error")
)
