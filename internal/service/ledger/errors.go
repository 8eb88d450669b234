package ledger

import (
	"errors"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

var (
	// ErrInsufficientAvailableBalance списание превышает доступный баланс
	ErrInsufficientAvailableBalance = domain.ErrInsufficientAvailableBalance

	// ErrInvalidTransaction запись нарушает правила знака, вида или привязки к бронированию
	ErrInvalidTransaction = domain.ErrInvalidPointTransaction

	// ErrInvalidAmount количество баллов должно быть положительным
	ErrInvalidAmount = errors.New("ledger: amount must be positive")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("ledger: internal error")
)
