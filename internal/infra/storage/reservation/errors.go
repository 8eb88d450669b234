package reservation

import "errors"

var (
	// ErrReservationNotFound возвращается, когда бронирование не найдено
	ErrReservationNotFound = errors.New("reservation.repository: reservation not found")

	// ErrStatusMismatch возвращается, когда статус бронирования изменился конкурентно
	ErrStatusMismatch = errors.New("reservation.repository: status changed concurrently")

	// ErrSlotNotAvailable возвращается при нарушении ограничения на пересечение окон
	ErrSlotNotAvailable = errors.New("reservation.repository: slot not available")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("reservation.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("reservation.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("reservation.repository: failed to scan row")
)
