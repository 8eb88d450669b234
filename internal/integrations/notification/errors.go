package notification

import "errors"

var (
	// ErrConnect ошибка подключения к брокеру
	ErrConnect = errors.New("notification: failed to connect to broker")

	// ErrClosed публикатор уже остановлен
	ErrClosed = errors.New("notification: publisher closed")
)
