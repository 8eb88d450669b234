package payment

import "errors"

var (
	// ErrRejected платёжный сервис отклонил операцию (повтор не поможет)
	ErrRejected = errors.New("payment client: operation rejected")

	// ErrUnavailable платёжный сервис недоступен после всех повторов
	ErrUnavailable = errors.New("payment client: service unavailable")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("payment client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от сервиса
	ErrInvalidResponse = errors.New("payment client: invalid response")
)
