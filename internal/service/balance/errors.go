package balance

import "errors"

var (
	// ErrInternal возвращается при внутренних ошибках материализатора
	ErrInternal = errors.New("balance: internal error")
)
