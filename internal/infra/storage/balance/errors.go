package balance

import "errors"

var (
	// ErrBalanceNotFound возвращается, когда баланс клиента ещё не рассчитан
	ErrBalanceNotFound = errors.New("balance.repository: balance not found")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("balance.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("balance.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("balance.repository: failed to scan row")
)
