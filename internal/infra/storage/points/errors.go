package points

import "errors"

var (
	// ErrTransactionNotFound возвращается, когда запись реестра не найдена
	ErrTransactionNotFound = errors.New("points.repository: transaction not found")

	// ErrDuplicateTransaction возвращается при повторной записи начисления, возврата или сгорания
	ErrDuplicateTransaction = errors.New("points.repository: duplicate transaction")

	// ErrStatusMismatch возвращается, когда статус записи изменился конкурентно
	ErrStatusMismatch = errors.New("points.repository: status changed concurrently")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("points.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("points.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("points.repository: failed to scan row")
)
