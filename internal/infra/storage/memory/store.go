// Package memory хранит данные сервиса в памяти процесса.
// Реализует те же контракты, что и PostgreSQL репозитории, и используется в тестах
// и для локального запуска без базы данных.
package memory

import (
	"context"
	"sync"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
	"github.com/m04kA/SMC-ReservationService/pkg/txmanager"
)

type state struct {
	reservations map[int64]domain.Reservation
	statusLogs   []domain.StatusLog
	reschedules  []domain.RescheduleHistory
	points       map[int64]domain.PointTransaction
	balances     map[int64]domain.PointBalance

	nextReservationID int64
	nextItemID        int64
	nextLogID         int64
	nextRescheduleID  int64
	nextPointID       int64
}

func newState() *state {
	return &state{
		reservations: make(map[int64]domain.Reservation),
		points:       make(map[int64]domain.PointTransaction),
		balances:     make(map[int64]domain.PointBalance),
	}
}

func (s *state) clone() *state {
	c := &state{
		reservations:      make(map[int64]domain.Reservation, len(s.reservations)),
		statusLogs:        append([]domain.StatusLog(nil), s.statusLogs...),
		reschedules:       append([]domain.RescheduleHistory(nil), s.reschedules...),
		points:            make(map[int64]domain.PointTransaction, len(s.points)),
		balances:          make(map[int64]domain.PointBalance, len(s.balances)),
		nextReservationID: s.nextReservationID,
		nextItemID:        s.nextItemID,
		nextLogID:         s.nextLogID,
		nextRescheduleID:  s.nextRescheduleID,
		nextPointID:       s.nextPointID,
	}
	for id, r := range s.reservations {
		c.reservations[id] = copyReservation(r)
	}
	for id, t := range s.points {
		c.points[id] = t
	}
	for id, b := range s.balances {
		c.balances[id] = b
	}
	return c
}

// Store общее хранилище in-memory репозиториев.
// Транзакции выполняются строго последовательно: txMu удерживается на всё время транзакции,
// поэтому advisory-блокировки здесь не нужны.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data *state
}

// NewStore создает пустое хранилище
func NewStore() *Store {
	return &Store{data: newState()}
}

// Reservations возвращает репозиторий бронирований
func (s *Store) Reservations() *ReservationRepository {
	return &ReservationRepository{store: s}
}

// History возвращает репозиторий журнала статусов и переносов
func (s *Store) History() *HistoryRepository {
	return &HistoryRepository{store: s}
}

// Points возвращает репозиторий реестра баллов
func (s *Store) Points() *PointsRepository {
	return &PointsRepository{store: s}
}

// Balances возвращает репозиторий материализованных балансов
func (s *Store) Balances() *BalanceRepository {
	return &BalanceRepository{store: s}
}

// TxManager возвращает менеджер транзакций поверх хранилища
func (s *Store) TxManager() *TxManager {
	return &TxManager{store: s}
}

func (s *Store) read(fn func(data *state)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.data)
}

// write вне транзакции ждёт завершения текущей транзакции,
// иначе её откат к снимку стёр бы эту запись
func (s *Store) write(ctx context.Context, fn func(data *state) error) error {
	if !inTx(ctx) {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

type txKey struct{}

func inTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(bool)
	return ok
}

// TxManager сериализует транзакции и откатывает изменения при ошибке
type TxManager struct {
	store *Store
}

// Do выполняет fn в транзакции
func (m *TxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, fn)
}

func (m *TxManager) run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if inTx(ctx) {
		return fn(ctx)
	}

	m.store.txMu.Lock()

	m.store.mu.RLock()
	snapshot := m.store.data.clone()
	m.store.mu.RUnlock()

	hookCtx, finish := txmanager.WithHooks(ctx)
	txCtx := context.WithValue(hookCtx, txKey{}, true)
	committed := false
	defer func() {
		p := recover()
		if p != nil || !committed {
			m.store.mu.Lock()
			m.store.data = snapshot
			m.store.mu.Unlock()
		}
		m.store.txMu.Unlock()
		finish(committed && p == nil)
		if p != nil {
			panic(p)
		}
	}()

	if err = fn(txCtx); err != nil {
		return err
	}
	committed = true

	return nil
}

func copyReservation(r domain.Reservation) domain.Reservation {
	r.Items = append([]domain.ReservationLineItem(nil), r.Items...)
	return r
}
