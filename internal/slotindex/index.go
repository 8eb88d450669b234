// Package slotindex хранит занятые окна магазинов в отсортированных списках
// и отвечает на вопрос "свободен ли [start, end)" за O(log n).
package slotindex

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

var (
	// ErrOverlap окно пересекается с уже занятым
	ErrOverlap = errors.New("slotindex: window overlaps a reserved interval")

	// ErrInvalidWindow окно пустое или перевёрнуто
	ErrInvalidWindow = errors.New("slotindex: invalid window")
)

type interval struct {
	id    int64
	start time.Time
	end   time.Time
}

// shop окна одного магазина, отсортированные по началу и попарно не пересекающиеся,
// поэтому концы тоже отсортированы
type shop struct {
	intervals []interval
	byID      map[int64]time.Time
}

// Index индекс занятых окон по магазинам. Безопасен для конкурентного использования.
type Index struct {
	mu    sync.RWMutex
	shops map[int64]*shop
}

// New создает пустой индекс
func New() *Index {
	return &Index{shops: make(map[int64]*shop)}
}

// Reserve атомарно проверяет окно и занимает его под бронирование id
func (x *Index) Reserve(shopID, id int64, w domain.Window) error {
	if !w.IsValid() {
		return ErrInvalidWindow
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	s := x.shops[shopID]
	if s == nil {
		s = &shop{byID: make(map[int64]time.Time)}
		x.shops[shopID] = s
	}
	if _, exists := s.byID[id]; exists {
		return ErrOverlap
	}

	pos := s.firstEndingAfter(w.Start)
	if pos < len(s.intervals) && s.intervals[pos].start.Before(w.End) {
		return ErrOverlap
	}

	s.intervals = append(s.intervals, interval{})
	copy(s.intervals[pos+1:], s.intervals[pos:])
	s.intervals[pos] = interval{id: id, start: w.Start, end: w.End}
	s.byID[id] = w.Start

	return nil
}

// Release освобождает окно бронирования id. Возвращает false, если окна не было.
func (x *Index) Release(shopID, id int64) bool {
	x.mu.Lock()
	defer x.mu.Unlock()

	s := x.shops[shopID]
	if s == nil {
		return false
	}
	start, ok := s.byID[id]
	if !ok {
		return false
	}

	pos := sort.Search(len(s.intervals), func(i int) bool {
		return !s.intervals[i].start.Before(start)
	})
	for ; pos < len(s.intervals) && s.intervals[pos].start.Equal(start); pos++ {
		if s.intervals[pos].id == id {
			s.intervals = append(s.intervals[:pos], s.intervals[pos+1:]...)
			delete(s.byID, id)
			return true
		}
	}
	return false
}

// IsFree проверяет, что окно не пересекается ни с одним занятым.
// Окно, начинающееся ровно в момент окончания другого, свободно.
func (x *Index) IsFree(shopID int64, w domain.Window) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()

	s := x.shops[shopID]
	if s == nil {
		return true
	}
	pos := s.firstEndingAfter(w.Start)
	return pos >= len(s.intervals) || !s.intervals[pos].start.Before(w.End)
}

// FreeStarts перечисляет начала окон длины duration с шагом step внутри opening,
// которые не пересекаются с занятыми и начинаются не раньше notBefore
func (x *Index) FreeStarts(shopID int64, opening domain.Window, duration, step time.Duration, notBefore time.Time) []time.Time {
	starts := make([]time.Time, 0)
	if duration <= 0 || step <= 0 || !opening.IsValid() {
		return starts
	}

	for start := opening.Start; !start.Add(duration).After(opening.End); start = start.Add(step) {
		if start.Before(notBefore) {
			continue
		}
		if x.IsFree(shopID, domain.Window{Start: start, End: start.Add(duration)}) {
			starts = append(starts, start)
		}
	}
	return starts
}

// Len возвращает число занятых окон магазина
func (x *Index) Len(shopID int64) int {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if s := x.shops[shopID]; s != nil {
		return len(s.intervals)
	}
	return 0
}

func (s *shop) firstEndingAfter(t time.Time) int {
	return sort.Search(len(s.intervals), func(i int) bool {
		return s.intervals[i].end.After(t)
	})
}
