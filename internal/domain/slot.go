package domain

import "time"

// AvailableSlot represents a start time at which a window of the requested length is free
type AvailableSlot struct {
	StartsAt        time.Time
	DurationMinutes int
}

// EndsAt returns the exclusive end of the slot
func (s AvailableSlot) EndsAt() time.Time {
	return s.StartsAt.Add(time.Duration(s.DurationMinutes) * time.Minute)
}

// DaySchedule is a shop's opening hours on one weekday
type DaySchedule struct {
	IsOpen    bool
	OpenTime  string // HH:MM
	CloseTime string // HH:MM
}

// OpeningWindow returns the open range on the given date in the date's location
func (d DaySchedule) OpeningWindow(date time.Time) (Window, bool, error) {
	if !d.IsOpen {
		return Window{}, false, nil
	}
	open, err := time.Parse(TimeFormat, d.OpenTime)
	if err != nil {
		return Window{}, false, err
	}
	closeAt, err := time.Parse(TimeFormat, d.CloseTime)
	if err != nil {
		return Window{}, false, err
	}

	y, m, day := date.Date()
	loc := date.Location()
	w := Window{
		Start: time.Date(y, m, day, open.Hour(), open.Minute(), 0, 0, loc),
		End:   time.Date(y, m, day, closeAt.Hour(), closeAt.Minute(), 0, 0, loc),
	}
	// closing after midnight, e.g. 18:00-02:00
	if !w.End.After(w.Start) {
		w.End = w.End.AddDate(0, 0, 1)
	}
	return w, true, nil
}
