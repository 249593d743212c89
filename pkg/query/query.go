package query

import (
	"time"
)

// DayRange is a half-open [From, To) window covering one local calendar day.
type DayRange struct {
	From time.Time
	To   time.Time
}

// NewDayRange returns the local-midnight-to-midnight window containing t in loc.
// The end is computed with AddDate so days that are 23 or 25 hours long keep their real length.
func NewDayRange(t time.Time, loc *time.Location) DayRange {
	if loc == nil {
		loc = time.Local
	}

	local := t.In(loc)
	from := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return DayRange{
		From: from,
		To:   from.AddDate(0, 0, 1),
	}
}

// Previous returns the calendar day right before r.
func (r DayRange) Previous() DayRange {
	return DayRange{
		From: r.From.AddDate(0, 0, -1),
		To:   r.From,
	}
}

func (r DayRange) Contains(t time.Time) bool {
	return !t.Before(r.From) && t.Before(r.To)
}

// Date formats the day as YYYY-MM-DD.
func (r DayRange) Date() string {
	return r.From.Format(time.DateOnly)
}
