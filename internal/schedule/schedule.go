// Package schedule offers hearing time slots for a chosen date.
package schedule

import (
	"fmt"
	"time"
)

// Availability is the slot source for a calendar date. The placeholder
// below stands in for the real scheduling backend; a live implementation
// replaces it behind the same signature.
type Availability interface {
	SlotsFor(date time.Time) []string
}

// Placeholder generates a fixed weekday schedule: half-hour slots in two
// blocks, 09:00-11:30 and 13:00-16:00, both endpoints included.
type Placeholder struct {
	// Now is the clock used for the past-date cutoff; zero value means
	// time.Now.
	Now func() time.Time
}

func NewPlaceholder() *Placeholder {
	return &Placeholder{}
}

// SlotsFor returns the "HH:MM" slots for a date in ascending order.
// Weekends and dates strictly before today (date-only comparison) get none.
func (p *Placeholder) SlotsFor(date time.Time) []string {
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return []string{}
	}

	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	if dateOnly(date).Before(dateOnly(now())) {
		return []string{}
	}

	slots := make([]string, 0, 16)
	slots = appendRange(slots, 9, 0, 11, 30)
	slots = appendRange(slots, 13, 0, 16, 0)
	return slots
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func appendRange(slots []string, startH, startM, endH, endM int) []string {
	h, m := startH, startM
	for h < endH || (h == endH && m <= endM) {
		slots = append(slots, fmt.Sprintf("%02d:%02d", h, m))
		m += 30
		if m >= 60 {
			m = 0
			h++
		}
	}
	return slots
}
