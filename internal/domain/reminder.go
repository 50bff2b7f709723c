package domain

import (
	"sort"
	"time"
)

// ReminderStep is one rung of the overdue ladder
type ReminderStep struct {
	Level   int
	MinDays int
	Status  InvoiceStatus
}

// ReminderLadder holds steps ordered by descending threshold
type ReminderLadder []ReminderStep

const MaxReminderLevel = 3

// NewReminderLadder builds the three-step ladder from day thresholds
func NewReminderLadder(firstDays, secondDays, finalDays int) ReminderLadder {
	l := ReminderLadder{
		{Level: 1, MinDays: firstDays, Status: InvoiceStatusFirstReminderSent},
		{Level: 2, MinDays: secondDays, Status: InvoiceStatusSecondReminderSent},
		{Level: MaxReminderLevel, MinDays: finalDays, Status: InvoiceStatusFinalNoticeSent},
	}
	sort.Slice(l, func(i, j int) bool { return l[i].MinDays > l[j].MinDays })
	return l
}

// DefaultReminderLadder is 10/20/30 days
func DefaultReminderLadder() ReminderLadder {
	return NewReminderLadder(10, 20, 30)
}

// Next returns the step to fire. Thresholds are checked from the highest down and the first
// one reached wins; it only fires when the current level is below it.
func (l ReminderLadder) Next(daysOverdue, currentLevel int) (ReminderStep, bool) {
	for _, step := range l {
		if daysOverdue >= step.MinDays {
			if currentLevel < step.Level {
				return step, true
			}
			return ReminderStep{}, false
		}
	}
	return ReminderStep{}, false
}

// DaysOverdue counts whole days elapsed since deadline; zero if not yet due
func DaysOverdue(deadline, now time.Time) int {
	if !now.After(deadline) {
		return 0
	}
	return int(now.Sub(deadline) / (24 * time.Hour))
}
