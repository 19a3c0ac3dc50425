package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

var hourNanos = decimal.NewFromInt(int64(time.Hour))

// DurationToHours converts d to hours rounded to 2 decimal places.
func DurationToHours(d time.Duration) decimal.Decimal {
	return decimal.NewFromInt(int64(d)).Div(hourNanos).Round(2)
}

// ComputeHours replays one day's punch events into work, break and gross totals.
//
// Work time accrues between an "in" and the following "out". Break time accrues
// between an "out" and the next "in". A trailing "in" without an "out" adds
// nothing and marks the day in progress. Gross hours equal work hours; break
// time is not added.
func ComputeHours(events []PunchEvent) DayTotals {
	var (
		work, brk    time.Duration
		lastIn       *time.Time
		lastOut      *time.Time
		lastCheckOut *time.Time
	)

	for _, e := range SortEvents(events) {
		t := e.PunchTime
		switch e.PunchType {
		case PunchIn:
			if lastOut != nil {
				brk += t.Sub(*lastOut)
			}
			lastIn = &t
		case PunchOut:
			if lastCheckOut == nil || t.After(*lastCheckOut) {
				lastCheckOut = &t
			}
			if lastIn == nil {
				continue
			}
			work += t.Sub(*lastIn)
			lastOut = &t
			lastIn = nil
		}
	}

	workHours := DurationToHours(work)
	return DayTotals{
		WorkHours:    workHours,
		BreakHours:   DurationToHours(brk),
		GrossHours:   workHours,
		LastCheckOut: lastCheckOut,
		InProgress:   lastIn != nil,
	}
}

// BuildPunchPairs pairs each "in" with the "out" that follows it. A trailing
// unmatched "in" becomes an open pair with no out time.
func BuildPunchPairs(events []PunchEvent) []PunchPair {
	pairs := make([]PunchPair, 0, len(events)/2+1)
	var pending *PunchEvent

	sorted := SortEvents(events)
	for i := range sorted {
		e := sorted[i]
		switch e.PunchType {
		case PunchIn:
			pending = &sorted[i]
		case PunchOut:
			if pending == nil {
				continue
			}
			out := e.PunchTime
			hours := DurationToHours(out.Sub(pending.PunchTime))
			pairs = append(pairs, PunchPair{
				InTime:      pending.PunchTime,
				OutTime:     &out,
				HoursWorked: &hours,
				Status:      PairStatusCompleted,
			})
			pending = nil
		}
	}

	if pending != nil {
		pairs = append(pairs, PunchPair{
			InTime: pending.PunchTime,
			Status: PairStatusInProgress,
		})
	}

	return pairs
}
