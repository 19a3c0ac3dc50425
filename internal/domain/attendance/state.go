package attendance

import (
	"sort"
)

// DayState is the punch state of one employee-day. It is derived from the
// ledger on every read and never stored.
type DayState string

const (
	// StateOpen: last event is "in"; punch-out is legal.
	StateOpen DayState = "OPEN"
	// StateClosed: last event is "out" or there are no events; punch-in is legal.
	StateClosed DayState = "CLOSED"
)

// SortEvents orders events by punch time, breaking ties by insertion sequence.
func SortEvents(events []PunchEvent) []PunchEvent {
	sorted := make([]PunchEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].PunchTime.Equal(sorted[j].PunchTime) {
			return sorted[i].PunchTime.Before(sorted[j].PunchTime)
		}
		return sorted[i].Seq < sorted[j].Seq
	})
	return sorted
}

// LastEventType returns the type of the most recent event, or NoPunch.
func LastEventType(events []PunchEvent) PunchType {
	if len(events) == 0 {
		return NoPunch
	}
	last := events[0]
	for _, e := range events[1:] {
		if e.PunchTime.After(last.PunchTime) ||
			(e.PunchTime.Equal(last.PunchTime) && e.Seq > last.Seq) {
			last = e
		}
	}
	return last.PunchType
}

func StateOf(last PunchType) DayState {
	if last == PunchIn {
		return StateOpen
	}
	return StateClosed
}

func CanPunchIn(state DayState) bool {
	return state == StateClosed
}

func CanPunchOut(state DayState) bool {
	return state == StateOpen
}

// ValidateTransition checks whether next may follow last.
func ValidateTransition(last PunchType, next PunchType) error {
	switch next {
	case PunchIn:
		if last == PunchIn {
			return ErrAlreadyPunchedIn
		}
		return nil
	case PunchOut:
		switch last {
		case PunchIn:
			return nil
		case PunchOut:
			return ErrAlreadyPunchedOut
		default:
			return ErrNotPunchedIn
		}
	}
	return ErrInvalidPunchType
}
