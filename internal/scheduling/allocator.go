/*
Copyright (C) 2026 Wayfarer HQ

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package scheduling

import "time"

// DefaultDurationMinutes is assumed when a caller supplies no duration hint.
const DefaultDurationMinutes = 60

// candidateStep is the quantization of candidate start times.
const candidateStep = 30

// Booking is an already-committed activity used as a conflict constraint.
type Booking struct {
	DayIndex int
	Start    TimePoint
	Duration int // minutes, > 0
}

// End returns the exclusive end of the booking. It may exceed 23:59 for
// activities scheduled very late; the allocator does not clamp it.
func (b Booking) End() TimePoint {
	return b.Start + TimePoint(b.Duration)
}

// Day identifies one itinerary day, supplied in the order days should be tried.
type Day struct {
	Index int
	Date  time.Time
}

// Slot is a concrete placement proposal for a new activity.
type Slot struct {
	DayIndex int
	Start    TimePoint
	End      TimePoint
}

// FindFirstSlot returns the first feasible placement for an activity of the
// given duration under the fixed search order: days in caller order, windows in
// table order, candidate starts stepping 30 minutes from the window start. The
// boolean is false when no day/window/start combination fits; that is a normal
// outcome, not an error. A duration <= 0 falls back to DefaultDurationMinutes.
func FindFirstSlot(timeframe string, durationMinutes int, bookings []Booking, days []Day) (Slot, bool) {
	slots := search(timeframe, durationMinutes, bookings, days, 1)
	if len(slots) == 0 {
		return Slot{}, false
	}
	return slots[0], true
}

// FindAvailableSlots collects feasible placements in search order until
// maxResults slots are found or the search space is exhausted. Every feasible
// start time is reported, not just one per window.
func FindAvailableSlots(timeframe string, durationMinutes int, bookings []Booking, days []Day, maxResults int) []Slot {
	if maxResults <= 0 {
		return nil
	}
	return search(timeframe, durationMinutes, bookings, days, maxResults)
}

func search(timeframe string, durationMinutes int, bookings []Booking, days []Day, limit int) []Slot {
	if durationMinutes <= 0 {
		durationMinutes = DefaultDurationMinutes
	}
	windows := WindowsFor(timeframe)
	duration := TimePoint(durationMinutes)

	var results []Slot
	for _, day := range days {
		dayBookings := bookingsForDay(bookings, day.Index)
		for _, window := range windows {
			if window.End-window.Start < duration {
				continue // window can never fit the duration
			}
			latestStart := window.End - duration
			for start := window.Start; start <= latestStart; start += candidateStep {
				end := start + duration
				if overlapsAny(start, end, dayBookings) {
					continue
				}
				results = append(results, Slot{DayIndex: day.Index, Start: start, End: end})
				if len(results) >= limit {
					return results
				}
			}
		}
	}
	return results
}

func bookingsForDay(bookings []Booking, dayIndex int) []Booking {
	var out []Booking
	for _, b := range bookings {
		if b.DayIndex == dayIndex {
			out = append(out, b)
		}
	}
	return out
}

// overlapsAny reports whether [start,end) intersects any booking interval.
// Intervals are half-open, so touching endpoints do not conflict and
// back-to-back scheduling is allowed.
func overlapsAny(start, end TimePoint, bookings []Booking) bool {
	for _, b := range bookings {
		if start < b.End() && b.Start < end {
			return true
		}
	}
	return false
}
