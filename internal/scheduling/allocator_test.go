package scheduling

import (
	"testing"
	"time"
)

func day(index int) Day {
	return Day{Index: index, Date: time.Date(2026, 6, 1+index, 0, 0, 0, 0, time.UTC)}
}

func mustClock(t *testing.T, s string) TimePoint {
	t.Helper()
	tp, err := ParseClock(s)
	if err != nil {
		t.Fatalf("ParseClock(%q): %v", s, err)
	}
	return tp
}

func TestFindFirstSlot_EmptyMorning(t *testing.T) {
	slot, ok := FindFirstSlot("morning", 60, nil, []Day{day(0)})
	if !ok {
		t.Fatal("expected a slot on an empty day")
	}
	if slot.DayIndex != 0 {
		t.Errorf("DayIndex = %d, want 0", slot.DayIndex)
	}
	if got := FormatClock(slot.Start); got != "08:00" {
		t.Errorf("Start = %s, want 08:00", got)
	}
	if got := FormatClock(slot.End); got != "09:00" {
		t.Errorf("End = %s, want 09:00", got)
	}
}

func TestFindFirstSlot_MorningFullyBlocked(t *testing.T) {
	// 08:00 + 240min blocks the whole morning window.
	bookings := []Booking{{DayIndex: 0, Start: mustClock(t, "08:00"), Duration: 240}}

	if _, ok := FindFirstSlot("morning", 60, bookings, []Day{day(0)}); ok {
		t.Fatal("expected no morning slot on a fully blocked morning")
	}

	// Anytime search must still find space at or after 12:00.
	slots := FindAvailableSlots("anytime", 60, bookings, []Day{day(0)}, 1)
	if len(slots) != 1 {
		t.Fatalf("expected 1 anytime slot, got %d", len(slots))
	}
	if slots[0].Start < mustClock(t, "12:00") {
		t.Errorf("anytime slot starts at %s, want >= 12:00", slots[0].Start)
	}
}

func TestFindFirstSlot_SpillsToSecondDay(t *testing.T) {
	bookings := []Booking{{DayIndex: 0, Start: mustClock(t, "08:00"), Duration: 14 * 60}} // 08:00-22:00
	days := []Day{day(0), day(1)}

	slot, ok := FindFirstSlot("evening", 90, bookings, days)
	if !ok {
		t.Fatal("expected a slot on day 1")
	}
	if slot.DayIndex != 1 {
		t.Errorf("DayIndex = %d, want 1", slot.DayIndex)
	}
	if got := FormatClock(slot.Start); got != "18:00" {
		t.Errorf("Start = %s, want 18:00", got)
	}
	if got := FormatClock(slot.End); got != "19:30" {
		t.Errorf("End = %s, want 19:30", got)
	}
}

func TestFindFirstSlot_WindowTooSmall(t *testing.T) {
	// The night window spans 239 minutes; a 5 hour activity can never fit,
	// even on an empty day.
	if _, ok := FindFirstSlot("night", 300, nil, []Day{day(0)}); ok {
		t.Fatal("expected no slot when the window is smaller than the duration")
	}
}

func TestFindFirstSlot_UnknownTimeframeFallsBackToAnytime(t *testing.T) {
	want, ok := FindFirstSlot("anytime", 45, nil, []Day{day(0)})
	if !ok {
		t.Fatal("expected an anytime slot")
	}
	got, ok := FindFirstSlot("midnight-snack", 45, nil, []Day{day(0)})
	if !ok {
		t.Fatal("expected unknown timeframe to behave like anytime")
	}
	if got != want {
		t.Errorf("unknown timeframe slot = %+v, want %+v", got, want)
	}
}

func TestFindFirstSlot_BackToBackAllowed(t *testing.T) {
	// Booking ends exactly at 12:00; a 60 minute slot starting 12:00 must be
	// accepted under half-open overlap semantics.
	bookings := []Booking{{DayIndex: 0, Start: mustClock(t, "08:00"), Duration: 240}}

	slots := FindAvailableSlots("anytime", 60, bookings, []Day{day(0)}, 1)
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(slots))
	}
	if got := FormatClock(slots[0].Start); got != "12:00" {
		t.Errorf("Start = %s, want 12:00", got)
	}
}

func TestFindFirstSlot_ZeroDurationUsesDefault(t *testing.T) {
	slot, ok := FindFirstSlot("morning", 0, nil, []Day{day(0)})
	if !ok {
		t.Fatal("expected a slot")
	}
	if int(slot.End-slot.Start) != DefaultDurationMinutes {
		t.Errorf("duration = %d, want %d", slot.End-slot.Start, DefaultDurationMinutes)
	}
}

func TestFindFirstSlot_Deterministic(t *testing.T) {
	bookings := []Booking{
		{DayIndex: 0, Start: mustClock(t, "09:00"), Duration: 90},
		{DayIndex: 0, Start: mustClock(t, "13:30"), Duration: 60},
		{DayIndex: 1, Start: mustClock(t, "10:00"), Duration: 30},
	}
	days := []Day{day(0), day(1)}

	first, ok := FindFirstSlot("afternoon", 75, bookings, days)
	if !ok {
		t.Fatal("expected a slot")
	}
	for i := 0; i < 5; i++ {
		again, ok := FindFirstSlot("afternoon", 75, bookings, days)
		if !ok || again != first {
			t.Fatalf("run %d: got %+v ok=%v, want %+v", i, again, ok, first)
		}
	}
}

func TestFindFirstSlot_MonotonicDayPreference(t *testing.T) {
	// Day 0 has a free evening, day 1 is empty: the result must land on day 0.
	bookings := []Booking{{DayIndex: 0, Start: mustClock(t, "18:00"), Duration: 60}}
	days := []Day{day(0), day(1)}

	slot, ok := FindFirstSlot("evening", 60, bookings, days)
	if !ok {
		t.Fatal("expected a slot")
	}
	if slot.DayIndex != 0 {
		t.Errorf("DayIndex = %d, want 0 (earlier day has room)", slot.DayIndex)
	}
	if got := FormatClock(slot.Start); got != "19:00" {
		t.Errorf("Start = %s, want 19:00", got)
	}
}

func TestFindAvailableSlots_NoOverlapInvariant(t *testing.T) {
	bookings := []Booking{
		{DayIndex: 0, Start: mustClock(t, "09:00"), Duration: 120},
		{DayIndex: 0, Start: mustClock(t, "14:00"), Duration: 90},
		{DayIndex: 1, Start: mustClock(t, "08:30"), Duration: 45},
	}
	days := []Day{day(0), day(1)}

	slots := FindAvailableSlots("anytime", 60, bookings, days, 25)
	if len(slots) == 0 {
		t.Fatal("expected some slots")
	}
	for _, slot := range slots {
		if int(slot.End-slot.Start) != 60 {
			t.Errorf("slot %+v: duration %d, want 60", slot, slot.End-slot.Start)
		}
		for _, b := range bookings {
			if b.DayIndex != slot.DayIndex {
				continue
			}
			if slot.Start < b.End() && b.Start < slot.End {
				t.Errorf("slot %+v overlaps booking %+v", slot, b)
			}
		}
	}
}

func TestFindAvailableSlots_RespectsMaxResults(t *testing.T) {
	slots := FindAvailableSlots("anytime", 30, nil, []Day{day(0), day(1)}, 5)
	if len(slots) != 5 {
		t.Fatalf("len = %d, want 5", len(slots))
	}
	// Search order is fixed: the first result for an empty day starts at the
	// first window's opening time.
	if got := FormatClock(slots[0].Start); got != "08:00" {
		t.Errorf("first slot starts %s, want 08:00", got)
	}
	if slots[0].DayIndex != 0 {
		t.Errorf("first slot DayIndex = %d, want 0", slots[0].DayIndex)
	}
}

func TestFindAvailableSlots_ExhaustedReturnsEmpty(t *testing.T) {
	// Block every window on the only day.
	bookings := []Booking{{DayIndex: 0, Start: mustClock(t, "07:00"), Duration: 17 * 60}}
	slots := FindAvailableSlots("anytime", 60, bookings, []Day{day(0)}, 10)
	if len(slots) != 0 {
		t.Fatalf("expected no slots, got %d", len(slots))
	}
}
