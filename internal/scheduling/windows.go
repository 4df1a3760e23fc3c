/*
Copyright (C) 2026 Wayfarer HQ

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package scheduling

// Timeframe is a coarse caller-supplied preference bucket. Unknown values fall
// back to TimeframeAnytime.
type Timeframe string

const (
	TimeframeMorning   Timeframe = "morning"
	TimeframeAfternoon Timeframe = "afternoon"
	TimeframeEvening   Timeframe = "evening"
	TimeframeNight     Timeframe = "night"
	TimeframeAnytime   Timeframe = "anytime"
)

// Window is a candidate clock-time range for one timeframe bucket.
type Window struct {
	Start TimePoint
	End   TimePoint
}

// timeframeWindows maps each timeframe to its ordered candidate windows.
// Windows within a bucket may overlap: the narrower "typical" range is listed
// before the wider fallback so the search is biased toward it. The same start
// time can therefore be attempted twice, which is harmless because the first
// feasible emission wins.
var timeframeWindows = map[Timeframe][]Window{
	TimeframeMorning: {
		{Start: 8 * 60, End: 12 * 60},
	},
	TimeframeAfternoon: {
		{Start: 13 * 60, End: 17 * 60},
		{Start: 12 * 60, End: 18 * 60},
	},
	TimeframeEvening: {
		{Start: 18 * 60, End: 22 * 60},
		{Start: 17 * 60, End: 23 * 60},
	},
	TimeframeNight: {
		{Start: 20 * 60, End: 23*60 + 59},
	},
	TimeframeAnytime: {
		{Start: 8 * 60, End: 22 * 60},
		{Start: 7 * 60, End: 23 * 60},
	},
}

// WindowsFor returns the ordered candidate windows for a timeframe tag.
// Empty or unrecognized tags resolve to the anytime bucket.
func WindowsFor(timeframe string) []Window {
	if windows, ok := timeframeWindows[Timeframe(timeframe)]; ok {
		return windows
	}
	return timeframeWindows[TimeframeAnytime]
}

// KnownTimeframes lists the recognized timeframe tags in display order.
func KnownTimeframes() []Timeframe {
	return []Timeframe{
		TimeframeMorning,
		TimeframeAfternoon,
		TimeframeEvening,
		TimeframeNight,
		TimeframeAnytime,
	}
}
