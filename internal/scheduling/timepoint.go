/*
Copyright (C) 2026 Wayfarer HQ

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package scheduling implements the time-slot allocation engine used to place
// wishlist items into a partially booked multi-day itinerary. The package is
// pure: it performs no I/O and touches no shared state, so it is safe to call
// concurrently.
package scheduling

import (
	"fmt"
	"strconv"
	"strings"
)

// TimePoint is a wall-clock time expressed as minutes since local midnight.
// Valid parsed values lie in [0, 1439]; computed interval ends may exceed 1439
// when an activity runs very late and are deliberately not clamped.
type TimePoint int

// ParseClock converts an "HH:MM" 24-hour string into a TimePoint.
func ParseClock(s string) (TimePoint, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("clock time %q out of range", s)
	}
	return TimePoint(hour*60 + minute), nil
}

// FormatClock renders a TimePoint back into an "HH:MM" string.
// Values past midnight wrap for display purposes only.
func FormatClock(t TimePoint) string {
	m := int(t) % (24 * 60)
	if m < 0 {
		m += 24 * 60
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// String implements fmt.Stringer.
func (t TimePoint) String() string {
	return FormatClock(t)
}
