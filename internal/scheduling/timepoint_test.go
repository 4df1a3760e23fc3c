package scheduling

import "testing"

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    TimePoint
		wantErr bool
	}{
		{"00:00", 0, false},
		{"08:00", 480, false},
		{"23:59", 1439, false},
		{"12:30", 750, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"-1:00", 0, true},
		{"noon", 0, true},
		{"12", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseClock(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseClock(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		in   TimePoint
		want string
	}{
		{0, "00:00"},
		{480, "08:00"},
		{1439, "23:59"},
		{750, "12:30"},
		// Past-midnight ends wrap for display only.
		{1500, "01:00"},
	}

	for _, tt := range tests {
		if got := FormatClock(tt.in); got != tt.want {
			t.Errorf("FormatClock(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBookingEnd(t *testing.T) {
	b := Booking{DayIndex: 0, Start: 23 * 60, Duration: 120}
	if got := b.End(); got != 25*60 {
		t.Errorf("End = %d, want %d (not clamped at midnight)", got, 25*60)
	}
}
