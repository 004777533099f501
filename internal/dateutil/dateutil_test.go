package dateutil_test

import (
	"testing"
	"time"

	"github.com/daybook-app/daybook/internal/dateutil"
)

func TestDayKey(t *testing.T) {
	tests := []struct {
		t    time.Time
		want string
	}{
		{time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), "2024-03-05"},
		{time.Date(2024, 3, 5, 23, 59, 59, 0, time.UTC), "2024-03-05"},
		{time.Date(2024, 12, 31, 12, 0, 0, 0, time.UTC), "2024-12-31"},
		{time.Date(2024, 1, 1, 0, 0, 0, 0, time.FixedZone("AWST", 8*3600)), "2024-01-01"},
	}
	for _, tt := range tests {
		if got := dateutil.DayKey(tt.t); got != tt.want {
			t.Errorf("DayKey(%v) = %q, want %q", tt.t, got, tt.want)
		}
	}
}

func TestParseDayKey(t *testing.T) {
	got, err := dateutil.ParseDayKey("2024-03-05")
	if err != nil {
		t.Fatalf("ParseDayKey: %v", err)
	}
	want := time.Date(2024, 3, 5, 0, 0, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Errorf("ParseDayKey = %v, want %v", got, want)
	}
	// The key survives a round trip.
	if dateutil.DayKey(got) != "2024-03-05" {
		t.Errorf("round trip = %q, want %q", dateutil.DayKey(got), "2024-03-05")
	}
}

func TestParseDayKeyInvalid(t *testing.T) {
	for _, s := range []string{"", "2024-3-5", "05.03.2024", "2024-03-05T00:00:00Z", "not a date"} {
		if _, err := dateutil.ParseDayKey(s); err == nil {
			t.Errorf("ParseDayKey(%q): expected error, got nil", s)
		}
	}
}

func TestStartAndEndOfDay(t *testing.T) {
	in := time.Date(2024, 3, 5, 14, 30, 45, 0, time.UTC)

	start := dateutil.StartOfDay(in)
	wantStart := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	if !start.Equal(wantStart) {
		t.Errorf("StartOfDay = %v, want %v", start, wantStart)
	}

	end := dateutil.EndOfDay(in)
	wantEnd := time.Date(2024, 3, 5, 23, 59, 59, 0, time.UTC)
	if !end.Equal(wantEnd) {
		t.Errorf("EndOfDay = %v, want %v", end, wantEnd)
	}
}

func TestWeekRange(t *testing.T) {
	// 2024-03-05 is a Tuesday (week starts Monday 2024-03-04).
	tue := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	monday, sunday := dateutil.WeekRange(tue)

	wantMonday := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	wantSunday := time.Date(2024, 3, 10, 23, 59, 59, 0, time.UTC)

	if !monday.Equal(wantMonday) {
		t.Errorf("WeekRange monday = %v, want %v", monday, wantMonday)
	}
	if !sunday.Equal(wantSunday) {
		t.Errorf("WeekRange sunday = %v, want %v", sunday, wantSunday)
	}

	// Sunday belongs to the week that started the previous Monday.
	sun := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	monday2, _ := dateutil.WeekRange(sun)
	if !monday2.Equal(wantMonday) {
		t.Errorf("WeekRange(sunday) monday = %v, want %v", monday2, wantMonday)
	}
}

func TestMonthRange(t *testing.T) {
	first, last := dateutil.MonthRange(2024, time.February, time.UTC)
	wantFirst := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	wantLast := time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC) // leap year
	if !first.Equal(wantFirst) {
		t.Errorf("MonthRange first = %v, want %v", first, wantFirst)
	}
	if !last.Equal(wantLast) {
		t.Errorf("MonthRange last = %v, want %v", last, wantLast)
	}
}

func TestMonthLabel(t *testing.T) {
	got := dateutil.MonthLabel(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))
	if got != "March 2024" {
		t.Errorf("MonthLabel = %q, want %q", got, "March 2024")
	}
}
