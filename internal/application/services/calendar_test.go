package services

import (
	"context"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestIsWorkday(t *testing.T) {
	// 2024-01-01 is a Monday.
	tests := []struct {
		name     string
		day      time.Time
		holidays []time.Time
		want     bool
	}{
		{name: "regular weekday", day: date(2024, 1, 2), want: true},
		{name: "saturday", day: date(2024, 1, 6), want: false},
		{name: "sunday", day: date(2024, 1, 7), want: false},
		{name: "weekday holiday", day: date(2024, 1, 1), holidays: []time.Time{date(2024, 1, 1)}, want: false},
		{name: "holiday on saturday stays non-working", day: date(2024, 1, 6), holidays: []time.Time{date(2024, 1, 6)}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calendar := NewWorkCalendar(newFakeHolidayRepo(tt.holidays...))

			got, err := calendar.IsWorkday(context.Background(), tt.day)
			if err != nil {
				t.Fatalf("IsWorkday() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("IsWorkday(%s) = %v, want %v", tt.day.Format(time.DateOnly), got, tt.want)
			}
		})
	}
}

func TestIsWorkdayIgnoresTimeOfDay(t *testing.T) {
	calendar := NewWorkCalendar(newFakeHolidayRepo(date(2024, 1, 3)))

	noon := time.Date(2024, 1, 3, 12, 30, 0, 0, time.UTC)
	got, err := calendar.IsWorkday(context.Background(), noon)
	if err != nil {
		t.Fatalf("IsWorkday() error = %v", err)
	}
	if got {
		t.Error("expected holiday to apply regardless of time of day")
	}
}

func TestWorkdaysCount(t *testing.T) {
	tests := []struct {
		name       string
		start, end time.Time
		holidays   []time.Time
		want       int
	}{
		{name: "full week", start: date(2024, 1, 1), end: date(2024, 1, 7), want: 5},
		{name: "weekend only", start: date(2024, 1, 6), end: date(2024, 1, 7), want: 0},
		{name: "with holiday", start: date(2024, 1, 1), end: date(2024, 1, 7), holidays: []time.Time{date(2024, 1, 3)}, want: 4},
		{name: "single day", start: date(2024, 1, 2), end: date(2024, 1, 2), want: 1},
		{name: "reversed range", start: date(2024, 1, 7), end: date(2024, 1, 1), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calendar := NewWorkCalendar(newFakeHolidayRepo(tt.holidays...))

			got, err := calendar.WorkdaysCount(context.Background(), tt.start, tt.end)
			if err != nil {
				t.Fatalf("WorkdaysCount() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("WorkdaysCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDateOnly(t *testing.T) {
	in := time.Date(2024, 3, 15, 23, 59, 59, 123, time.FixedZone("X", 3600))
	got := DateOnly(in)

	if got.Hour() != 0 || got.Minute() != 0 || got.Second() != 0 || got.Nanosecond() != 0 {
		t.Errorf("DateOnly() = %v, want midnight", got)
	}
	if got.Location() != time.UTC {
		t.Errorf("DateOnly() location = %v, want UTC", got.Location())
	}
}
