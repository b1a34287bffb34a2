package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DevinWangGZ/DevTeamResourceManager/internal/domain/entities"
	"github.com/DevinWangGZ/DevTeamResourceManager/internal/ports"
)

// WorkCalendar answers work-day questions against the persisted holiday set.
// A date is a workday iff its weekday is Monday through Friday and no holiday
// row exists for it. Holiday rows are an override-only model: any persisted
// row makes the date non-working, there is no way to declare a weekend a
// workday.
type WorkCalendar struct {
	holidayRepo ports.HolidayRepository
}

// NewWorkCalendar creates a new work calendar
func NewWorkCalendar(holidayRepo ports.HolidayRepository) *WorkCalendar {
	return &WorkCalendar{holidayRepo: holidayRepo}
}

// IsWorkday reports whether the given date is a working day.
func (c *WorkCalendar) IsWorkday(ctx context.Context, date time.Time) (bool, error) {
	day := DateOnly(date)

	if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false, nil
	}

	_, err := c.holidayRepo.GetByDate(ctx, day)
	if err != nil {
		if errors.Is(err, entities.ErrHolidayNotFound) {
			return true, nil
		}
		return false, fmt.Errorf("check holiday: %w", err)
	}

	return false, nil
}

// WorkdaysCount counts the workdays in the inclusive range [start, end].
// A reversed range counts zero days.
func (c *WorkCalendar) WorkdaysCount(ctx context.Context, start, end time.Time) (int, error) {
	count := 0
	for day := DateOnly(start); !day.After(DateOnly(end)); day = day.AddDate(0, 0, 1) {
		ok, err := c.IsWorkday(ctx, day)
		if err != nil {
			return 0, err
		}
		if ok {
			count++
		}
	}
	return count, nil
}

// DateOnly truncates a timestamp to its calendar date at UTC midnight. All
// schedule arithmetic operates on these normalized values.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
