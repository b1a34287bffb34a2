package services

import (
	"context"
	"fmt"
	"time"

	"github.com/DevinWangGZ/DevTeamResourceManager/internal/domain/entities"
	"github.com/DevinWangGZ/DevTeamResourceManager/internal/infrastructure/logger"
	"github.com/DevinWangGZ/DevTeamResourceManager/internal/ports"
)

// HolidayService maintains the holiday override set behind the work calendar.
type HolidayService struct {
	holidayRepo ports.HolidayRepository
	logger      *logger.Logger
}

// NewHolidayService creates a new holiday service
func NewHolidayService(holidayRepo ports.HolidayRepository, logger *logger.Logger) *HolidayService {
	return &HolidayService{
		holidayRepo: holidayRepo,
		logger:      logger,
	}
}

// CreateHoliday marks a date as non-working. Management only; one row per
// date.
func (s *HolidayService) CreateHoliday(ctx context.Context, req ports.CreateHolidayRequest, actor entities.Actor) (*entities.Holiday, error) {
	if !actor.HasAnyRole(entities.UserRoleProjectManager, entities.UserRoleSystemAdmin) {
		return nil, fmt.Errorf("%w: only management may edit the holiday calendar", entities.ErrPermissionDenied)
	}

	date := DateOnly(req.Date)

	if _, err := s.holidayRepo.GetByDate(ctx, date); err == nil {
		return nil, entities.ErrDuplicateHoliday
	} else if !isNotFound(err) {
		return nil, fmt.Errorf("check holiday: %w", err)
	}

	wd := date.Weekday()
	holiday := &entities.Holiday{
		Date:        date,
		Description: req.Description,
		IsWeekend:   wd == time.Saturday || wd == time.Sunday,
	}

	if err := s.holidayRepo.Create(ctx, holiday); err != nil {
		return nil, fmt.Errorf("create holiday: %w", err)
	}

	s.logger.Infow("Holiday created", "date", date.Format(time.DateOnly), "actor_id", actor.ID)

	return holiday, nil
}

// ListHolidays returns the holidays within the inclusive date range.
func (s *HolidayService) ListHolidays(ctx context.Context, from, to time.Time) ([]*entities.Holiday, error) {
	return s.holidayRepo.ListBetween(ctx, DateOnly(from), DateOnly(to))
}

// DeleteHoliday removes a holiday override. Management only.
func (s *HolidayService) DeleteHoliday(ctx context.Context, id int64, actor entities.Actor) error {
	if !actor.HasAnyRole(entities.UserRoleProjectManager, entities.UserRoleSystemAdmin) {
		return fmt.Errorf("%w: only management may edit the holiday calendar", entities.ErrPermissionDenied)
	}

	if err := s.holidayRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Infow("Holiday deleted", "holiday_id", id, "actor_id", actor.ID)
	return nil
}
