package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/DevinWangGZ/DevTeamResourceManager/internal/domain/entities"
	"github.com/DevinWangGZ/DevTeamResourceManager/internal/infrastructure/logger"
	"github.com/DevinWangGZ/DevTeamResourceManager/internal/ports"
)

// ScheduleService allocates work-day-aware date ranges on an assignee's
// timeline and handles pin-based re-sequencing of the active queue.
type ScheduleService struct {
	taskRepo     ports.TaskRepository
	scheduleRepo ports.ScheduleRepository
	calendar     *WorkCalendar
	logger       *logger.Logger
	now          func() time.Time
}

// NewScheduleService creates a new schedule service
func NewScheduleService(taskRepo ports.TaskRepository, scheduleRepo ports.ScheduleRepository, calendar *WorkCalendar, logger *logger.Logger) *ScheduleService {
	return &ScheduleService{
		taskRepo:     taskRepo,
		scheduleRepo: scheduleRepo,
		calendar:     calendar,
		logger:       logger,
		now:          time.Now,
	}
}

// workdaysNeeded converts estimated effort into whole reserved workdays:
// fractional effort rounds up, and anything below one day still reserves a
// full day.
func workdaysNeeded(estimatedManDays float64) int {
	days := int(math.Ceil(estimatedManDays))
	if days < 1 {
		days = 1
	}
	return days
}

// CalculateSchedule computes and persists the task's schedule. The range
// starts at startFrom when given, otherwise today — unless the assignee has
// pinned active tasks, in which case it starts the day after the last pinned
// schedule ends, so pinned tasks always hold the front of the timeline.
func (s *ScheduleService) CalculateSchedule(ctx context.Context, taskID int64, estimatedManDays float64, assigneeID uuid.UUID, startFrom *time.Time) (*entities.TaskSchedule, error) {
	if _, err := s.taskRepo.GetByID(ctx, taskID); err != nil {
		return nil, err
	}

	var start time.Time
	if startFrom != nil {
		start = DateOnly(*startFrom)
	} else {
		start = DateOnly(s.now())

		lastPinnedEnd, err := s.lastPinnedEnd(ctx, assigneeID, taskID)
		if err != nil {
			return nil, err
		}
		if lastPinnedEnd != nil {
			start = lastPinnedEnd.AddDate(0, 0, 1)
		}
	}

	return s.allocateFrom(ctx, taskID, estimatedManDays, start)
}

// lastPinnedEnd returns the end date of the assignee's last pinned active
// task's schedule, in claim order, or nil when there is none.
func (s *ScheduleService) lastPinnedEnd(ctx context.Context, assigneeID uuid.UUID, excludeTaskID int64) (*time.Time, error) {
	active, err := s.taskRepo.GetActiveByAssignee(ctx, assigneeID, excludeTaskID)
	if err != nil {
		return nil, fmt.Errorf("load active tasks: %w", err)
	}

	var last *entities.Task
	for _, t := range active {
		if t.IsPinned {
			last = t
		}
	}
	if last == nil {
		return nil, nil
	}

	schedule, err := s.scheduleRepo.GetByTaskID(ctx, last.ID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("load pinned schedule: %w", err)
	}

	end := DateOnly(schedule.EndDate)
	return &end, nil
}

// allocateFrom walks forward from start counting workdays until the task's
// effort is covered, then upserts the schedule. Start and end themselves need
// not be workdays; only workdays between them count.
func (s *ScheduleService) allocateFrom(ctx context.Context, taskID int64, estimatedManDays float64, start time.Time) (*entities.TaskSchedule, error) {
	needed := workdaysNeeded(estimatedManDays)

	end := start
	counted := 0
	for {
		workday, err := s.calendar.IsWorkday(ctx, end)
		if err != nil {
			return nil, err
		}
		if workday {
			counted++
		}
		if counted >= needed {
			break
		}
		end = end.AddDate(0, 0, 1)
	}

	schedule := &entities.TaskSchedule{
		TaskID:    taskID,
		StartDate: start,
		EndDate:   end,
	}
	if err := s.scheduleRepo.Upsert(ctx, schedule); err != nil {
		return nil, fmt.Errorf("upsert schedule: %w", err)
	}

	return schedule, nil
}

// PinTaskAndReschedule toggles a task's pin flag and recomputes the entire
// active queue for its assignee: pinned tasks are packed back-to-back from
// today in claim order, the toggled task follows the pinned block when newly
// pinned, and the remaining unpinned tasks follow in claim order. Within each
// pin class ordering is ascending created_at.
func (s *ScheduleService) PinTaskAndReschedule(ctx context.Context, taskID int64, isPinned bool, actorID uuid.UUID) (*entities.TaskSchedule, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if !task.IsAssignedTo(actorID) {
		return nil, fmt.Errorf("%w: only the task assignee may pin it", entities.ErrPermissionDenied)
	}

	if !task.IsActive() {
		return nil, entities.ErrInvalidStatus
	}

	task.IsPinned = isPinned
	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("update pin flag: %w", err)
	}

	active, err := s.taskRepo.GetActiveByAssignee(ctx, *task.AssigneeID, 0)
	if err != nil {
		return nil, fmt.Errorf("load active tasks: %w", err)
	}

	cursor := DateOnly(s.now())

	// Pinned prefix, claim order, toggled task excluded for now.
	for _, t := range active {
		if !t.IsPinned || t.ID == taskID {
			continue
		}
		schedule, err := s.allocateFrom(ctx, t.ID, t.EstimatedManDays, cursor)
		if err != nil {
			return nil, err
		}
		cursor = schedule.EndDate.AddDate(0, 0, 1)
	}

	// A newly pinned task closes the pinned block.
	if isPinned {
		schedule, err := s.allocateFrom(ctx, taskID, task.EstimatedManDays, cursor)
		if err != nil {
			return nil, err
		}
		cursor = schedule.EndDate.AddDate(0, 0, 1)
	}

	// Unpinned tail, claim order. An unpinned toggle lands here like any
	// other unpinned task.
	for _, t := range active {
		if t.IsPinned || (isPinned && t.ID == taskID) {
			continue
		}
		schedule, err := s.allocateFrom(ctx, t.ID, t.EstimatedManDays, cursor)
		if err != nil {
			return nil, err
		}
		cursor = schedule.EndDate.AddDate(0, 0, 1)
	}

	if err := s.scheduleRepo.SetPinned(ctx, taskID, isPinned); err != nil {
		return nil, fmt.Errorf("set schedule pin flag: %w", err)
	}

	s.logger.Infow("Rescheduled assignee queue",
		"task_id", taskID,
		"assignee_id", task.AssigneeID,
		"is_pinned", isPinned,
		"queue_size", len(active),
	)

	return s.scheduleRepo.GetByTaskID(ctx, taskID)
}

// GetSchedule returns the schedule for a task.
func (s *ScheduleService) GetSchedule(ctx context.Context, taskID int64) (*entities.TaskSchedule, error) {
	return s.scheduleRepo.GetByTaskID(ctx, taskID)
}

// GetUserSchedules returns a user's schedules, optionally bounded to a date
// window.
func (s *ScheduleService) GetUserSchedules(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]*entities.TaskSchedule, error) {
	return s.scheduleRepo.ListByAssignee(ctx, userID, from, to)
}
