package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/DevinWangGZ/DevTeamResourceManager/internal/domain/entities"
	"github.com/DevinWangGZ/DevTeamResourceManager/internal/infrastructure/logger"
	"github.com/DevinWangGZ/DevTeamResourceManager/internal/ports"
)

// WorkloadService accumulates confirmed effort into per-user, per-project,
// per-period buckets. A task's effort lands in the calendar month of its
// confirmation; project-less tasks get their own NULL-project bucket that is
// never merged with project buckets.
type WorkloadService struct {
	statRepo ports.WorkloadStatisticRepository
	logger   *logger.Logger
}

// NewWorkloadService creates a new workload service
func NewWorkloadService(statRepo ports.WorkloadStatisticRepository, logger *logger.Logger) *WorkloadService {
	return &WorkloadService{
		statRepo: statRepo,
		logger:   logger,
	}
}

// monthBounds returns the first and last day of t's calendar month at UTC
// midnight.
func monthBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return start, end
}

// UpdateStatisticOnTaskConfirmation folds a confirmed task's actual effort
// into the matching workload bucket, creating it on first use. The period
// defaults to the calendar month of the task's last update when not given.
func (s *WorkloadService) UpdateStatisticOnTaskConfirmation(ctx context.Context, task *entities.Task, periodStart, periodEnd *time.Time) (*entities.WorkloadStatistic, error) {
	if task.AssigneeID == nil {
		return nil, entities.ErrMissingAssignee
	}
	if task.ActualManDays == nil {
		return nil, entities.ErrMissingActualEffort
	}

	var start, end time.Time
	if periodStart != nil && periodEnd != nil {
		start, end = DateOnly(*periodStart), DateOnly(*periodEnd)
	} else {
		start, end = monthBounds(task.UpdatedAt)
	}

	stat, err := s.statRepo.Find(ctx, *task.AssigneeID, task.ProjectID, start, end)
	if err != nil {
		if !isNotFound(err) {
			return nil, fmt.Errorf("find workload bucket: %w", err)
		}

		stat = &entities.WorkloadStatistic{
			UserID:       *task.AssigneeID,
			ProjectID:    task.ProjectID,
			TotalManDays: *task.ActualManDays,
			PeriodStart:  start,
			PeriodEnd:    end,
		}
		if err := s.statRepo.Create(ctx, stat); err != nil {
			return nil, fmt.Errorf("create workload bucket: %w", err)
		}

		s.logger.Infow("Workload bucket created",
			"user_id", stat.UserID, "project_id", stat.ProjectID,
			"period_start", start, "man_days", stat.TotalManDays)

		return stat, nil
	}

	stat.TotalManDays += *task.ActualManDays
	if err := s.statRepo.Update(ctx, stat); err != nil {
		return nil, fmt.Errorf("update workload bucket: %w", err)
	}

	s.logger.Infow("Workload bucket updated",
		"user_id", stat.UserID, "project_id", stat.ProjectID,
		"period_start", start, "total_man_days", stat.TotalManDays)

	return stat, nil
}

// ListStatistics returns workload buckets matching the filter.
func (s *WorkloadService) ListStatistics(ctx context.Context, filter ports.WorkloadFilter) ([]*entities.WorkloadStatistic, int64, error) {
	stats, err := s.statRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list workload statistics: %w", err)
	}

	total, err := s.statRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count workload statistics: %w", err)
	}

	return stats, total, nil
}

// GetUserSummary aggregates a user's buckets, optionally bounded to a period
// window.
func (s *WorkloadService) GetUserSummary(ctx context.Context, userID uuid.UUID, from, to *time.Time) (*ports.WorkloadSummary, error) {
	return s.statRepo.SummarizeUser(ctx, userID, from, to)
}
