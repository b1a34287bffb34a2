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

// OutputValueService derives a project's monetary output value from its
// tasks and the assignees' daily rates. The figure is recomputed from
// scratch on every call, so repeated recalculation is idempotent.
type OutputValueService struct {
	taskRepo    ports.TaskRepository
	projectRepo ports.ProjectRepository
	seqRepo     ports.UserSequenceRepository
	valueRepo   ports.OutputValueRepository
	logger      *logger.Logger
	now         func() time.Time
}

// NewOutputValueService creates a new output value service
func NewOutputValueService(
	taskRepo ports.TaskRepository,
	projectRepo ports.ProjectRepository,
	seqRepo ports.UserSequenceRepository,
	valueRepo ports.OutputValueRepository,
	logger *logger.Logger,
) *OutputValueService {
	return &OutputValueService{
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
		seqRepo:     seqRepo,
		valueRepo:   valueRepo,
		logger:      logger,
		now:         time.Now,
	}
}

// UpdateProjectOutputValue recomputes and stores the project's output value.
//
// Every task contributes its effort priced at the assignee's daily rate.
// Confirmed tasks count their actual effort toward both the task total and
// the allocated total. Submitted tasks count actual effort, falling back to
// the estimate, toward the task total only. All other tasks count their
// estimate toward the task total only.
func (s *OutputValueService) UpdateProjectOutputValue(ctx context.Context, projectID int64) (*entities.ProjectOutputValue, error) {
	if _, err := s.projectRepo.GetByID(ctx, projectID); err != nil {
		return nil, err
	}

	tasks, err := s.taskRepo.GetByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("load project tasks: %w", err)
	}

	var taskTotal, allocatedTotal float64
	for _, task := range tasks {
		price, err := s.unitPrice(ctx, task.AssigneeID)
		if err != nil {
			return nil, err
		}

		switch task.Status {
		case entities.TaskStatusConfirmed:
			if task.ActualManDays == nil {
				continue
			}
			v := *task.ActualManDays * price
			taskTotal += v
			allocatedTotal += v
		case entities.TaskStatusSubmitted:
			effort := task.EstimatedManDays
			if task.ActualManDays != nil {
				effort = *task.ActualManDays
			}
			taskTotal += effort * price
		default:
			taskTotal += task.EstimatedManDays * price
		}
	}

	value := &entities.ProjectOutputValue{
		ProjectID:            projectID,
		TaskOutputValue:      taskTotal,
		AllocatedOutputValue: allocatedTotal,
		CalculatedAt:         s.now(),
	}
	if err := s.valueRepo.Upsert(ctx, value); err != nil {
		return nil, fmt.Errorf("upsert output value: %w", err)
	}

	s.logger.Infow("Project output value recalculated",
		"project_id", projectID,
		"task_output_value", taskTotal,
		"allocated_output_value", allocatedTotal,
		"task_count", len(tasks),
	)

	return value, nil
}

// unitPrice resolves the daily rate for an assignee from their most recently
// created sequence. Unassigned tasks and users without a sequence price at
// zero.
func (s *OutputValueService) unitPrice(ctx context.Context, assigneeID *uuid.UUID) (float64, error) {
	if assigneeID == nil {
		return 0, nil
	}

	seq, err := s.seqRepo.GetLatestByUser(ctx, *assigneeID)
	if err != nil {
		if isNotFound(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("load user sequence: %w", err)
	}

	return seq.UnitPrice, nil
}

// GetProjectOutputValue returns the stored output value for a project.
func (s *OutputValueService) GetProjectOutputValue(ctx context.Context, projectID int64) (*entities.ProjectOutputValue, error) {
	return s.valueRepo.GetByProjectID(ctx, projectID)
}
