package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/DevinWangGZ/DevTeamResourceManager/internal/domain/entities"
	"github.com/DevinWangGZ/DevTeamResourceManager/internal/infrastructure/logger"
	"github.com/DevinWangGZ/DevTeamResourceManager/internal/ports"
)

// ScheduleAllocator is the slice of the schedule service the task state
// machine needs.
type ScheduleAllocator interface {
	CalculateSchedule(ctx context.Context, taskID int64, estimatedManDays float64, assigneeID uuid.UUID, startFrom *time.Time) (*entities.TaskSchedule, error)
	PinTaskAndReschedule(ctx context.Context, taskID int64, isPinned bool, actorID uuid.UUID) (*entities.TaskSchedule, error)
}

// WorkloadRecorder accumulates confirmed effort into workload buckets.
type WorkloadRecorder interface {
	UpdateStatisticOnTaskConfirmation(ctx context.Context, task *entities.Task, periodStart, periodEnd *time.Time) (*entities.WorkloadStatistic, error)
}

// TaskNotifier observes task status transitions to raise notifications.
type TaskNotifier interface {
	NotifyTaskStatusChange(ctx context.Context, task *entities.Task, oldStatus, newStatus entities.TaskStatus) error
}

// TaskService drives tasks through the lifecycle
// draft -> published -> claimed/pending_eval -> in_progress -> submitted ->
// confirmed. Precondition violations abort the operation with typed errors;
// schedule allocation and workload aggregation are best-effort side effects
// that never fail the primary transition.
type TaskService struct {
	taskRepo    ports.TaskRepository
	projectRepo ports.ProjectRepository
	userRepo    ports.UserRepository
	scheduler   ScheduleAllocator
	workload    WorkloadRecorder
	notifier    TaskNotifier
	logger      *logger.Logger
}

// NewTaskService creates a new task service. The notifier may be nil.
func NewTaskService(
	taskRepo ports.TaskRepository,
	projectRepo ports.ProjectRepository,
	userRepo ports.UserRepository,
	scheduler ScheduleAllocator,
	workload WorkloadRecorder,
	notifier TaskNotifier,
	logger *logger.Logger,
) *TaskService {
	return &TaskService{
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
		userRepo:    userRepo,
		scheduler:   scheduler,
		workload:    workload,
		notifier:    notifier,
		logger:      logger,
	}
}

// CreateTask creates a new task in draft status.
func (s *TaskService) CreateTask(ctx context.Context, req ports.CreateTaskRequest, actor entities.Actor) (*entities.Task, error) {
	if req.EstimatedManDays < 0 {
		return nil, entities.ErrInvalidEffort
	}

	if req.ProjectID != nil {
		if _, err := s.projectRepo.GetByID(ctx, *req.ProjectID); err != nil {
			return nil, fmt.Errorf("project lookup: %w", err)
		}
	}

	task := &entities.Task{
		Title:            req.Title,
		Description:      req.Description,
		Status:           entities.TaskStatusDraft,
		ProjectID:        req.ProjectID,
		CreatorID:        actor.ID,
		EstimatedManDays: req.EstimatedManDays,
		RequiredSkills:   req.RequiredSkills,
		Deadline:         req.Deadline,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	s.logger.Infow("Task created", "task_id", task.ID, "creator_id", actor.ID)

	return task, nil
}

// GetTask retrieves a task by ID.
func (s *TaskService) GetTask(ctx context.Context, id int64) (*entities.Task, error) {
	return s.taskRepo.GetByID(ctx, id)
}

// ListTasks retrieves tasks with filtering and pagination. Actors holding
// only the developer role see published tasks plus their own.
func (s *TaskService) ListTasks(ctx context.Context, filter ports.TaskFilter, actor entities.Actor) ([]*entities.Task, int64, error) {
	if !actor.HasAnyRole(entities.UserRoleProjectManager, entities.UserRoleDevelopmentLead, entities.UserRoleSystemAdmin) {
		filter.VisibleTo = &actor.ID
	}

	tasks, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}

	total, err := s.taskRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	return tasks, total, nil
}

// UpdateTask merges the given fields into the task. Submitted, confirmed and
// archived tasks are immutable.
func (s *TaskService) UpdateTask(ctx context.Context, id int64, req ports.UpdateTaskRequest, actor entities.Actor) (*entities.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if task.CreatorID != actor.ID && !actor.HasRole(entities.UserRoleSystemAdmin) {
		return nil, fmt.Errorf("%w: only the creator or an admin may update a task", entities.ErrPermissionDenied)
	}

	if !task.IsMutable() {
		return nil, entities.ErrInvalidStatus
	}

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = req.Description
	}
	if req.ProjectID != nil {
		if _, err := s.projectRepo.GetByID(ctx, *req.ProjectID); err != nil {
			return nil, fmt.Errorf("project lookup: %w", err)
		}
		task.ProjectID = req.ProjectID
	}
	if req.EstimatedManDays != nil {
		if *req.EstimatedManDays < 0 {
			return nil, entities.ErrInvalidEffort
		}
		task.EstimatedManDays = *req.EstimatedManDays
	}
	if req.RequiredSkills != nil {
		task.RequiredSkills = req.RequiredSkills
	}
	if req.Deadline != nil {
		task.Deadline = req.Deadline
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}

	return task, nil
}

// PublishTask moves a draft task to published, opening it for claiming.
func (s *TaskService) PublishTask(ctx context.Context, id int64, actor entities.Actor) (*entities.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if task.CreatorID != actor.ID && !actor.HasAnyRole(entities.UserRoleProjectManager, entities.UserRoleSystemAdmin) {
		return nil, fmt.Errorf("%w: only the creator or a project manager may publish a task", entities.ErrPermissionDenied)
	}

	if task.Status != entities.TaskStatusDraft {
		return nil, entities.ErrInvalidStatus
	}

	return s.transition(ctx, task, entities.TaskStatusPublished)
}

// ClaimTask lets the actor claim a published, unassigned task. A schedule is
// allocated best-effort; allocation failure does not undo the claim.
func (s *TaskService) ClaimTask(ctx context.Context, id int64, actor entities.Actor) (*entities.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if task.Status != entities.TaskStatusPublished {
		return nil, entities.ErrInvalidStatus
	}

	if task.AssigneeID != nil {
		return nil, entities.ErrTaskAlreadyClaimed
	}

	task.AssigneeID = &actor.ID
	task, err = s.transition(ctx, task, entities.TaskStatusClaimed)
	if err != nil {
		return nil, err
	}

	s.allocateScheduleBestEffort(ctx, task)

	return task, nil
}

// AssignTask dispatches a published task to a developer, who must then
// evaluate it.
func (s *TaskService) AssignTask(ctx context.Context, id int64, assigneeID uuid.UUID, actor entities.Actor) (*entities.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !actor.HasAnyRole(entities.UserRoleProjectManager, entities.UserRoleSystemAdmin) {
		return nil, fmt.Errorf("%w: only a project manager may assign tasks", entities.ErrPermissionDenied)
	}

	if task.Status != entities.TaskStatusPublished {
		return nil, entities.ErrInvalidStatus
	}

	assignee, err := s.userRepo.GetByID(ctx, assigneeID)
	if err != nil {
		return nil, err
	}
	roles, err := s.userRepo.GetRoles(ctx, assignee.ID)
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}
	assignee.Roles = roles
	if !assignee.HasRole(entities.UserRoleDeveloper) {
		return nil, entities.ErrAssigneeNotDeveloper
	}

	task.AssigneeID = &assigneeID
	return s.transition(ctx, task, entities.TaskStatusPendingEval)
}

// EvaluateTask is the assignee's verdict on a dispatched task: accepting
// claims it (with a best-effort schedule), rejecting returns it to the
// published pool.
func (s *TaskService) EvaluateTask(ctx context.Context, id int64, accept bool, actor entities.Actor) (*entities.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !task.IsAssignedTo(actor.ID) {
		return nil, fmt.Errorf("%w: only the dispatched developer may evaluate the task", entities.ErrPermissionDenied)
	}

	if task.Status != entities.TaskStatusPendingEval {
		return nil, entities.ErrInvalidStatus
	}

	if accept {
		task, err = s.transition(ctx, task, entities.TaskStatusClaimed)
		if err != nil {
			return nil, err
		}
		s.allocateScheduleBestEffort(ctx, task)
		return task, nil
	}

	task.AssigneeID = nil
	return s.transition(ctx, task, entities.TaskStatusPublished)
}

// StartTask moves a claimed task to in-progress.
func (s *TaskService) StartTask(ctx context.Context, id int64, actor entities.Actor) (*entities.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !task.IsAssignedTo(actor.ID) {
		return nil, fmt.Errorf("%w: only the task assignee may start it", entities.ErrPermissionDenied)
	}

	if task.Status != entities.TaskStatusClaimed {
		return nil, entities.ErrInvalidStatus
	}

	return s.transition(ctx, task, entities.TaskStatusInProgress)
}

// SubmitTask records the actual effort and hands the task over for
// confirmation.
func (s *TaskService) SubmitTask(ctx context.Context, id int64, actualManDays float64, actor entities.Actor) (*entities.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !task.IsAssignedTo(actor.ID) {
		return nil, fmt.Errorf("%w: only the task assignee may submit it", entities.ErrPermissionDenied)
	}

	if !task.IsActive() {
		return nil, entities.ErrInvalidStatus
	}

	if actualManDays <= 0 {
		return nil, entities.ErrInvalidEffort
	}

	task.ActualManDays = &actualManDays
	return s.transition(ctx, task, entities.TaskStatusSubmitted)
}

// ConfirmTask is the project manager's sign-off on a submitted task. The
// assignee's workload statistic is updated best-effort; aggregation failure
// does not undo the confirmation.
func (s *TaskService) ConfirmTask(ctx context.Context, id int64, actor entities.Actor) (*entities.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !actor.HasAnyRole(entities.UserRoleProjectManager, entities.UserRoleSystemAdmin) {
		return nil, fmt.Errorf("%w: only a project manager may confirm tasks", entities.ErrPermissionDenied)
	}

	if task.Status != entities.TaskStatusSubmitted {
		return nil, entities.ErrInvalidStatus
	}

	task, err = s.transition(ctx, task, entities.TaskStatusConfirmed)
	if err != nil {
		return nil, err
	}

	if _, err := s.workload.UpdateStatisticOnTaskConfirmation(ctx, task, nil, nil); err != nil {
		s.logger.Warnw("Workload aggregation failed after confirmation",
			"task_id", task.ID, "error", err)
	}

	return task, nil
}

// PinTask toggles the pin flag and re-sequences the assignee's whole active
// queue.
func (s *TaskService) PinTask(ctx context.Context, id int64, isPinned bool, actor entities.Actor) (*entities.Task, error) {
	if _, err := s.scheduler.PinTaskAndReschedule(ctx, id, isPinned, actor.ID); err != nil {
		return nil, err
	}

	return s.taskRepo.GetByID(ctx, id)
}

// DeleteTask removes a draft task. The schedule row, if any, goes with it.
func (s *TaskService) DeleteTask(ctx context.Context, id int64, actor entities.Actor) error {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if task.CreatorID != actor.ID && !actor.HasRole(entities.UserRoleSystemAdmin) {
		return fmt.Errorf("%w: only the creator or an admin may delete a task", entities.ErrPermissionDenied)
	}

	if !task.CanBeDeleted() {
		return entities.ErrInvalidStatus
	}

	if err := s.taskRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	s.logger.Infow("Task deleted", "task_id", id, "actor_id", actor.ID)

	return nil
}

// transition commits a status change and raises the best-effort status
// notification.
func (s *TaskService) transition(ctx context.Context, task *entities.Task, to entities.TaskStatus) (*entities.Task, error) {
	from := task.Status
	task.Status = to

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}

	s.logger.Infow("Task status changed", "task_id", task.ID, "from", from, "to", to)

	if s.notifier != nil {
		if err := s.notifier.NotifyTaskStatusChange(ctx, task, from, to); err != nil {
			s.logger.Warnw("Status change notification failed", "task_id", task.ID, "error", err)
		}
	}

	return task, nil
}

// allocateScheduleBestEffort computes the task's schedule after a claim or an
// accepted evaluation. Failures are logged and swallowed: the claim stands
// and the schedule can be recomputed on demand.
func (s *TaskService) allocateScheduleBestEffort(ctx context.Context, task *entities.Task) {
	if task.AssigneeID == nil {
		return
	}

	if _, err := s.scheduler.CalculateSchedule(ctx, task.ID, task.EstimatedManDays, *task.AssigneeID, nil); err != nil {
		s.logger.Warnw("Schedule allocation failed",
			"task_id", task.ID, "assignee_id", task.AssigneeID, "error", err)
	}
}

// isNotFound reports whether err is one of the entity not-found sentinels.
func isNotFound(err error) bool {
	for _, sentinel := range []error{
		entities.ErrTaskNotFound,
		entities.ErrProjectNotFound,
		entities.ErrUserNotFound,
		entities.ErrScheduleNotFound,
		entities.ErrHolidayNotFound,
		entities.ErrSequenceNotFound,
		entities.ErrMessageNotFound,
		entities.ErrOutputValueNotFound,
		entities.ErrWorkloadNotFound,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
