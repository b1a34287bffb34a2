package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/DevinWangGZ/DevTeamResourceManager/internal/domain/entities"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
	GetByUsername(ctx context.Context, username string) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	Update(ctx context.Context, user *entities.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter UserFilter) ([]*entities.User, error)
	Count(ctx context.Context, filter UserFilter) (int64, error)
	GetRoles(ctx context.Context, userID uuid.UUID) ([]entities.UserRole, error)
	GrantRole(ctx context.Context, userID uuid.UUID, role entities.UserRole) error
	RevokeRole(ctx context.Context, userID uuid.UUID, role entities.UserRole) error
}

// UserSequenceRepository defines the interface for user sequence (level/rate)
// data operations
type UserSequenceRepository interface {
	Create(ctx context.Context, seq *entities.UserSequence) error
	GetByID(ctx context.Context, id int64) (*entities.UserSequence, error)
	GetByUserAndLevel(ctx context.Context, userID uuid.UUID, level string) (*entities.UserSequence, error)
	// GetLatestByUser returns the user's most recently created sequence, or
	// entities.ErrSequenceNotFound when the user has none.
	GetLatestByUser(ctx context.Context, userID uuid.UUID) (*entities.UserSequence, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.UserSequence, error)
	Update(ctx context.Context, seq *entities.UserSequence) error
	Delete(ctx context.Context, id int64) error
}

// ProjectRepository defines the interface for project data operations
type ProjectRepository interface {
	Create(ctx context.Context, project *entities.Project) error
	GetByID(ctx context.Context, id int64) (*entities.Project, error)
	GetByName(ctx context.Context, name string) (*entities.Project, error)
	Update(ctx context.Context, project *entities.Project) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter ProjectFilter) ([]*entities.Project, error)
	Count(ctx context.Context, filter ProjectFilter) (int64, error)
}

// TaskRepository defines the interface for task data operations
type TaskRepository interface {
	Create(ctx context.Context, task *entities.Task) error
	GetByID(ctx context.Context, id int64) (*entities.Task, error)
	Update(ctx context.Context, task *entities.Task) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter TaskFilter) ([]*entities.Task, error)
	Count(ctx context.Context, filter TaskFilter) (int64, error)
	GetByProject(ctx context.Context, projectID int64) ([]*entities.Task, error)
	// GetActiveByAssignee returns the assignee's claimed and in-progress
	// tasks ordered by claim time (created_at ascending). excludeTaskID > 0
	// drops that task from the result.
	GetActiveByAssignee(ctx context.Context, assigneeID uuid.UUID, excludeTaskID int64) ([]*entities.Task, error)
}

// ScheduleRepository defines the interface for task schedule data operations
type ScheduleRepository interface {
	GetByTaskID(ctx context.Context, taskID int64) (*entities.TaskSchedule, error)
	// Upsert creates the task's schedule row or updates its date range in
	// place. The pin flag is only written when the row is created.
	Upsert(ctx context.Context, schedule *entities.TaskSchedule) error
	SetPinned(ctx context.Context, taskID int64, isPinned bool) error
	DeleteByTaskID(ctx context.Context, taskID int64) error
	ListByAssignee(ctx context.Context, assigneeID uuid.UUID, from, to *time.Time) ([]*entities.TaskSchedule, error)
}

// HolidayRepository defines the interface for holiday data operations
type HolidayRepository interface {
	Create(ctx context.Context, holiday *entities.Holiday) error
	GetByDate(ctx context.Context, date time.Time) (*entities.Holiday, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]*entities.Holiday, error)
	Delete(ctx context.Context, id int64) error
}

// WorkloadStatisticRepository defines the interface for workload bucket data
// operations
type WorkloadStatisticRepository interface {
	Create(ctx context.Context, stat *entities.WorkloadStatistic) error
	// Find locates the bucket for the exact (user, project, period) tuple.
	// projectID nil matches only rows whose project_id is NULL.
	Find(ctx context.Context, userID uuid.UUID, projectID *int64, periodStart, periodEnd time.Time) (*entities.WorkloadStatistic, error)
	Update(ctx context.Context, stat *entities.WorkloadStatistic) error
	List(ctx context.Context, filter WorkloadFilter) ([]*entities.WorkloadStatistic, error)
	Count(ctx context.Context, filter WorkloadFilter) (int64, error)
	SummarizeUser(ctx context.Context, userID uuid.UUID, from, to *time.Time) (*WorkloadSummary, error)
}

// OutputValueRepository defines the interface for project output value data
// operations
type OutputValueRepository interface {
	GetByProjectID(ctx context.Context, projectID int64) (*entities.ProjectOutputValue, error)
	// Upsert fully replaces the project's output value row.
	Upsert(ctx context.Context, value *entities.ProjectOutputValue) error
}

// MessageRepository defines the interface for notification message data
// operations
type MessageRepository interface {
	Create(ctx context.Context, message *entities.Message) error
	GetByID(ctx context.Context, id int64) (*entities.Message, error)
	ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*entities.Message, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, id int64, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
}

// Filter types for repository queries

type UserFilter struct {
	Role     *entities.UserRole
	IsActive *bool
	Search   *string
	Limit    int
	Offset   int
}

type ProjectFilter struct {
	CreatedBy *uuid.UUID
	Search    *string
	Limit     int
	Offset    int
}

type TaskFilter struct {
	Status     *entities.TaskStatus
	ProjectID  *int64
	CreatorID  *uuid.UUID
	AssigneeID *uuid.UUID
	Keyword    *string
	// VisibleTo restricts the result to tasks a developer may see: published
	// tasks plus tasks they created or claimed.
	VisibleTo *uuid.UUID
	Limit     int
	Offset    int
}

type WorkloadFilter struct {
	UserID      *uuid.UUID
	ProjectID   *int64
	PeriodStart *time.Time
	PeriodEnd   *time.Time
	Limit       int
	Offset      int
}

// WorkloadSummary is an aggregate over a user's workload buckets.
type WorkloadSummary struct {
	UserID       uuid.UUID `json:"user_id" db:"user_id"`
	TotalManDays float64   `json:"total_man_days" db:"total_man_days"`
	ProjectCount int64     `json:"project_count" db:"project_count"`
}
