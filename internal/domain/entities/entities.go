package entities

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrTaskNotFound        = errors.New("task not found")
	ErrProjectNotFound     = errors.New("project not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrScheduleNotFound    = errors.New("schedule not found")
	ErrHolidayNotFound     = errors.New("holiday not found")
	ErrSequenceNotFound    = errors.New("user sequence not found")
	ErrMessageNotFound     = errors.New("message not found")
	ErrOutputValueNotFound = errors.New("project output value not found")
	ErrWorkloadNotFound    = errors.New("workload statistic not found")

	ErrPermissionDenied = errors.New("permission denied")

	// ErrValidation is the base of all validation errors; concrete validation
	// failures wrap it so callers can match the whole family with errors.Is.
	ErrValidation = errors.New("validation failed")

	ErrInvalidStatus        = fmt.Errorf("%w: operation not allowed in current task status", ErrValidation)
	ErrTaskAlreadyClaimed   = fmt.Errorf("%w: task is already claimed", ErrValidation)
	ErrAssigneeNotDeveloper = fmt.Errorf("%w: tasks can only be assigned to developers", ErrValidation)
	ErrMissingAssignee      = fmt.Errorf("%w: task has no assignee", ErrValidation)
	ErrMissingActualEffort  = fmt.Errorf("%w: task has no actual man-days recorded", ErrValidation)
	ErrDuplicateLevel       = fmt.Errorf("%w: sequence level already exists for this user", ErrValidation)
	ErrDuplicateHoliday     = fmt.Errorf("%w: holiday already exists for this date", ErrValidation)
	ErrInvalidEffort        = fmt.Errorf("%w: man-days must not be negative", ErrValidation)
)

// Enums and types
type UserRole string

const (
	UserRoleDeveloper       UserRole = "developer"
	UserRoleProjectManager  UserRole = "project_manager"
	UserRoleDevelopmentLead UserRole = "development_lead"
	UserRoleSystemAdmin     UserRole = "system_admin"
)

type TaskStatus string

const (
	TaskStatusDraft       TaskStatus = "draft"
	TaskStatusPublished   TaskStatus = "published"
	TaskStatusPendingEval TaskStatus = "pending_eval"
	TaskStatusClaimed     TaskStatus = "claimed"
	TaskStatusInProgress  TaskStatus = "in_progress"
	TaskStatusSubmitted   TaskStatus = "submitted"
	TaskStatusConfirmed   TaskStatus = "confirmed"
	TaskStatusArchived    TaskStatus = "archived"
)

type MessageType string

const (
	MessageTypeTaskStatusChange MessageType = "task_status_change"
	MessageTypeSystem           MessageType = "system"
)

// User represents a user in the system. Roles is a set: a user may be both a
// developer and a development lead. Authorization goes through HasRole and
// HasAnyRole only.
type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Username     string     `json:"username" db:"username"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	FullName     *string    `json:"full_name" db:"full_name"`
	StatusTag    *string    `json:"status_tag" db:"status_tag"`
	Roles        []UserRole `json:"roles"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// Actor identifies the authenticated caller of a service operation.
type Actor struct {
	ID    uuid.UUID
	Roles []UserRole
}

// Project represents a project. Tasks reference projects weakly: deleting a
// project nulls task.project_id rather than deleting the tasks.
type Project struct {
	ID                   int64      `json:"id" db:"id"`
	Name                 string     `json:"name" db:"name"`
	Description          *string    `json:"description" db:"description"`
	EstimatedOutputValue *float64   `json:"estimated_output_value" db:"estimated_output_value"`
	CreatedBy            *uuid.UUID `json:"created_by" db:"created_by"`
	CreatedAt            time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at" db:"updated_at"`
}

// Task represents a unit of work moving through the lifecycle
// draft -> published -> claimed/pending_eval -> in_progress -> submitted ->
// confirmed -> archived.
type Task struct {
	ID               int64      `json:"id" db:"id"`
	Title            string     `json:"title" db:"title"`
	Description      *string    `json:"description" db:"description"`
	Status           TaskStatus `json:"status" db:"status"`
	ProjectID        *int64     `json:"project_id" db:"project_id"`
	CreatorID        uuid.UUID  `json:"creator_id" db:"creator_id"`
	AssigneeID       *uuid.UUID `json:"assignee_id" db:"assignee_id"`
	EstimatedManDays float64    `json:"estimated_man_days" db:"estimated_man_days"`
	ActualManDays    *float64   `json:"actual_man_days" db:"actual_man_days"`
	RequiredSkills   *string    `json:"required_skills" db:"required_skills"`
	Deadline         *time.Time `json:"deadline" db:"deadline"`
	IsPinned         bool       `json:"is_pinned" db:"is_pinned"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

// TaskSchedule is the 1:1 work-day date range reserved for a task on its
// assignee's timeline. Both bounds are inclusive; only workdays between them
// count toward the task's effort.
type TaskSchedule struct {
	ID        int64     `json:"id" db:"id"`
	TaskID    int64     `json:"task_id" db:"task_id"`
	StartDate time.Time `json:"start_date" db:"start_date"`
	EndDate   time.Time `json:"end_date" db:"end_date"`
	IsPinned  bool      `json:"is_pinned" db:"is_pinned"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Holiday marks a date as non-working. Any persisted row makes the date a
// non-workday regardless of weekday; there is no makeup-workday concept.
// IsWeekend is informational only, weekend-ness is derived from the date.
type Holiday struct {
	ID          int64     `json:"id" db:"id"`
	Date        time.Time `json:"date" db:"date"`
	Description *string   `json:"description" db:"description"`
	IsWeekend   bool      `json:"is_weekend" db:"is_weekend"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// WorkloadStatistic aggregates confirmed effort per (user, project, period)
// bucket. ProjectID nil buckets project-less tasks separately; they are never
// merged with project buckets.
type WorkloadStatistic struct {
	ID           int64     `json:"id" db:"id"`
	UserID       uuid.UUID `json:"user_id" db:"user_id"`
	ProjectID    *int64    `json:"project_id" db:"project_id"`
	TotalManDays float64   `json:"total_man_days" db:"total_man_days"`
	PeriodStart  time.Time `json:"period_start" db:"period_start"`
	PeriodEnd    time.Time `json:"period_end" db:"period_end"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// ProjectOutputValue is the 1:1 derived monetary value of a project's tasks.
// It is recomputed wholesale, never merged.
type ProjectOutputValue struct {
	ID                   int64     `json:"id" db:"id"`
	ProjectID            int64     `json:"project_id" db:"project_id"`
	TaskOutputValue      float64   `json:"task_output_value" db:"task_output_value"`
	AllocatedOutputValue float64   `json:"allocated_output_value" db:"allocated_output_value"`
	CalculatedAt         time.Time `json:"calculated_at" db:"calculated_at"`
}

// UserSequence is a user's seniority level with its daily rate. A user may
// hold several levels; the output-value calculator uses the most recently
// created one.
type UserSequence struct {
	ID        int64     `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Level     string    `json:"level" db:"level"`
	UnitPrice float64   `json:"unit_price" db:"unit_price"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Message is a notification raised from a task status transition.
type Message struct {
	ID            int64       `json:"id" db:"id"`
	UserID        uuid.UUID   `json:"user_id" db:"user_id"`
	Title         string      `json:"title" db:"title"`
	Content       *string     `json:"content" db:"content"`
	Type          MessageType `json:"type" db:"type"`
	RelatedTaskID *int64      `json:"related_task_id" db:"related_task_id"`
	IsRead        bool        `json:"is_read" db:"is_read"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
}

// Business logic methods for User / Actor

func (u *User) HasRole(role UserRole) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (u *User) HasAnyRole(roles ...UserRole) bool {
	for _, r := range roles {
		if u.HasRole(r) {
			return true
		}
	}
	return false
}

func (a Actor) HasRole(role UserRole) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (a Actor) HasAnyRole(roles ...UserRole) bool {
	for _, r := range roles {
		if a.HasRole(r) {
			return true
		}
	}
	return false
}

// Business logic methods for Task

// IsActive reports whether the task occupies a slot on its assignee's
// schedule queue.
func (t *Task) IsActive() bool {
	return t.Status == TaskStatusClaimed || t.Status == TaskStatusInProgress
}

// IsMutable reports whether task fields may still be edited.
func (t *Task) IsMutable() bool {
	switch t.Status {
	case TaskStatusSubmitted, TaskStatusConfirmed, TaskStatusArchived:
		return false
	}
	return true
}

func (t *Task) CanBeDeleted() bool {
	return t.Status == TaskStatusDraft
}

func (t *Task) IsAssignedTo(userID uuid.UUID) bool {
	return t.AssigneeID != nil && *t.AssigneeID == userID
}

// Utility methods

func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleDeveloper, UserRoleProjectManager, UserRoleDevelopmentLead, UserRoleSystemAdmin:
		return true
	default:
		return false
	}
}

func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusDraft, TaskStatusPublished, TaskStatusPendingEval, TaskStatusClaimed,
		TaskStatusInProgress, TaskStatusSubmitted, TaskStatusConfirmed, TaskStatusArchived:
		return true
	default:
		return false
	}
}
