package ports

import (
	"time"

	"github.com/google/uuid"

	"github.com/DevinWangGZ/DevTeamResourceManager/internal/domain/entities"
)

// Request/Response Types

// Auth related types
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	ExpiresIn   int64          `json:"expires_in"`
	User        *entities.User `json:"user"`
}

// User related types
type CreateUserRequest struct {
	Username string              `json:"username" validate:"required,min=3,max=50"`
	Email    string              `json:"email" validate:"required,email"`
	Password string              `json:"password" validate:"required,min=8"`
	FullName *string             `json:"full_name" validate:"omitempty,max=100"`
	Roles    []entities.UserRole `json:"roles" validate:"required,min=1"`
}

type UpdateUserRequest struct {
	Email     *string `json:"email" validate:"omitempty,email"`
	FullName  *string `json:"full_name" validate:"omitempty,max=100"`
	StatusTag *string `json:"status_tag" validate:"omitempty,max=50"`
	IsActive  *bool   `json:"is_active"`
}

// User sequence related types
type CreateSequenceRequest struct {
	Level     string  `json:"level" validate:"required,max=50"`
	UnitPrice float64 `json:"unit_price" validate:"required,gt=0"`
}

type UpdateSequenceRequest struct {
	Level     *string  `json:"level" validate:"omitempty,max=50"`
	UnitPrice *float64 `json:"unit_price" validate:"omitempty,gt=0"`
}

// Project related types
type CreateProjectRequest struct {
	Name                 string   `json:"name" validate:"required,max=100"`
	Description          *string  `json:"description" validate:"omitempty,max=2000"`
	EstimatedOutputValue *float64 `json:"estimated_output_value" validate:"omitempty,gte=0"`
}

type UpdateProjectRequest struct {
	Name                 *string  `json:"name" validate:"omitempty,max=100"`
	Description          *string  `json:"description" validate:"omitempty,max=2000"`
	EstimatedOutputValue *float64 `json:"estimated_output_value" validate:"omitempty,gte=0"`
}

// Task related types
type CreateTaskRequest struct {
	Title            string     `json:"title" validate:"required,max=200"`
	Description      *string    `json:"description" validate:"omitempty,max=5000"`
	ProjectID        *int64     `json:"project_id"`
	EstimatedManDays float64    `json:"estimated_man_days" validate:"gte=0"`
	RequiredSkills   *string    `json:"required_skills" validate:"omitempty,max=500"`
	Deadline         *time.Time `json:"deadline"`
}

type UpdateTaskRequest struct {
	Title            *string    `json:"title" validate:"omitempty,max=200"`
	Description      *string    `json:"description" validate:"omitempty,max=5000"`
	ProjectID        *int64     `json:"project_id"`
	EstimatedManDays *float64   `json:"estimated_man_days" validate:"omitempty,gte=0"`
	RequiredSkills   *string    `json:"required_skills" validate:"omitempty,max=500"`
	Deadline         *time.Time `json:"deadline"`
}

type AssignTaskRequest struct {
	AssigneeID uuid.UUID `json:"assignee_id" validate:"required"`
}

type EvaluateTaskRequest struct {
	Accept bool `json:"accept"`
}

type SubmitTaskRequest struct {
	ActualManDays float64 `json:"actual_man_days" validate:"gt=0"`
}

type PinTaskRequest struct {
	IsPinned bool `json:"is_pinned"`
}

// Holiday related types
type CreateHolidayRequest struct {
	Date        time.Time `json:"date" validate:"required"`
	Description *string   `json:"description" validate:"omitempty,max=200"`
}

// Response types for pagination and common structures
type PaginatedResponse[T any] struct {
	Data   []T   `json:"data"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
