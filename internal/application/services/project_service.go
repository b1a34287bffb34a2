package services

import (
	"context"
	"fmt"

	"github.com/DevinWangGZ/DevTeamResourceManager/internal/domain/entities"
	"github.com/DevinWangGZ/DevTeamResourceManager/internal/infrastructure/logger"
	"github.com/DevinWangGZ/DevTeamResourceManager/internal/ports"
)

// ProjectService handles project CRUD and exposes the derived output value.
type ProjectService struct {
	projectRepo ports.ProjectRepository
	taskRepo    ports.TaskRepository
	outputValue *OutputValueService
	logger      *logger.Logger
}

// NewProjectService creates a new project service
func NewProjectService(projectRepo ports.ProjectRepository, taskRepo ports.TaskRepository, outputValue *OutputValueService, logger *logger.Logger) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		taskRepo:    taskRepo,
		outputValue: outputValue,
		logger:      logger,
	}
}

// CreateProject creates a new project. Management only.
func (s *ProjectService) CreateProject(ctx context.Context, req ports.CreateProjectRequest, actor entities.Actor) (*entities.Project, error) {
	if !actor.HasAnyRole(entities.UserRoleProjectManager, entities.UserRoleSystemAdmin) {
		return nil, fmt.Errorf("%w: only management may create projects", entities.ErrPermissionDenied)
	}

	if existing, err := s.projectRepo.GetByName(ctx, req.Name); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: project name %q is taken", entities.ErrValidation, req.Name)
	}

	project := &entities.Project{
		Name:                 req.Name,
		Description:          req.Description,
		EstimatedOutputValue: req.EstimatedOutputValue,
		CreatedBy:            &actor.ID,
	}

	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	s.logger.Infow("Project created", "project_id", project.ID, "name", project.Name)

	return project, nil
}

// GetProject retrieves a project by ID.
func (s *ProjectService) GetProject(ctx context.Context, id int64) (*entities.Project, error) {
	return s.projectRepo.GetByID(ctx, id)
}

// ListProjects retrieves projects with filtering and pagination.
func (s *ProjectService) ListProjects(ctx context.Context, filter ports.ProjectFilter) ([]*entities.Project, int64, error) {
	projects, err := s.projectRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list projects: %w", err)
	}

	total, err := s.projectRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count projects: %w", err)
	}

	return projects, total, nil
}

// UpdateProject merges the given fields into the project.
func (s *ProjectService) UpdateProject(ctx context.Context, id int64, req ports.UpdateProjectRequest, actor entities.Actor) (*entities.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	isOwner := project.CreatedBy != nil && *project.CreatedBy == actor.ID
	if !isOwner && !actor.HasRole(entities.UserRoleSystemAdmin) {
		return nil, fmt.Errorf("%w: only the project owner or an admin may update it", entities.ErrPermissionDenied)
	}

	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.Description != nil {
		project.Description = req.Description
	}
	if req.EstimatedOutputValue != nil {
		project.EstimatedOutputValue = req.EstimatedOutputValue
	}

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}

	return project, nil
}

// DeleteProject removes a project. Tasks that referenced it survive with
// their project link cleared.
func (s *ProjectService) DeleteProject(ctx context.Context, id int64, actor entities.Actor) error {
	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	isOwner := project.CreatedBy != nil && *project.CreatedBy == actor.ID
	if !isOwner && !actor.HasRole(entities.UserRoleSystemAdmin) {
		return fmt.Errorf("%w: only the project owner or an admin may delete it", entities.ErrPermissionDenied)
	}

	if err := s.projectRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}

	s.logger.Infow("Project deleted", "project_id", id, "actor_id", actor.ID)
	return nil
}

// GetProjectTasks returns all tasks attached to a project.
func (s *ProjectService) GetProjectTasks(ctx context.Context, id int64) ([]*entities.Task, error) {
	if _, err := s.projectRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.taskRepo.GetByProject(ctx, id)
}

// GetOutputValue returns the stored output value, computing it on first
// access.
func (s *ProjectService) GetOutputValue(ctx context.Context, id int64) (*entities.ProjectOutputValue, error) {
	value, err := s.outputValue.GetProjectOutputValue(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return s.outputValue.UpdateProjectOutputValue(ctx, id)
		}
		return nil, err
	}
	return value, nil
}

// RecalculateOutputValue forces a fresh output value computation.
func (s *ProjectService) RecalculateOutputValue(ctx context.Context, id int64, actor entities.Actor) (*entities.ProjectOutputValue, error) {
	if !actor.HasAnyRole(entities.UserRoleProjectManager, entities.UserRoleDevelopmentLead, entities.UserRoleSystemAdmin) {
		return nil, fmt.Errorf("%w: only management may recalculate output values", entities.ErrPermissionDenied)
	}
	return s.outputValue.UpdateProjectOutputValue(ctx, id)
}
