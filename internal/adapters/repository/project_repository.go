package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/DevinWangGZ/DevTeamResourceManager/internal/domain/entities"
	"github.com/DevinWangGZ/DevTeamResourceManager/internal/ports"
)

// ProjectRepositoryImpl implements the ProjectRepository interface
type ProjectRepositoryImpl struct {
	db *sqlx.DB
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *sqlx.DB) ports.ProjectRepository {
	return &ProjectRepositoryImpl{db: db}
}

func (r *ProjectRepositoryImpl) Create(ctx context.Context, project *entities.Project) error {
	query := `
		INSERT INTO projects (name, description, estimated_output_value, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		project.Name, project.Description, project.EstimatedOutputValue, project.CreatedBy,
	).Scan(&project.ID, &project.CreatedAt, &project.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}

	return nil
}

func (r *ProjectRepositoryImpl) GetByID(ctx context.Context, id int64) (*entities.Project, error) {
	query := `
		SELECT id, name, description, estimated_output_value, created_by, created_at, updated_at
		FROM projects
		WHERE id = $1`

	var project entities.Project
	err := r.db.GetContext(ctx, &project, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrProjectNotFound
		}
		return nil, fmt.Errorf("get project by id: %w", err)
	}

	return &project, nil
}

func (r *ProjectRepositoryImpl) GetByName(ctx context.Context, name string) (*entities.Project, error) {
	query := `
		SELECT id, name, description, estimated_output_value, created_by, created_at, updated_at
		FROM projects
		WHERE name = $1`

	var project entities.Project
	err := r.db.GetContext(ctx, &project, query, name)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrProjectNotFound
		}
		return nil, fmt.Errorf("get project by name: %w", err)
	}

	return &project, nil
}

func (r *ProjectRepositoryImpl) Update(ctx context.Context, project *entities.Project) error {
	query := `
		UPDATE projects
		SET name = $2, description = $3, estimated_output_value = $4, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		project.ID, project.Name, project.Description, project.EstimatedOutputValue,
	).Scan(&project.UpdatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return entities.ErrProjectNotFound
		}
		return fmt.Errorf("update project: %w", err)
	}

	return nil
}

func (r *ProjectRepositoryImpl) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entities.ErrProjectNotFound
	}

	return nil
}

func (r *ProjectRepositoryImpl) List(ctx context.Context, filter ports.ProjectFilter) ([]*entities.Project, error) {
	query := `
		SELECT id, name, description, estimated_output_value, created_by, created_at, updated_at
		FROM projects`
	query, args := applyProjectFilter(query, filter, true)

	var projects []*entities.Project
	if err := r.db.SelectContext(ctx, &projects, query, args...); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	return projects, nil
}

func (r *ProjectRepositoryImpl) Count(ctx context.Context, filter ports.ProjectFilter) (int64, error) {
	query := `SELECT COUNT(*) FROM projects`
	query, args := applyProjectFilter(query, filter, false)

	var count int64
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count projects: %w", err)
	}

	return count, nil
}

func applyProjectFilter(query string, filter ports.ProjectFilter, paginate bool) (string, []interface{}) {
	var args []interface{}
	where := ` WHERE 1=1`

	if filter.CreatedBy != nil {
		args = append(args, *filter.CreatedBy)
		where += fmt.Sprintf(` AND created_by = $%d`, len(args))
	}
	if filter.Search != nil {
		args = append(args, "%"+*filter.Search+"%")
		where += fmt.Sprintf(` AND (name ILIKE $%d OR description ILIKE $%d)`, len(args), len(args))
	}

	query += where

	if paginate {
		query += ` ORDER BY created_at DESC`
		limit := filter.Limit
		if limit <= 0 {
			limit = 20
		}
		args = append(args, limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
		args = append(args, filter.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	return query, args
}
