package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/DevinWangGZ/DevTeamResourceManager/internal/domain/entities"
	"github.com/DevinWangGZ/DevTeamResourceManager/internal/ports"
)

const taskColumns = `id, title, description, status, project_id, creator_id, assignee_id,
	estimated_man_days, actual_man_days, required_skills, deadline, is_pinned, created_at, updated_at`

// TaskRepositoryImpl implements the TaskRepository interface
type TaskRepositoryImpl struct {
	db *sqlx.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *sqlx.DB) ports.TaskRepository {
	return &TaskRepositoryImpl{db: db}
}

func (r *TaskRepositoryImpl) Create(ctx context.Context, task *entities.Task) error {
	query := `
		INSERT INTO tasks (title, description, status, project_id, creator_id, assignee_id,
			estimated_man_days, actual_man_days, required_skills, deadline, is_pinned)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		task.Title, task.Description, task.Status, task.ProjectID, task.CreatorID,
		task.AssigneeID, task.EstimatedManDays, task.ActualManDays,
		task.RequiredSkills, task.Deadline, task.IsPinned,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}

	return nil
}

func (r *TaskRepositoryImpl) GetByID(ctx context.Context, id int64) (*entities.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	var task entities.Task
	err := r.db.GetContext(ctx, &task, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task by id: %w", err)
	}

	return &task, nil
}

func (r *TaskRepositoryImpl) Update(ctx context.Context, task *entities.Task) error {
	query := `
		UPDATE tasks
		SET title = $2, description = $3, status = $4, project_id = $5, assignee_id = $6,
			estimated_man_days = $7, actual_man_days = $8, required_skills = $9,
			deadline = $10, is_pinned = $11, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		task.ID, task.Title, task.Description, task.Status, task.ProjectID,
		task.AssigneeID, task.EstimatedManDays, task.ActualManDays,
		task.RequiredSkills, task.Deadline, task.IsPinned,
	).Scan(&task.UpdatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return entities.ErrTaskNotFound
		}
		return fmt.Errorf("update task: %w", err)
	}

	return nil
}

func (r *TaskRepositoryImpl) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entities.ErrTaskNotFound
	}

	return nil
}

func (r *TaskRepositoryImpl) List(ctx context.Context, filter ports.TaskFilter) ([]*entities.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	query, args := applyTaskFilter(query, filter, true)

	var tasks []*entities.Task
	if err := r.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	return tasks, nil
}

func (r *TaskRepositoryImpl) Count(ctx context.Context, filter ports.TaskFilter) (int64, error) {
	query := `SELECT COUNT(*) FROM tasks`
	query, args := applyTaskFilter(query, filter, false)

	var count int64
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}

	return count, nil
}

func applyTaskFilter(query string, filter ports.TaskFilter, paginate bool) (string, []interface{}) {
	var args []interface{}
	where := ` WHERE 1=1`

	if filter.Status != nil {
		args = append(args, *filter.Status)
		where += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	if filter.ProjectID != nil {
		args = append(args, *filter.ProjectID)
		where += fmt.Sprintf(` AND project_id = $%d`, len(args))
	}
	if filter.CreatorID != nil {
		args = append(args, *filter.CreatorID)
		where += fmt.Sprintf(` AND creator_id = $%d`, len(args))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		where += fmt.Sprintf(` AND assignee_id = $%d`, len(args))
	}
	if filter.Keyword != nil {
		args = append(args, "%"+*filter.Keyword+"%")
		where += fmt.Sprintf(` AND (title ILIKE $%d OR description ILIKE $%d)`, len(args), len(args))
	}
	if filter.VisibleTo != nil {
		args = append(args, *filter.VisibleTo)
		where += fmt.Sprintf(
			` AND (status = 'published' OR creator_id = $%d OR assignee_id = $%d)`,
			len(args), len(args))
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

func (r *TaskRepositoryImpl) GetByProject(ctx context.Context, projectID int64) ([]*entities.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE project_id = $1 ORDER BY created_at`

	var tasks []*entities.Task
	if err := r.db.SelectContext(ctx, &tasks, query, projectID); err != nil {
		return nil, fmt.Errorf("get tasks by project: %w", err)
	}

	return tasks, nil
}

func (r *TaskRepositoryImpl) GetActiveByAssignee(ctx context.Context, assigneeID uuid.UUID, excludeTaskID int64) ([]*entities.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE assignee_id = $1
			AND status IN ('claimed', 'in_progress')
			AND id <> $2
		ORDER BY created_at`

	var tasks []*entities.Task
	if err := r.db.SelectContext(ctx, &tasks, query, assigneeID, excludeTaskID); err != nil {
		return nil, fmt.Errorf("get active tasks by assignee: %w", err)
	}

	return tasks, nil
}
