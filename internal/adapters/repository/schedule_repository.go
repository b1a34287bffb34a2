package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/DevinWangGZ/DevTeamResourceManager/internal/domain/entities"
	"github.com/DevinWangGZ/DevTeamResourceManager/internal/ports"
)

// ScheduleRepositoryImpl implements the ScheduleRepository interface
type ScheduleRepositoryImpl struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository
func NewScheduleRepository(db *sqlx.DB) ports.ScheduleRepository {
	return &ScheduleRepositoryImpl{db: db}
}

func (r *ScheduleRepositoryImpl) GetByTaskID(ctx context.Context, taskID int64) (*entities.TaskSchedule, error) {
	query := `
		SELECT id, task_id, start_date, end_date, is_pinned, created_at, updated_at
		FROM task_schedules
		WHERE task_id = $1`

	var schedule entities.TaskSchedule
	err := r.db.GetContext(ctx, &schedule, query, taskID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrScheduleNotFound
		}
		return nil, fmt.Errorf("get schedule by task id: %w", err)
	}

	return &schedule, nil
}

func (r *ScheduleRepositoryImpl) Upsert(ctx context.Context, schedule *entities.TaskSchedule) error {
	query := `
		INSERT INTO task_schedules (task_id, start_date, end_date, is_pinned)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (task_id) DO UPDATE
		SET start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id, is_pinned, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		schedule.TaskID, schedule.StartDate, schedule.EndDate, schedule.IsPinned,
	).Scan(&schedule.ID, &schedule.IsPinned, &schedule.CreatedAt, &schedule.UpdatedAt)

	if err != nil {
		return fmt.Errorf("upsert schedule: %w", err)
	}

	return nil
}

func (r *ScheduleRepositoryImpl) SetPinned(ctx context.Context, taskID int64, isPinned bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE task_schedules SET is_pinned = $2, updated_at = CURRENT_TIMESTAMP WHERE task_id = $1`,
		taskID, isPinned)
	if err != nil {
		return fmt.Errorf("set schedule pin: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entities.ErrScheduleNotFound
	}

	return nil
}

func (r *ScheduleRepositoryImpl) DeleteByTaskID(ctx context.Context, taskID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM task_schedules WHERE task_id = $1`, taskID); err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	return nil
}

func (r *ScheduleRepositoryImpl) ListByAssignee(ctx context.Context, assigneeID uuid.UUID, from, to *time.Time) ([]*entities.TaskSchedule, error) {
	query := `
		SELECT s.id, s.task_id, s.start_date, s.end_date, s.is_pinned, s.created_at, s.updated_at
		FROM task_schedules s
		JOIN tasks t ON t.id = s.task_id
		WHERE t.assignee_id = $1`
	args := []interface{}{assigneeID}

	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(` AND s.end_date >= $%d`, len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(` AND s.start_date <= $%d`, len(args))
	}

	query += ` ORDER BY s.start_date`

	var schedules []*entities.TaskSchedule
	if err := r.db.SelectContext(ctx, &schedules, query, args...); err != nil {
		return nil, fmt.Errorf("list schedules by assignee: %w", err)
	}

	return schedules, nil
}
