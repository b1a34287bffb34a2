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

// HolidayRepositoryImpl implements the HolidayRepository interface
type HolidayRepositoryImpl struct {
	db *sqlx.DB
}

// NewHolidayRepository creates a new holiday repository
func NewHolidayRepository(db *sqlx.DB) ports.HolidayRepository {
	return &HolidayRepositoryImpl{db: db}
}

func (r *HolidayRepositoryImpl) Create(ctx context.Context, holiday *entities.Holiday) error {
	query := `
		INSERT INTO holidays (date, description, is_weekend)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		holiday.Date, holiday.Description, holiday.IsWeekend,
	).Scan(&holiday.ID, &holiday.CreatedAt)

	if err != nil {
		return fmt.Errorf("create holiday: %w", err)
	}

	return nil
}

func (r *HolidayRepositoryImpl) GetByDate(ctx context.Context, date time.Time) (*entities.Holiday, error) {
	query := `
		SELECT id, date, description, is_weekend, created_at
		FROM holidays
		WHERE date = $1`

	var holiday entities.Holiday
	err := r.db.GetContext(ctx, &holiday, query, date)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrHolidayNotFound
		}
		return nil, fmt.Errorf("get holiday by date: %w", err)
	}

	return &holiday, nil
}

func (r *HolidayRepositoryImpl) ListBetween(ctx context.Context, from, to time.Time) ([]*entities.Holiday, error) {
	query := `
		SELECT id, date, description, is_weekend, created_at
		FROM holidays
		WHERE date BETWEEN $1 AND $2
		ORDER BY date`

	var holidays []*entities.Holiday
	if err := r.db.SelectContext(ctx, &holidays, query, from, to); err != nil {
		return nil, fmt.Errorf("list holidays: %w", err)
	}

	return holidays, nil
}

func (r *HolidayRepositoryImpl) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM holidays WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete holiday: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entities.ErrHolidayNotFound
	}

	return nil
}

// WorkloadStatisticRepositoryImpl implements the WorkloadStatisticRepository
// interface
type WorkloadStatisticRepositoryImpl struct {
	db *sqlx.DB
}

// NewWorkloadStatisticRepository creates a new workload statistic repository
func NewWorkloadStatisticRepository(db *sqlx.DB) ports.WorkloadStatisticRepository {
	return &WorkloadStatisticRepositoryImpl{db: db}
}

func (r *WorkloadStatisticRepositoryImpl) Create(ctx context.Context, stat *entities.WorkloadStatistic) error {
	query := `
		INSERT INTO workload_statistics (user_id, project_id, total_man_days, period_start, period_end)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		stat.UserID, stat.ProjectID, stat.TotalManDays, stat.PeriodStart, stat.PeriodEnd,
	).Scan(&stat.ID, &stat.CreatedAt, &stat.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create workload statistic: %w", err)
	}

	return nil
}

func (r *WorkloadStatisticRepositoryImpl) Find(ctx context.Context, userID uuid.UUID, projectID *int64, periodStart, periodEnd time.Time) (*entities.WorkloadStatistic, error) {
	query := `
		SELECT id, user_id, project_id, total_man_days, period_start, period_end, created_at, updated_at
		FROM workload_statistics
		WHERE user_id = $1
			AND project_id IS NOT DISTINCT FROM $2
			AND period_start = $3
			AND period_end = $4`

	var stat entities.WorkloadStatistic
	err := r.db.GetContext(ctx, &stat, query, userID, projectID, periodStart, periodEnd)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrWorkloadNotFound
		}
		return nil, fmt.Errorf("find workload statistic: %w", err)
	}

	return &stat, nil
}

func (r *WorkloadStatisticRepositoryImpl) Update(ctx context.Context, stat *entities.WorkloadStatistic) error {
	query := `
		UPDATE workload_statistics
		SET total_man_days = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query, stat.ID, stat.TotalManDays).Scan(&stat.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update workload statistic: %w", err)
	}

	return nil
}

func (r *WorkloadStatisticRepositoryImpl) List(ctx context.Context, filter ports.WorkloadFilter) ([]*entities.WorkloadStatistic, error) {
	query := `
		SELECT id, user_id, project_id, total_man_days, period_start, period_end, created_at, updated_at
		FROM workload_statistics`
	query, args := applyWorkloadFilter(query, filter, true)

	var stats []*entities.WorkloadStatistic
	if err := r.db.SelectContext(ctx, &stats, query, args...); err != nil {
		return nil, fmt.Errorf("list workload statistics: %w", err)
	}

	return stats, nil
}

func (r *WorkloadStatisticRepositoryImpl) Count(ctx context.Context, filter ports.WorkloadFilter) (int64, error) {
	query := `SELECT COUNT(*) FROM workload_statistics`
	query, args := applyWorkloadFilter(query, filter, false)

	var count int64
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count workload statistics: %w", err)
	}

	return count, nil
}

func applyWorkloadFilter(query string, filter ports.WorkloadFilter, paginate bool) (string, []interface{}) {
	var args []interface{}
	where := ` WHERE 1=1`

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		where += fmt.Sprintf(` AND user_id = $%d`, len(args))
	}
	if filter.ProjectID != nil {
		args = append(args, *filter.ProjectID)
		where += fmt.Sprintf(` AND project_id = $%d`, len(args))
	}
	if filter.PeriodStart != nil {
		args = append(args, *filter.PeriodStart)
		where += fmt.Sprintf(` AND period_end >= $%d`, len(args))
	}
	if filter.PeriodEnd != nil {
		args = append(args, *filter.PeriodEnd)
		where += fmt.Sprintf(` AND period_start <= $%d`, len(args))
	}

	query += where

	if paginate {
		query += ` ORDER BY period_start DESC, user_id`
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

func (r *WorkloadStatisticRepositoryImpl) SummarizeUser(ctx context.Context, userID uuid.UUID, from, to *time.Time) (*ports.WorkloadSummary, error) {
	query := `
		SELECT $1::uuid AS user_id,
			COALESCE(SUM(total_man_days), 0) AS total_man_days,
			COUNT(DISTINCT project_id) AS project_count
		FROM workload_statistics
		WHERE user_id = $1`
	args := []interface{}{userID}

	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(` AND period_end >= $%d`, len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(` AND period_start <= $%d`, len(args))
	}

	var summary ports.WorkloadSummary
	if err := r.db.GetContext(ctx, &summary, query, args...); err != nil {
		return nil, fmt.Errorf("summarize user workload: %w", err)
	}

	return &summary, nil
}

// OutputValueRepositoryImpl implements the OutputValueRepository interface
type OutputValueRepositoryImpl struct {
	db *sqlx.DB
}

// NewOutputValueRepository creates a new output value repository
func NewOutputValueRepository(db *sqlx.DB) ports.OutputValueRepository {
	return &OutputValueRepositoryImpl{db: db}
}

func (r *OutputValueRepositoryImpl) GetByProjectID(ctx context.Context, projectID int64) (*entities.ProjectOutputValue, error) {
	query := `
		SELECT id, project_id, task_output_value, allocated_output_value, calculated_at
		FROM project_output_values
		WHERE project_id = $1`

	var value entities.ProjectOutputValue
	err := r.db.GetContext(ctx, &value, query, projectID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrOutputValueNotFound
		}
		return nil, fmt.Errorf("get output value by project: %w", err)
	}

	return &value, nil
}

func (r *OutputValueRepositoryImpl) Upsert(ctx context.Context, value *entities.ProjectOutputValue) error {
	query := `
		INSERT INTO project_output_values (project_id, task_output_value, allocated_output_value, calculated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (project_id) DO UPDATE
		SET task_output_value = EXCLUDED.task_output_value,
			allocated_output_value = EXCLUDED.allocated_output_value,
			calculated_at = EXCLUDED.calculated_at
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		value.ProjectID, value.TaskOutputValue, value.AllocatedOutputValue, value.CalculatedAt,
	).Scan(&value.ID)

	if err != nil {
		return fmt.Errorf("upsert output value: %w", err)
	}

	return nil
}

// UserSequenceRepositoryImpl implements the UserSequenceRepository interface
type UserSequenceRepositoryImpl struct {
	db *sqlx.DB
}

// NewUserSequenceRepository creates a new user sequence repository
func NewUserSequenceRepository(db *sqlx.DB) ports.UserSequenceRepository {
	return &UserSequenceRepositoryImpl{db: db}
}

func (r *UserSequenceRepositoryImpl) Create(ctx context.Context, seq *entities.UserSequence) error {
	query := `
		INSERT INTO user_sequences (user_id, level, unit_price)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		seq.UserID, seq.Level, seq.UnitPrice,
	).Scan(&seq.ID, &seq.CreatedAt, &seq.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create user sequence: %w", err)
	}

	return nil
}

func (r *UserSequenceRepositoryImpl) GetByID(ctx context.Context, id int64) (*entities.UserSequence, error) {
	query := `
		SELECT id, user_id, level, unit_price, created_at, updated_at
		FROM user_sequences
		WHERE id = $1`

	var seq entities.UserSequence
	err := r.db.GetContext(ctx, &seq, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrSequenceNotFound
		}
		return nil, fmt.Errorf("get user sequence by id: %w", err)
	}

	return &seq, nil
}

func (r *UserSequenceRepositoryImpl) GetByUserAndLevel(ctx context.Context, userID uuid.UUID, level string) (*entities.UserSequence, error) {
	query := `
		SELECT id, user_id, level, unit_price, created_at, updated_at
		FROM user_sequences
		WHERE user_id = $1 AND level = $2`

	var seq entities.UserSequence
	err := r.db.GetContext(ctx, &seq, query, userID, level)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrSequenceNotFound
		}
		return nil, fmt.Errorf("get user sequence by level: %w", err)
	}

	return &seq, nil
}

func (r *UserSequenceRepositoryImpl) GetLatestByUser(ctx context.Context, userID uuid.UUID) (*entities.UserSequence, error) {
	query := `
		SELECT id, user_id, level, unit_price, created_at, updated_at
		FROM user_sequences
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	var seq entities.UserSequence
	err := r.db.GetContext(ctx, &seq, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrSequenceNotFound
		}
		return nil, fmt.Errorf("get latest user sequence: %w", err)
	}

	return &seq, nil
}

func (r *UserSequenceRepositoryImpl) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.UserSequence, error) {
	query := `
		SELECT id, user_id, level, unit_price, created_at, updated_at
		FROM user_sequences
		WHERE user_id = $1
		ORDER BY created_at DESC`

	var seqs []*entities.UserSequence
	if err := r.db.SelectContext(ctx, &seqs, query, userID); err != nil {
		return nil, fmt.Errorf("list user sequences: %w", err)
	}

	return seqs, nil
}

func (r *UserSequenceRepositoryImpl) Update(ctx context.Context, seq *entities.UserSequence) error {
	query := `
		UPDATE user_sequences
		SET level = $2, unit_price = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query, seq.ID, seq.Level, seq.UnitPrice).Scan(&seq.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return entities.ErrSequenceNotFound
		}
		return fmt.Errorf("update user sequence: %w", err)
	}

	return nil
}

func (r *UserSequenceRepositoryImpl) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM user_sequences WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user sequence: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entities.ErrSequenceNotFound
	}

	return nil
}

// MessageRepositoryImpl implements the MessageRepository interface
type MessageRepositoryImpl struct {
	db *sqlx.DB
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *sqlx.DB) ports.MessageRepository {
	return &MessageRepositoryImpl{db: db}
}

func (r *MessageRepositoryImpl) Create(ctx context.Context, message *entities.Message) error {
	query := `
		INSERT INTO messages (user_id, title, content, type, related_task_id, is_read)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		message.UserID, message.Title, message.Content, message.Type,
		message.RelatedTaskID, message.IsRead,
	).Scan(&message.ID, &message.CreatedAt)

	if err != nil {
		return fmt.Errorf("create message: %w", err)
	}

	return nil
}

func (r *MessageRepositoryImpl) GetByID(ctx context.Context, id int64) (*entities.Message, error) {
	query := `
		SELECT id, user_id, title, content, type, related_task_id, is_read, created_at
		FROM messages
		WHERE id = $1`

	var message entities.Message
	err := r.db.GetContext(ctx, &message, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrMessageNotFound
		}
		return nil, fmt.Errorf("get message by id: %w", err)
	}

	return &message, nil
}

func (r *MessageRepositoryImpl) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*entities.Message, error) {
	query := `
		SELECT id, user_id, title, content, type, related_task_id, is_read, created_at
		FROM messages
		WHERE user_id = $1`
	args := []interface{}{userID}

	if unreadOnly {
		query += ` AND is_read = FALSE`
	}

	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, len(args))
	args = append(args, offset)
	query += fmt.Sprintf(` OFFSET $%d`, len(args))

	var messages []*entities.Message
	if err := r.db.SelectContext(ctx, &messages, query, args...); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	return messages, nil
}

func (r *MessageRepositoryImpl) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM messages WHERE user_id = $1 AND is_read = FALSE`, userID)
	if err != nil {
		return 0, fmt.Errorf("count unread messages: %w", err)
	}

	return count, nil
}

func (r *MessageRepositoryImpl) MarkRead(ctx context.Context, id int64, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE messages SET is_read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("mark message read: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entities.ErrMessageNotFound
	}

	return nil
}

func (r *MessageRepositoryImpl) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE messages SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`, userID); err != nil {
		return fmt.Errorf("mark all messages read: %w", err)
	}
	return nil
}
