package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/langchou/surecharge/internal/models"
)

// ScheduleRepository 定时规则仓库
type ScheduleRepository struct {
	db *DB
}

// NewScheduleRepository 创建定时规则仓库
func NewScheduleRepository(db *DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

const scheduleColumns = `id, name, enabled, days_mask, start_minutes, end_minutes, use_profile_id,
	override_low_enabled, override_low_percent, override_high_enabled, override_high_percent,
	override_repeat_minutes, priority`

func scanSchedule(row pgx.Row, s *models.Schedule) error {
	return row.Scan(
		&s.ID,
		&s.Name,
		&s.Enabled,
		&s.DaysMask,
		&s.StartMinutes,
		&s.EndMinutes,
		&s.UseProfileID,
		&s.OverrideLowEnabled,
		&s.OverrideLowPercent,
		&s.OverrideHighEnabled,
		&s.OverrideHighPercent,
		&s.OverrideRepeatMinutes,
		&s.Priority,
	)
}

// List 按优先级降序、ID 升序返回
func (r *ScheduleRepository) List(ctx context.Context) ([]models.Schedule, error) {
	return listSchedules(ctx, r.db.Pool)
}

func listSchedules(ctx context.Context, q querier) ([]models.Schedule, error) {
	rows, err := q.Query(ctx, `SELECT `+scheduleColumns+` FROM schedules ORDER BY priority DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	var schedules []models.Schedule
	for rows.Next() {
		var s models.Schedule
		if err := scanSchedule(rows, &s); err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		schedules = append(schedules, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schedules: %w", err)
	}
	return schedules, nil
}

// GetByID 获取定时规则
func (r *ScheduleRepository) GetByID(ctx context.Context, id int64) (*models.Schedule, error) {
	s := &models.Schedule{}
	row := r.db.Pool.QueryRow(ctx, `SELECT `+scheduleColumns+` FROM schedules WHERE id = $1`, id)
	if err := scanSchedule(row, s); err != nil {
		return nil, wrapNoRows(fmt.Sprintf("get schedule %d", id), err)
	}
	return s, nil
}

// Upsert 新建或更新定时规则。
// 新建时优先级取当前最大值 +1（没有记录时为 1），更新时保留已存储的优先级。
func (r *ScheduleRepository) Upsert(ctx context.Context, s *models.Schedule) error {
	if strings.TrimSpace(s.Name) == "" {
		s.Name = s.AutoName()
	}
	if s.ID == 0 {
		return r.insert(ctx, s)
	}
	return r.update(ctx, s)
}

func (r *ScheduleRepository) insert(ctx context.Context, s *models.Schedule) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin insert schedule: %w", err)
	}
	defer tx.Rollback(ctx)

	// 串行化并发新建，保证优先级为最大值 +1 且不重复
	if _, err := tx.Exec(ctx, `LOCK TABLE schedules IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return fmt.Errorf("lock schedules: %w", err)
	}

	query := `
		INSERT INTO schedules (name, enabled, days_mask, start_minutes, end_minutes, use_profile_id,
			override_low_enabled, override_low_percent, override_high_enabled, override_high_percent,
			override_repeat_minutes, priority)
		SELECT $1::varchar, $2::boolean, $3::int, $4::int, $5::int, $6::bigint,
			$7::boolean, $8::int, $9::boolean, $10::int, $11::int, COALESCE(MAX(priority), 0) + 1
		FROM schedules
		RETURNING id, priority
	`
	err = tx.QueryRow(ctx, query,
		s.Name,
		s.Enabled,
		s.DaysMask,
		s.StartMinutes,
		s.EndMinutes,
		s.UseProfileID,
		s.OverrideLowEnabled,
		s.OverrideLowPercent,
		s.OverrideHighEnabled,
		s.OverrideHighPercent,
		s.OverrideRepeatMinutes,
	).Scan(&s.ID, &s.Priority)
	if err != nil {
		return fmt.Errorf("insert schedule: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit insert schedule: %w", err)
	}
	return nil
}

func (r *ScheduleRepository) update(ctx context.Context, s *models.Schedule) error {
	query := `
		UPDATE schedules SET
			name = $2,
			enabled = $3,
			days_mask = $4,
			start_minutes = $5,
			end_minutes = $6,
			use_profile_id = $7,
			override_low_enabled = $8,
			override_low_percent = $9,
			override_high_enabled = $10,
			override_high_percent = $11,
			override_repeat_minutes = $12
		WHERE id = $1
		RETURNING priority
	`
	err := r.db.Pool.QueryRow(ctx, query,
		s.ID,
		s.Name,
		s.Enabled,
		s.DaysMask,
		s.StartMinutes,
		s.EndMinutes,
		s.UseProfileID,
		s.OverrideLowEnabled,
		s.OverrideLowPercent,
		s.OverrideHighEnabled,
		s.OverrideHighPercent,
		s.OverrideRepeatMinutes,
	).Scan(&s.Priority)
	if err != nil {
		return wrapNoRows(fmt.Sprintf("update schedule %d", s.ID), err)
	}
	return nil
}

// Delete 删除定时规则
func (r *ScheduleRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete schedule %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete schedule %d: %w", id, ErrNotFound)
	}
	return nil
}

// SetEnabled 启用或停用
func (r *ScheduleRepository) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	tag, err := r.db.Pool.Exec(ctx, `UPDATE schedules SET enabled = $2 WHERE id = $1`, id, enabled)
	if err != nil {
		return fmt.Errorf("set schedule %d enabled: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set schedule %d enabled: %w", id, ErrNotFound)
	}
	return nil
}
