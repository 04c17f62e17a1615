package repository

import (
	"context"
	"fmt"

	"github.com/langchou/surecharge/internal/models"
)

// SessionRepository 充电记录仓库
type SessionRepository struct {
	db *DB
}

// NewSessionRepository 创建充电记录仓库
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Append 追加一条充电记录并回填 ID
func (r *SessionRepository) Append(ctx context.Context, cs *models.ChargeSession) error {
	query := `
		INSERT INTO charge_sessions (start_time_ms, end_time_ms, start_level, end_level)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.db.Pool.QueryRow(ctx, query,
		cs.StartTimeMillis,
		cs.EndTimeMillis,
		cs.StartLevel,
		cs.EndLevel,
	).Scan(&cs.ID)
	if err != nil {
		return fmt.Errorf("insert charge session: %w", err)
	}
	return nil
}

// SessionsSince 返回开始时间不早于 since 的记录，按开始时间降序
func (r *SessionRepository) SessionsSince(ctx context.Context, sinceMillis int64) ([]models.ChargeSession, error) {
	query := `
		SELECT id, start_time_ms, end_time_ms, start_level, end_level
		FROM charge_sessions WHERE start_time_ms >= $1 ORDER BY start_time_ms DESC
	`
	rows, err := r.db.Pool.Query(ctx, query, sinceMillis)
	if err != nil {
		return nil, fmt.Errorf("list charge sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.ChargeSession
	for rows.Next() {
		var cs models.ChargeSession
		if err := rows.Scan(
			&cs.ID,
			&cs.StartTimeMillis,
			&cs.EndTimeMillis,
			&cs.StartLevel,
			&cs.EndLevel,
		); err != nil {
			return nil, fmt.Errorf("scan charge session: %w", err)
		}
		sessions = append(sessions, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate charge sessions: %w", err)
	}
	return sessions, nil
}

// DeleteBefore 删除开始时间早于 before 的记录，返回删除数量
func (r *SessionRepository) DeleteBefore(ctx context.Context, beforeMillis int64) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM charge_sessions WHERE start_time_ms < $1`, beforeMillis)
	if err != nil {
		return 0, fmt.Errorf("prune charge sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
