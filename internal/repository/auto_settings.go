package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/langchou/surecharge/internal/models"
)

// AutoSettingsRepository 自动调优设置仓库
type AutoSettingsRepository struct {
	db *DB
}

// NewAutoSettingsRepository 创建自动调优设置仓库
func NewAutoSettingsRepository(db *DB) *AutoSettingsRepository {
	return &AutoSettingsRepository{db: db}
}

// Get 获取设置，未写入时为关闭且无基线
func (r *AutoSettingsRepository) Get(ctx context.Context) (models.AutoSettings, error) {
	query := `
		SELECT enabled, baseline_low, baseline_high, baseline_repeat_minutes
		FROM auto_settings WHERE id = 1
	`
	var s models.AutoSettings
	err := r.db.Pool.QueryRow(ctx, query).Scan(
		&s.Enabled,
		&s.BaselineLow,
		&s.BaselineHigh,
		&s.BaselineRepeatMinutes,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.AutoSettings{}, nil
	}
	if err != nil {
		return models.AutoSettings{}, fmt.Errorf("get auto settings: %w", err)
	}
	return s, nil
}

// SetEnabled 开关自动模式
func (r *AutoSettingsRepository) SetEnabled(ctx context.Context, enabled bool) error {
	query := `
		INSERT INTO auto_settings (id, enabled, updated_at) VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE SET enabled = EXCLUDED.enabled, updated_at = NOW()
	`
	if _, err := r.db.Pool.Exec(ctx, query, enabled); err != nil {
		return fmt.Errorf("set auto enabled: %w", err)
	}
	return nil
}

// UpdateBaseline 用规则更新基线，规则未设置重复间隔时保留原有重复基线
func (r *AutoSettingsRepository) UpdateBaseline(ctx context.Context, rules models.BatteryRules) error {
	query := `
		INSERT INTO auto_settings (id, baseline_low, baseline_high, baseline_repeat_minutes, updated_at)
		VALUES (1, $1, $2, $3, NOW())
		ON CONFLICT (id) DO UPDATE SET
			baseline_low = EXCLUDED.baseline_low,
			baseline_high = EXCLUDED.baseline_high,
			baseline_repeat_minutes = COALESCE(EXCLUDED.baseline_repeat_minutes, auto_settings.baseline_repeat_minutes),
			updated_at = NOW()
	`
	_, err := r.db.Pool.Exec(ctx, query,
		rules.LowLevelPercentage,
		rules.HighLevelPercentage,
		rules.RepeatIntervalMinutes,
	)
	if err != nil {
		return fmt.Errorf("update auto baseline: %w", err)
	}
	return nil
}
