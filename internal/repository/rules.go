package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/langchou/surecharge/internal/models"
)

// RulesRepository 基础规则仓库
type RulesRepository struct {
	db *DB
}

// NewRulesRepository 创建规则仓库
func NewRulesRepository(db *DB) *RulesRepository {
	return &RulesRepository{db: db}
}

const selectRules = `
	SELECT low_enabled, low_percent, high_enabled, high_percent, repeat_minutes
	FROM battery_rules WHERE id = 1
`

// Get 获取规则，从未写入时返回默认规则
func (r *RulesRepository) Get(ctx context.Context) (models.BatteryRules, error) {
	return getRules(ctx, r.db.Pool)
}

func getRules(ctx context.Context, q querier) (models.BatteryRules, error) {
	var rules models.BatteryRules
	err := q.QueryRow(ctx, selectRules).Scan(
		&rules.LowLevelEnabled,
		&rules.LowLevelPercentage,
		&rules.HighLevelEnabled,
		&rules.HighLevelPercentage,
		&rules.RepeatIntervalMinutes,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.DefaultRules(), nil
	}
	if err != nil {
		return models.BatteryRules{}, fmt.Errorf("get rules: %w", err)
	}
	return rules, nil
}

// Set 整体替换规则（单条语句，不存在部分写入）
func (r *RulesRepository) Set(ctx context.Context, rules models.BatteryRules) error {
	query := `
		INSERT INTO battery_rules (id, low_enabled, low_percent, high_enabled, high_percent, repeat_minutes, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, NOW())
		ON CONFLICT (id) DO UPDATE SET
			low_enabled = EXCLUDED.low_enabled,
			low_percent = EXCLUDED.low_percent,
			high_enabled = EXCLUDED.high_enabled,
			high_percent = EXCLUDED.high_percent,
			repeat_minutes = EXCLUDED.repeat_minutes,
			updated_at = NOW()
	`
	_, err := r.db.Pool.Exec(ctx, query,
		rules.LowLevelEnabled,
		rules.LowLevelPercentage,
		rules.HighLevelEnabled,
		rules.HighLevelPercentage,
		rules.RepeatIntervalMinutes,
	)
	if err != nil {
		return fmt.Errorf("set rules: %w", err)
	}
	return nil
}
