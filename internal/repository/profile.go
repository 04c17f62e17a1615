package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/langchou/surecharge/internal/models"
)

// ProfileRepository 电量档案仓库
type ProfileRepository struct {
	db *DB
}

// NewProfileRepository 创建档案仓库
func NewProfileRepository(db *DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileColumns = `id, name, low_enabled, low_percent, high_enabled, high_percent, repeat_minutes, built_in, order_index, created_at`

func scanProfile(row pgx.Row, p *models.BatteryProfile) error {
	return row.Scan(
		&p.ID,
		&p.Name,
		&p.LowLevelEnabled,
		&p.LowLevelPercentage,
		&p.HighLevelEnabled,
		&p.HighLevelPercentage,
		&p.RepeatIntervalMinutes,
		&p.IsBuiltIn,
		&p.OrderIndex,
		&p.CreatedAt,
	)
}

// List 按排序序号、ID 升序返回全部档案
func (r *ProfileRepository) List(ctx context.Context) ([]models.BatteryProfile, error) {
	return listProfiles(ctx, r.db.Pool)
}

func listProfiles(ctx context.Context, q querier) ([]models.BatteryProfile, error) {
	rows, err := q.Query(ctx, `SELECT `+profileColumns+` FROM battery_profiles ORDER BY order_index ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.BatteryProfile
	for rows.Next() {
		var p models.BatteryProfile
		if err := scanProfile(rows, &p); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return profiles, nil
}

// GetByID 获取档案
func (r *ProfileRepository) GetByID(ctx context.Context, id int64) (*models.BatteryProfile, error) {
	p := &models.BatteryProfile{}
	row := r.db.Pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM battery_profiles WHERE id = $1`, id)
	if err := scanProfile(row, p); err != nil {
		return nil, wrapNoRows(fmt.Sprintf("get profile %d", id), err)
	}
	return p, nil
}

// Insert 新建档案并回填 ID 与创建时间
func (r *ProfileRepository) Insert(ctx context.Context, p *models.BatteryProfile) error {
	query := `
		INSERT INTO battery_profiles (name, low_enabled, low_percent, high_enabled, high_percent, repeat_minutes, built_in, order_index)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`
	err := r.db.Pool.QueryRow(ctx, query,
		p.Name,
		p.LowLevelEnabled,
		p.LowLevelPercentage,
		p.HighLevelEnabled,
		p.HighLevelPercentage,
		p.RepeatIntervalMinutes,
		p.IsBuiltIn,
		p.OrderIndex,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

// Update 更新档案的名称与阈值，内置标记与排序序号保持不变
func (r *ProfileRepository) Update(ctx context.Context, p *models.BatteryProfile) error {
	query := `
		UPDATE battery_profiles SET
			name = $2,
			low_enabled = $3,
			low_percent = $4,
			high_enabled = $5,
			high_percent = $6,
			repeat_minutes = $7
		WHERE id = $1
		RETURNING built_in, order_index, created_at
	`
	err := r.db.Pool.QueryRow(ctx, query,
		p.ID,
		p.Name,
		p.LowLevelEnabled,
		p.LowLevelPercentage,
		p.HighLevelEnabled,
		p.HighLevelPercentage,
		p.RepeatIntervalMinutes,
	).Scan(&p.IsBuiltIn, &p.OrderIndex, &p.CreatedAt)
	if err != nil {
		return wrapNoRows(fmt.Sprintf("update profile %d", p.ID), err)
	}
	return nil
}

// Delete 删除档案，引用它的定时规则保留
func (r *ProfileRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM battery_profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete profile %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete profile %d: %w", id, ErrNotFound)
	}
	return nil
}

// Count 档案数量
func (r *ProfileRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM battery_profiles`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count profiles: %w", err)
	}
	return count, nil
}

// MaxOrderIndex 最大排序序号，没有档案时为 -1
func (r *ProfileRepository) MaxOrderIndex(ctx context.Context) (int, error) {
	var maxOrder int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COALESCE(MAX(order_index), -1) FROM battery_profiles`).Scan(&maxOrder); err != nil {
		return 0, fmt.Errorf("max profile order: %w", err)
	}
	return maxOrder, nil
}
