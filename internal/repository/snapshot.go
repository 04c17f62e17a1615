package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/langchou/surecharge/internal/models"
)

// querier 连接池与事务共有的查询方法
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Snapshot 同一时刻的基础规则、定时规则与档案
type Snapshot struct {
	Rules     models.BatteryRules
	Schedules []models.Schedule
	Profiles  []models.BatteryProfile
}

// SnapshotRepository 在只读可重复读事务中读取生效规则所需的全部数据
type SnapshotRepository struct {
	db *DB
}

// NewSnapshotRepository 创建快照仓库
func NewSnapshotRepository(db *DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Snapshot 读取一致性快照
func (r *SnapshotRepository) Snapshot(ctx context.Context) (*Snapshot, error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("begin snapshot: %w", err)
	}
	defer tx.Rollback(ctx)

	rules, err := getRules(ctx, tx)
	if err != nil {
		return nil, err
	}
	schedules, err := listSchedules(ctx, tx)
	if err != nil {
		return nil, err
	}
	profiles, err := listProfiles(ctx, tx)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit snapshot: %w", err)
	}
	return &Snapshot{Rules: rules, Schedules: schedules, Profiles: profiles}, nil
}
