package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB 数据库连接池封装
type DB struct {
	Pool *pgxpool.Pool
}

// New 创建数据库连接
func New(ctx context.Context, databaseURL string) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	// 单设备服务，连接数不需要太多
	config.MaxConns = 5
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close 关闭连接池
func (db *DB) Close() {
	db.Pool.Close()
}

// Migrate 执行数据库迁移
func (db *DB) Migrate(ctx context.Context) error {
	migrations := []string{
		migrationCreateBatteryRules,
		migrationCreateAutoSettings,
		migrationCreateBatteryProfiles,
		migrationCreateSchedules,
		migrationCreateChargeSessions,
		migrationCreateKVState,
	}

	for i, m := range migrations {
		if _, err := db.Pool.Exec(ctx, m); err != nil {
			return fmt.Errorf("execute migration %d: %w", i, err)
		}
	}

	return nil
}

// 数据库迁移 SQL

// 当前生效的基础规则，只有一行
const migrationCreateBatteryRules = `
CREATE TABLE IF NOT EXISTS battery_rules (
    id SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
    low_enabled BOOLEAN NOT NULL,
    low_percent INT NOT NULL,
    high_enabled BOOLEAN NOT NULL,
    high_percent INT NOT NULL,
    repeat_minutes INT,
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
`

const migrationCreateAutoSettings = `
CREATE TABLE IF NOT EXISTS auto_settings (
    id SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
    enabled BOOLEAN NOT NULL DEFAULT false,
    baseline_low INT,
    baseline_high INT,
    baseline_repeat_minutes INT,
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
`

const migrationCreateBatteryProfiles = `
CREATE TABLE IF NOT EXISTS battery_profiles (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    low_enabled BOOLEAN NOT NULL,
    low_percent INT NOT NULL,
    high_enabled BOOLEAN NOT NULL,
    high_percent INT NOT NULL,
    repeat_minutes INT,
    built_in BOOLEAN NOT NULL DEFAULT false,
    order_index INT NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_battery_profiles_order ON battery_profiles(order_index, id);
`

// use_profile_id 不设外键：被引用的档案删除后定时规则保留，解析时回退到基础规则
const migrationCreateSchedules = `
CREATE TABLE IF NOT EXISTS schedules (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    enabled BOOLEAN NOT NULL DEFAULT true,
    days_mask INT NOT NULL,
    start_minutes INT NOT NULL,
    end_minutes INT NOT NULL,
    use_profile_id BIGINT,
    override_low_enabled BOOLEAN,
    override_low_percent INT,
    override_high_enabled BOOLEAN,
    override_high_percent INT,
    override_repeat_minutes INT,
    priority INT NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_schedules_priority ON schedules(priority DESC, id);
`

const migrationCreateChargeSessions = `
CREATE TABLE IF NOT EXISTS charge_sessions (
    id BIGSERIAL PRIMARY KEY,
    start_time_ms BIGINT NOT NULL,
    end_time_ms BIGINT NOT NULL,
    start_level INT NOT NULL,
    end_level INT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_charge_sessions_start_time ON charge_sessions(start_time_ms);
`

// 小型持久状态：会话追踪状态、免打扰、反馈计数、历史设置
const migrationCreateKVState = `
CREATE TABLE IF NOT EXISTS kv_state (
    key VARCHAR(64) PRIMARY KEY,
    value JSONB NOT NULL,
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
`
