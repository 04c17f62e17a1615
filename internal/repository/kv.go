package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// KVRepository 小型持久状态仓库，值以 JSONB 保存
type KVRepository struct {
	db *DB
}

// NewKVRepository 创建键值仓库
func NewKVRepository(db *DB) *KVRepository {
	return &KVRepository{db: db}
}

// Load 读取 key 并解码到 dst，不存在时返回 false
func (r *KVRepository) Load(ctx context.Context, key string, dst any) (bool, error) {
	var data []byte
	err := r.db.Pool.QueryRow(ctx, `SELECT value FROM kv_state WHERE key = $1`, key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Save 整体写入 key 的值
func (r *KVRepository) Save(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	query := `
		INSERT INTO kv_state (key, value, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`
	if _, err := r.db.Pool.Exec(ctx, query, key, data); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Delete 删除 key
func (r *KVRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.Pool.Exec(ctx, `DELETE FROM kv_state WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
