package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("not found")

// wrapNoRows 将 pgx.ErrNoRows 转换为 ErrNotFound，其余错误原样包装
func wrapNoRows(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}
