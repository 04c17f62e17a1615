package battery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/langchou/surecharge/internal/models"
)

// ErrNoBattery 数据源目录下没有可用的电池
var ErrNoBattery = errors.New("battery not available")

// Source 当前电池快照
type Source interface {
	Read(ctx context.Context) (models.BatterySnapshot, error)
}

// SysfsSource 读取 Linux power_supply 目录（capacity 与 status）
type SysfsSource struct {
	dir string
	now func() time.Time
}

// NewSysfsSource 创建 sysfs 数据源，dir 形如 /sys/class/power_supply/BAT0
func NewSysfsSource(dir string, now func() time.Time) *SysfsSource {
	if now == nil {
		now = time.Now
	}
	return &SysfsSource{dir: dir, now: now}
}

// Read 读取电量百分比与充电状态。Charging 与 Full 视为充电中。
func (s *SysfsSource) Read(ctx context.Context) (models.BatterySnapshot, error) {
	if err := ctx.Err(); err != nil {
		return models.BatterySnapshot{}, err
	}

	capacity, err := s.readAttr("capacity")
	if err != nil {
		return models.BatterySnapshot{}, err
	}
	percent, err := strconv.Atoi(capacity)
	if err != nil {
		return models.BatterySnapshot{}, fmt.Errorf("parse capacity %q: %w", capacity, err)
	}
	if percent < 0 || percent > 100 {
		return models.BatterySnapshot{}, fmt.Errorf("capacity %d out of range", percent)
	}

	status, err := s.readAttr("status")
	if err != nil {
		return models.BatterySnapshot{}, err
	}

	return models.BatterySnapshot{
		Percent:    percent,
		IsCharging: isChargingStatus(status),
		ObservedAt: s.now(),
	}, nil
}

func (s *SysfsSource) readAttr(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("read %s: %w", name, ErrNoBattery)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return strings.TrimSpace(string(data)), nil
}

func isChargingStatus(status string) bool {
	switch strings.ToLower(status) {
	case "charging", "full":
		return true
	default:
		return false
	}
}
