package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mingze-w/DevLens/internal/schema"
	"gorm.io/gorm"
)

// EventRepository 原始事件仓储
type EventRepository struct {
	db *gorm.DB
}

// NewEventRepository 创建事件仓储
func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create 创建单个事件
func (r *EventRepository) Create(ctx context.Context, event *schema.RawEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// BatchInsert 批量插入事件（事务包裹）
func (r *EventRepository) BatchInsert(ctx context.Context, events []schema.RawEvent) error {
	if len(events) == 0 {
		return nil
	}

	start := time.Now()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(events, 100).Error
	})

	if err != nil {
		slog.Error("批量插入事件失败", "count", len(events), "error", err)
		return fmt.Errorf("批量插入事件失败: %w", err)
	}

	slog.Debug("批量插入事件成功", "count", len(events), "duration", time.Since(start))
	return nil
}

// GetByDeveloperAndDate 查询某开发者某天的全部事件（按时间升序）
func (r *EventRepository) GetByDeveloperAndDate(ctx context.Context, developerID, date string) ([]schema.RawEvent, error) {
	startTime, endTime, err := DayRange(date)
	if err != nil {
		return nil, err
	}

	var events []schema.RawEvent
	err = r.db.WithContext(ctx).
		Where("developer_id = ? AND timestamp >= ? AND timestamp <= ?", developerID, startTime, endTime).
		Order("timestamp ASC").
		Find(&events).Error

	if err != nil {
		return nil, fmt.Errorf("查询事件失败: %w", err)
	}

	return events, nil
}

// ListDeveloperIDs 列出某天有事件的开发者（去重，字典序）
func (r *EventRepository) ListDeveloperIDs(ctx context.Context, date string) ([]string, error) {
	startTime, endTime, err := DayRange(date)
	if err != nil {
		return nil, err
	}

	var ids []string
	err = r.db.WithContext(ctx).
		Model(&schema.RawEvent{}).
		Distinct("developer_id").
		Where("timestamp >= ? AND timestamp <= ?", startTime, endTime).
		Order("developer_id ASC").
		Pluck("developer_id", &ids).Error

	if err != nil {
		return nil, fmt.Errorf("查询开发者列表失败: %w", err)
	}

	return ids, nil
}

// Count 统计事件总数
func (r *EventRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&schema.RawEvent{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("统计事件失败: %w", err)
	}
	return count, nil
}

// DeleteOldEvents 删除旧事件（保留最近 N 天，外部留存策略的落地入口）
func (r *EventRepository) DeleteOldEvents(ctx context.Context, retainDays int) (int64, error) {
	cutoffTime := time.Now().AddDate(0, 0, -retainDays).UnixMilli()

	result := r.db.WithContext(ctx).
		Where("timestamp < ?", cutoffTime).
		Delete(&schema.RawEvent{})

	if result.Error != nil {
		return 0, fmt.Errorf("删除旧事件失败: %w", result.Error)
	}

	slog.Info("清理旧事件", "deleted", result.RowsAffected, "retain_days", retainDays)
	return result.RowsAffected, nil
}
