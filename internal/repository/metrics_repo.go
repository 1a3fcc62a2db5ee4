package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/mingze-w/DevLens/internal/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MetricsRepository 每日指标仓储
type MetricsRepository struct {
	db *gorm.DB
}

// NewMetricsRepository 创建仓储
func NewMetricsRepository(db *gorm.DB) *MetricsRepository {
	return &MetricsRepository{db: db}
}

// Upsert 插入或更新（(developer_id, date) 唯一，重算覆盖旧行）
func (r *MetricsRepository) Upsert(ctx context.Context, metrics *schema.DailyMetrics) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "developer_id"}, {Name: "date"}},
		UpdateAll: true,
	}).Create(metrics).Error
}

// GetByDeveloperAndDate 按开发者与日期获取，不存在时返回 (nil, nil)
func (r *MetricsRepository) GetByDeveloperAndDate(ctx context.Context, developerID, date string) (*schema.DailyMetrics, error) {
	var metrics schema.DailyMetrics
	err := r.db.WithContext(ctx).
		Where("developer_id = ? AND date = ?", developerID, date).
		First(&metrics).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询每日指标失败: %w", err)
	}
	return &metrics, nil
}

// GetHistory 获取某开发者 beforeDate 之前最近 limit 天的指标（按日期升序）
func (r *MetricsRepository) GetHistory(ctx context.Context, developerID, beforeDate string, limit int) ([]schema.DailyMetrics, error) {
	var rows []schema.DailyMetrics
	err := r.db.WithContext(ctx).
		Where("developer_id = ? AND date < ?", developerID, beforeDate).
		Order("date DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("查询历史指标失败: %w", err)
	}

	// 倒序取出后翻转为升序，便于直接构造趋势序列
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}

// GetByDate 获取某天全部开发者的指标（批校验输入）
func (r *MetricsRepository) GetByDate(ctx context.Context, date string) ([]schema.DailyMetrics, error) {
	var rows []schema.DailyMetrics
	err := r.db.WithContext(ctx).
		Where("date = ?", date).
		Order("developer_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("查询当日指标失败: %w", err)
	}
	return rows, nil
}

// GetRecent 获取某开发者最近的指标（按日期降序）
func (r *MetricsRepository) GetRecent(ctx context.Context, developerID string, days int) ([]schema.DailyMetrics, error) {
	var rows []schema.DailyMetrics
	err := r.db.WithContext(ctx).
		Where("developer_id = ?", developerID).
		Order("date DESC").
		Limit(days).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("查询最近指标失败: %w", err)
	}
	return rows, nil
}
