package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/mingze-w/DevLens/internal/schema"
	"gorm.io/gorm"
)

// RunReportRepository 运行报告仓储
type RunReportRepository struct {
	db *gorm.DB
}

// NewRunReportRepository 创建仓储
func NewRunReportRepository(db *gorm.DB) *RunReportRepository {
	return &RunReportRepository{db: db}
}

// Create 写入一条运行报告
func (r *RunReportRepository) Create(ctx context.Context, report *schema.RunReport) error {
	if err := r.db.WithContext(ctx).Create(report).Error; err != nil {
		return fmt.Errorf("写入运行报告失败: %w", err)
	}
	return nil
}

// GetLatestByDate 获取某天最新一次运行的报告，不存在时返回 (nil, nil)
func (r *RunReportRepository) GetLatestByDate(ctx context.Context, date string) (*schema.RunReport, error) {
	var report schema.RunReport
	err := r.db.WithContext(ctx).
		Where("date = ?", date).
		Order("id DESC").
		First(&report).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询运行报告失败: %w", err)
	}
	return &report, nil
}
