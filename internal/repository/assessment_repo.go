package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/mingze-w/DevLens/internal/schema"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AssessmentRepository 技能评估仓储
type AssessmentRepository struct {
	db *gorm.DB
}

// NewAssessmentRepository 创建仓储
func NewAssessmentRepository(db *gorm.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// Upsert 插入或更新（(developer_id, assessment_date) 唯一）
func (r *AssessmentRepository) Upsert(ctx context.Context, assessment *schema.SkillAssessment) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "developer_id"}, {Name: "assessment_date"}},
		UpdateAll: true,
	}).Create(assessment).Error
}

// GetByDeveloperAndDate 按开发者与日期获取，不存在时返回 (nil, nil)
func (r *AssessmentRepository) GetByDeveloperAndDate(ctx context.Context, developerID, date string) (*schema.SkillAssessment, error) {
	var assessment schema.SkillAssessment
	err := r.db.WithContext(ctx).
		Where("developer_id = ? AND assessment_date = ?", developerID, date).
		First(&assessment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询技能评估失败: %w", err)
	}
	return &assessment, nil
}

// GetRecent 获取某开发者最近的评估（按日期降序）
func (r *AssessmentRepository) GetRecent(ctx context.Context, developerID string, limit int) ([]schema.SkillAssessment, error) {
	var rows []schema.SkillAssessment
	err := r.db.WithContext(ctx).
		Where("developer_id = ?", developerID).
		Order("assessment_date DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("查询最近评估失败: %w", err)
	}
	return rows, nil
}
