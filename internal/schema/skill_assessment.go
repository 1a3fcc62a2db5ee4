package schema

import "time"

// SkillAssessment 技能评估 - 由评估生成器基于当日指标与历史窗口生成
// 每个开发者每天恰好一行（Upsert），且严格晚于同日 DailyMetrics 产生。
// 所有分数在加抖动之后再次夹取到 [0,100]；解释文本保证非空。
type SkillAssessment struct {
	ID             int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	DeveloperID    string `gorm:"size:64;uniqueIndex:uniq_dev_assess_date" json:"developer_id"`
	AssessmentDate string `gorm:"size:10;uniqueIndex:uniq_dev_assess_date" json:"assessment_date"` // YYYY-MM-DD

	// 提示词成熟度
	PromptScore       float64 `gorm:"default:0" json:"prompt_score"`        // [0,100]
	PromptTrend       string  `gorm:"size:10" json:"prompt_trend"`          // improving, stable, declining
	PromptExplanation string  `gorm:"type:text" json:"prompt_explanation"`

	// 调试能力
	DebugScore       float64 `gorm:"default:0" json:"debug_score"` // [0,100]
	DebugStyle       string  `gorm:"size:20" json:"debug_style"`
	DebugTrend       string  `gorm:"size:10" json:"debug_trend"`
	DebugExplanation string  `gorm:"type:text" json:"debug_explanation"`

	// AI 协作平衡
	CollabScore       float64 `gorm:"default:0" json:"collab_score"`     // [0,100]
	DependencyLevel   string  `gorm:"size:10" json:"dependency_level"`   // low, medium, high
	RefinementSkill   int     `gorm:"default:0" json:"refinement_skill"` // round(humanRefinementRatio×100)
	CollabTrend       string  `gorm:"size:10" json:"collab_trend"`
	CollabExplanation string  `gorm:"type:text" json:"collab_explanation"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定表名
func (SkillAssessment) TableName() string {
	return "skill_assessments"
}

// 依赖等级与 AI 协助等级共用 low/medium/high 常量（见 daily_metrics.go）
