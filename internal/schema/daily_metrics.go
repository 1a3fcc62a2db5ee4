package schema

import "time"

// DailyMetrics 每日行为指标 - 由事件聚合器按 (developer_id, date) 折叠生成
// 每个开发者每天恰好一行，重算当天会覆盖旧行（Upsert），绝不产生重复行。
// 数据量级：万级/年
type DailyMetrics struct {
	ID                    int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	DeveloperID           string    `gorm:"size:64;uniqueIndex:uniq_dev_date" json:"developer_id"`
	Date                  string    `gorm:"size:10;uniqueIndex:uniq_dev_date" json:"date"` // YYYY-MM-DD
	AIAssistanceLevel     string    `gorm:"size:10" json:"ai_assistance_level"`            // low, medium, high
	HumanRefinementRatio  float64   `gorm:"default:0" json:"human_refinement_ratio"`       // [0,1]
	PromptEfficiencyScore float64   `gorm:"default:0" json:"prompt_efficiency_score"`      // [0,1]，全链路统一用 0-1
	DebuggingStyle        string    `gorm:"size:20" json:"debugging_style"`                // hypothesis-driven, trial-and-error, mixed
	ErrorResolutionTime   float64   `gorm:"default:0" json:"error_resolution_time"`        // 平均错误解决时长（分钟）
	AIDependencyRatio     float64   `gorm:"default:0" json:"ai_dependency_ratio"`          // [0,1]
	SessionCount          int       `gorm:"default:0" json:"session_count"`                // 会话数
	ActiveTime            float64   `gorm:"default:0" json:"active_time"`                  // 活跃时长（分钟），有事件时 ≥1
	CreatedAt             time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定表名
func (DailyMetrics) TableName() string {
	return "daily_metrics"
}

// AI 协助等级
const (
	AssistanceLow    = "low"
	AssistanceMedium = "medium"
	AssistanceHigh   = "high"
)

// 调试风格
const (
	StyleHypothesisDriven = "hypothesis-driven"
	StyleTrialAndError    = "trial-and-error"
	StyleMixed            = "mixed"
)
