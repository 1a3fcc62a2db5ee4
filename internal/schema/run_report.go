package schema

import "time"

// RunReport 每日批处理运行报告 - 校验器输出的 issues/warnings 随运行落库，
// 仅用于可观测性，绝不阻断指标/评估的写入。
type RunReport struct {
	ID                  int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	RunID               string    `gorm:"size:36;index" json:"run_id"` // UUID
	Date                string    `gorm:"size:10;index" json:"date"`   // YYYY-MM-DD
	DevelopersTotal     int       `gorm:"default:0" json:"developers_total"`
	DevelopersProcessed int       `gorm:"default:0" json:"developers_processed"`
	DevelopersFailed    int       `gorm:"default:0" json:"developers_failed"`
	Issues              JSONArray `gorm:"type:text" json:"issues"`
	Warnings            JSONArray `gorm:"type:text" json:"warnings"`
	DurationMs          int64     `gorm:"default:0" json:"duration_ms"`
	CreatedAt           time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 指定表名
func (RunReport) TableName() string {
	return "run_reports"
}
