package service

import (
	"context"

	"github.com/mingze-w/DevLens/internal/schema"
)

// 仓储依赖的最小接口集合（ISP）

type EventRepository interface {
	GetByDeveloperAndDate(ctx context.Context, developerID, date string) ([]schema.RawEvent, error)
	ListDeveloperIDs(ctx context.Context, date string) ([]string, error)
}

type MetricsRepository interface {
	Upsert(ctx context.Context, metrics *schema.DailyMetrics) error
	GetByDeveloperAndDate(ctx context.Context, developerID, date string) (*schema.DailyMetrics, error)
	GetHistory(ctx context.Context, developerID, beforeDate string, limit int) ([]schema.DailyMetrics, error)
	GetByDate(ctx context.Context, date string) ([]schema.DailyMetrics, error)
}

type AssessmentRepository interface {
	Upsert(ctx context.Context, assessment *schema.SkillAssessment) error
	GetByDeveloperAndDate(ctx context.Context, developerID, date string) (*schema.SkillAssessment, error)
}

type ReportRepository interface {
	Create(ctx context.Context, report *schema.RunReport) error
}
