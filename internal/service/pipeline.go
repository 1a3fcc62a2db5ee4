package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mingze-w/DevLens/internal/eventbus"
	"github.com/mingze-w/DevLens/internal/schema"
)

// PipelineConfig 流水线配置
type PipelineConfig struct {
	HistoryDays int // 评估读取的历史指标窗口（天）
}

// DefaultPipelineConfig 默认流水线配置
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{HistoryDays: 30}
}

// Pipeline 每日批处理流水线：对每个开发者顺序执行
// 聚合 → 标准化 → 落库 → 评估 → 标准化 → 落库。
// 单个开发者内部完全串行；不同开发者之间互不共享可变状态，
// 任何一个失败都不影响其余开发者，当天缺行可安全重跑（全程 Upsert）。
type Pipeline struct {
	cfg PipelineConfig

	events      EventRepository
	metrics     MetricsRepository
	assessments AssessmentRepository
	reports     ReportRepository

	aggregator   *EventAggregator
	validator    *MetricsValidator
	standardizer *Standardizer
	generator    *AssessmentGenerator
	bus          *eventbus.Hub
}

// NewPipeline 创建流水线
func NewPipeline(
	cfg PipelineConfig,
	events EventRepository,
	metrics MetricsRepository,
	assessments AssessmentRepository,
	reports ReportRepository,
	aggregator *EventAggregator,
	validator *MetricsValidator,
	standardizer *Standardizer,
	generator *AssessmentGenerator,
	bus *eventbus.Hub,
) *Pipeline {
	if cfg.HistoryDays <= 0 {
		cfg.HistoryDays = DefaultPipelineConfig().HistoryDays
	}
	return &Pipeline{
		cfg:          cfg,
		events:       events,
		metrics:      metrics,
		assessments:  assessments,
		reports:      reports,
		aggregator:   aggregator,
		validator:    validator,
		standardizer: standardizer,
		generator:    generator,
		bus:          bus,
	}
}

// RunResult 一次日批处理的汇总
type RunResult struct {
	RunID     string           `json:"run_id"`
	Date      string           `json:"date"`
	Total     int              `json:"total"`
	Processed int              `json:"processed"`
	Failed    int              `json:"failed"`
	Report    ValidationReport `json:"report"`
}

// RunDay 处理某天全部有事件的开发者。
// 单个开发者失败只记录、不中断；结构性失败（列表/落库不可用）才向上传播。
func (p *Pipeline) RunDay(ctx context.Context, date string) (*RunResult, error) {
	start := time.Now()
	result := &RunResult{
		RunID: uuid.NewString(),
		Date:  date,
	}

	developers, err := p.events.ListDeveloperIDs(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("获取当日开发者列表失败: %w", err)
	}
	result.Total = len(developers)

	p.bus.Publish(eventbus.Event{Type: eventbus.TypeRunStarted, Data: map[string]any{
		"run_id": result.RunID, "date": date, "developers": len(developers),
	}})

	for _, developerID := range developers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if _, err := p.ProcessDeveloperDay(ctx, developerID, date); err != nil {
			// 失败的开发者当天不留半成品行，之后可整体重跑
			result.Failed++
			result.Report.Issues = append(result.Report.Issues,
				fmt.Sprintf("%s/%s: 处理失败: %v", developerID, date, err))
			slog.Error("处理开发者失败", "developer", developerID, "date", date, "error", err)
			p.bus.Publish(eventbus.Event{Type: eventbus.TypeDeveloperFailed, Data: map[string]any{
				"run_id": result.RunID, "developer": developerID, "date": date,
			}})
			continue
		}

		result.Processed++
		p.bus.Publish(eventbus.Event{Type: eventbus.TypeDeveloperProcessed, Data: map[string]any{
			"run_id": result.RunID, "developer": developerID, "date": date,
		}})
	}

	// 跑完再对当天整批做校验，结果只进报告，不回滚任何写入
	if batch, err := p.metrics.GetByDate(ctx, date); err != nil {
		result.Report.Warnings = append(result.Report.Warnings,
			fmt.Sprintf("批校验读取当日指标失败: %v", err))
	} else {
		result.Report.Merge(p.validator.ValidateBatch(batch))
	}

	report := &schema.RunReport{
		RunID:               result.RunID,
		Date:                date,
		DevelopersTotal:     result.Total,
		DevelopersProcessed: result.Processed,
		DevelopersFailed:    result.Failed,
		Issues:              schema.JSONArray(result.Report.Issues),
		Warnings:            schema.JSONArray(result.Report.Warnings),
		DurationMs:          time.Since(start).Milliseconds(),
	}
	if err := p.reports.Create(ctx, report); err != nil {
		slog.Warn("写入运行报告失败", "run_id", result.RunID, "error", err)
	}

	p.bus.Publish(eventbus.Event{Type: eventbus.TypeRunFinished, Data: map[string]any{
		"run_id": result.RunID, "date": date,
		"processed": result.Processed, "failed": result.Failed,
	}})

	slog.Info("日批处理完成", "run_id", result.RunID, "date", date,
		"total", result.Total, "processed", result.Processed, "failed", result.Failed,
		"duration", time.Since(start))

	return result, nil
}

// ProcessDeveloperDay 处理单个开发者的一天。
// 当天没有事件时返回 (nil, nil)，下游把"无数据"与错误区分对待。
func (p *Pipeline) ProcessDeveloperDay(ctx context.Context, developerID, date string) (*schema.SkillAssessment, error) {
	events, err := p.events.GetByDeveloperAndDate(ctx, developerID, date)
	if err != nil {
		return nil, fmt.Errorf("读取事件失败: %w", err)
	}
	if len(events) == 0 {
		return nil, nil
	}

	metrics := p.aggregator.Aggregate(developerID, date, events)
	if metrics == nil {
		return nil, nil
	}

	confidences := p.standardizer.StandardizeMetrics(metrics)
	logLowConfidence(developerID, date, confidences)

	if err := p.metrics.Upsert(ctx, metrics); err != nil {
		return nil, fmt.Errorf("写入每日指标失败: %w", err)
	}

	history, err := p.metrics.GetHistory(ctx, developerID, date, p.cfg.HistoryDays)
	if err != nil {
		return nil, fmt.Errorf("读取历史指标失败: %w", err)
	}

	assessment := p.generator.Generate(metrics, history)
	confidences = p.standardizer.StandardizeAssessment(assessment)
	logLowConfidence(developerID, date, confidences)

	if err := p.assessments.Upsert(ctx, assessment); err != nil {
		return nil, fmt.Errorf("写入技能评估失败: %w", err)
	}

	return assessment, nil
}

// AssessmentFor 读取已生成的评估。
// 前置条件不满足（当天指标尚未生成）时返回 (nil, nil)，表达"暂无数据"而非报错。
func (p *Pipeline) AssessmentFor(ctx context.Context, developerID, date string) (*schema.SkillAssessment, error) {
	metrics, err := p.metrics.GetByDeveloperAndDate(ctx, developerID, date)
	if err != nil {
		return nil, err
	}
	if metrics == nil {
		return nil, nil
	}
	return p.assessments.GetByDeveloperAndDate(ctx, developerID, date)
}

// logLowConfidence 低置信字段只打日志，不影响流程
func logLowConfidence(developerID, date string, confidences []FieldConfidence) {
	for _, fc := range confidences {
		if fc.Confidence == ConfidenceLow {
			slog.Debug("字段抖动后置信偏低", "developer", developerID, "date", date, "field", fc.Field)
		}
	}
}
