package service

import (
	"fmt"
	"math"

	"github.com/mingze-w/DevLens/internal/schema"
)

// ValidationReport 校验结果。只做诊断，永远不阻断落库。
type ValidationReport struct {
	Issues   []string `json:"issues"`   // 超出定义域等硬问题
	Warnings []string `json:"warnings"` // 离散度异常、交叉矛盾等软问题
}

// Merge 合并另一份报告
func (r *ValidationReport) Merge(other ValidationReport) {
	r.Issues = append(r.Issues, other.Issues...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// ValidatorConfig 校验阈值配置
type ValidatorConfig struct {
	// 各字段的变异系数（标准差/均值）告警阈值
	CVThresholdEfficiency float64 // 0.3
	CVThresholdRefinement float64 // 0.4
	CVThresholdResolution float64 // 0.5
	CVThresholdDependency float64 // 0.3

	DegenerateSampleLimit     int     // 同值样本超过该数视为退化批次
	InconsistentDependencyBar float64 // 依赖度超过该值却报 low 协助等级视为矛盾
}

// DefaultValidatorConfig 默认校验配置
func DefaultValidatorConfig() ValidatorConfig {
	return ValidatorConfig{
		CVThresholdEfficiency:     0.3,
		CVThresholdRefinement:     0.4,
		CVThresholdResolution:     0.5,
		CVThresholdDependency:     0.3,
		DegenerateSampleLimit:     5,
		InconsistentDependencyBar: 0.7,
	}
}

// MetricsValidator 指标校验器：对一批 DailyMetrics 做定义域、
// 离散度与交叉一致性检查，输出 issues/warnings 供可观测性消费。
type MetricsValidator struct {
	cfg ValidatorConfig
}

// NewMetricsValidator 创建校验器
func NewMetricsValidator(cfg ValidatorConfig) *MetricsValidator {
	return &MetricsValidator{cfg: cfg}
}

// ValidateBatch 校验一批指标（通常是一天内全部开发者的行）
func (v *MetricsValidator) ValidateBatch(batch []schema.DailyMetrics) ValidationReport {
	var report ValidationReport

	for i := range batch {
		v.validateRow(&batch[i], &report)
	}

	v.checkDispersion(batch, &report)
	v.checkDegenerate(batch, &report)

	return report
}

// validateRow 单行定义域与交叉一致性检查
func (v *MetricsValidator) validateRow(m *schema.DailyMetrics, report *ValidationReport) {
	key := fmt.Sprintf("%s/%s", m.DeveloperID, m.Date)

	checkRatio := func(name string, val float64) {
		if val < 0 || val > 1 {
			report.Issues = append(report.Issues, fmt.Sprintf("%s: %s=%.4f 超出 [0,1]", key, name, val))
		}
	}
	checkRatio("human_refinement_ratio", m.HumanRefinementRatio)
	checkRatio("prompt_efficiency_score", m.PromptEfficiencyScore)
	checkRatio("ai_dependency_ratio", m.AIDependencyRatio)

	if m.ErrorResolutionTime < 0 {
		report.Issues = append(report.Issues, fmt.Sprintf("%s: error_resolution_time=%.2f 为负", key, m.ErrorResolutionTime))
	}
	if m.SessionCount < 0 {
		report.Issues = append(report.Issues, fmt.Sprintf("%s: session_count=%d 为负", key, m.SessionCount))
	}
	if m.ActiveTime < 0 {
		report.Issues = append(report.Issues, fmt.Sprintf("%s: active_time=%.2f 为负", key, m.ActiveTime))
	}

	switch m.AIAssistanceLevel {
	case schema.AssistanceLow, schema.AssistanceMedium, schema.AssistanceHigh:
	default:
		report.Issues = append(report.Issues, fmt.Sprintf("%s: ai_assistance_level=%q 非法", key, m.AIAssistanceLevel))
	}
	switch m.DebuggingStyle {
	case schema.StyleHypothesisDriven, schema.StyleTrialAndError, schema.StyleMixed:
	default:
		report.Issues = append(report.Issues, fmt.Sprintf("%s: debugging_style=%q 非法", key, m.DebuggingStyle))
	}

	// 交叉矛盾：依赖度很高却报 low 协助等级
	if m.AIDependencyRatio > v.cfg.InconsistentDependencyBar && m.AIAssistanceLevel == schema.AssistanceLow {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("%s: ai_dependency_ratio=%.2f 但 ai_assistance_level=low，指标间相互矛盾", key, m.AIDependencyRatio))
	}
}

// checkDispersion 各字段变异系数超阈值时告警
func (v *MetricsValidator) checkDispersion(batch []schema.DailyMetrics, report *ValidationReport) {
	if len(batch) < 2 {
		return
	}

	fields := []struct {
		name      string
		threshold float64
		pick      func(*schema.DailyMetrics) float64
	}{
		{"prompt_efficiency_score", v.cfg.CVThresholdEfficiency, func(m *schema.DailyMetrics) float64 { return m.PromptEfficiencyScore }},
		{"human_refinement_ratio", v.cfg.CVThresholdRefinement, func(m *schema.DailyMetrics) float64 { return m.HumanRefinementRatio }},
		{"error_resolution_time", v.cfg.CVThresholdResolution, func(m *schema.DailyMetrics) float64 { return m.ErrorResolutionTime }},
		{"ai_dependency_ratio", v.cfg.CVThresholdDependency, func(m *schema.DailyMetrics) float64 { return m.AIDependencyRatio }},
	}

	for _, f := range fields {
		values := extractSeries(batch, f.pick)
		cv := coefficientOfVariation(values)
		if cv > f.threshold {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("字段 %s 变异系数 %.2f 超过阈值 %.2f，批次离散度异常", f.name, cv, f.threshold))
		}
	}
}

// checkDegenerate 同值样本过多时告警（常见于采集端卡死或常量回放）
func (v *MetricsValidator) checkDegenerate(batch []schema.DailyMetrics, report *ValidationReport) {
	if len(batch) <= v.cfg.DegenerateSampleLimit {
		return
	}

	fields := []struct {
		name string
		pick func(*schema.DailyMetrics) float64
	}{
		{"prompt_efficiency_score", func(m *schema.DailyMetrics) float64 { return m.PromptEfficiencyScore }},
		{"human_refinement_ratio", func(m *schema.DailyMetrics) float64 { return m.HumanRefinementRatio }},
		{"ai_dependency_ratio", func(m *schema.DailyMetrics) float64 { return m.AIDependencyRatio }},
	}

	for _, f := range fields {
		values := extractSeries(batch, f.pick)
		identical := true
		for _, val := range values[1:] {
			if val != values[0] {
				identical = false
				break
			}
		}
		if identical {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("字段 %s 在 %d 个样本中完全相同，批次疑似退化", f.name, len(values)))
		}
	}
}

// coefficientOfVariation 变异系数 = 标准差/均值，均值接近 0 时为 0
func coefficientOfVariation(values []float64) float64 {
	m := mean(values)
	if math.Abs(m) < 1e-9 {
		return 0
	}

	var sumSq float64
	for _, val := range values {
		d := val - m
		sumSq += d * d
	}
	std := math.Sqrt(sumSq / float64(len(values)))
	return std / math.Abs(m)
}
