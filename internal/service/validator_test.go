package service

import (
	"strings"
	"testing"

	"github.com/mingze-w/DevLens/internal/schema"
)

func TestValidateCleanBatch(t *testing.T) {
	v := NewMetricsValidator(DefaultValidatorConfig())

	batch := []schema.DailyMetrics{
		metricsRow("2026-08-20", 0.50, 0.60, 0.40, 20, schema.AssistanceMedium, schema.StyleMixed),
		metricsRow("2026-08-20", 0.52, 0.62, 0.42, 21, schema.AssistanceMedium, schema.StyleHypothesisDriven),
	}

	report := v.ValidateBatch(batch)
	if len(report.Issues) != 0 || len(report.Warnings) != 0 {
		t.Fatalf("clean batch produced report: %+v", report)
	}
}

func TestValidateDomainViolations(t *testing.T) {
	v := NewMetricsValidator(DefaultValidatorConfig())

	bad := metricsRow("2026-08-20", 0.5, 1.5, 0.4, -3, schema.AssistanceMedium, schema.StyleMixed)
	report := v.ValidateBatch([]schema.DailyMetrics{bad})

	// 润色比例越界 + 解决时长为负
	if len(report.Issues) != 2 {
		t.Fatalf("issues = %v, want 2 entries", report.Issues)
	}
}

func TestValidateIllegalEnums(t *testing.T) {
	v := NewMetricsValidator(DefaultValidatorConfig())

	bad := metricsRow("2026-08-20", 0.5, 0.5, 0.4, 10, "extreme", "vibes")
	report := v.ValidateBatch([]schema.DailyMetrics{bad})
	if len(report.Issues) != 2 {
		t.Fatalf("issues = %v, want 2 entries", report.Issues)
	}
}

func TestValidateInconsistentDependency(t *testing.T) {
	v := NewMetricsValidator(DefaultValidatorConfig())

	// 依赖度 0.8 却报 low 协助等级
	row := metricsRow("2026-08-20", 0.5, 0.5, 0.8, 10, schema.AssistanceLow, schema.StyleMixed)
	report := v.ValidateBatch([]schema.DailyMetrics{row})

	if len(report.Issues) != 0 {
		t.Fatalf("unexpected issues: %v", report.Issues)
	}
	if len(report.Warnings) != 1 || !strings.Contains(report.Warnings[0], "相互矛盾") {
		t.Fatalf("warnings = %v, want one inconsistency warning", report.Warnings)
	}
}

func TestValidateDispersionWarning(t *testing.T) {
	v := NewMetricsValidator(DefaultValidatorConfig())

	// 效率在 0.1/0.9 间跳动（CV=0.8），其余字段离散度正常；
	// 4 行不触发退化检查
	batch := []schema.DailyMetrics{
		metricsRow("2026-08-20", 0.1, 0.60, 0.40, 20.0, schema.AssistanceMedium, schema.StyleMixed),
		metricsRow("2026-08-20", 0.9, 0.62, 0.41, 21.0, schema.AssistanceMedium, schema.StyleMixed),
		metricsRow("2026-08-20", 0.1, 0.61, 0.42, 20.5, schema.AssistanceMedium, schema.StyleMixed),
		metricsRow("2026-08-20", 0.9, 0.63, 0.43, 21.5, schema.AssistanceMedium, schema.StyleMixed),
	}

	report := v.ValidateBatch(batch)
	if len(report.Warnings) != 1 || !strings.Contains(report.Warnings[0], "prompt_efficiency_score") {
		t.Fatalf("warnings = %v, want one dispersion warning on efficiency", report.Warnings)
	}
}

func TestValidateDegenerateBatch(t *testing.T) {
	v := NewMetricsValidator(DefaultValidatorConfig())

	// 6 个完全相同的样本超过退化上限 5
	batch := make([]schema.DailyMetrics, 6)
	for i := range batch {
		batch[i] = metricsRow("2026-08-20", 0.5, 0.5, 0.4, 10, schema.AssistanceMedium, schema.StyleMixed)
	}

	report := v.ValidateBatch(batch)
	// 效率、润色、依赖三个字段各报一次
	if len(report.Warnings) != 3 {
		t.Fatalf("warnings = %v, want 3 degenerate warnings", report.Warnings)
	}
	for _, w := range report.Warnings {
		if !strings.Contains(w, "退化") {
			t.Fatalf("unexpected warning: %s", w)
		}
	}
}

func TestValidationReportMerge(t *testing.T) {
	a := ValidationReport{Issues: []string{"i1"}, Warnings: []string{"w1"}}
	a.Merge(ValidationReport{Issues: []string{"i2"}, Warnings: []string{"w2", "w3"}})

	if len(a.Issues) != 2 || len(a.Warnings) != 3 {
		t.Fatalf("merged = %+v", a)
	}
}
