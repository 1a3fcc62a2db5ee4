package service

import (
	"math"
	"testing"

	"github.com/mingze-w/DevLens/internal/schema"
)

// fakeRand 循环回放固定序列的随机源
type fakeRand struct {
	vals []float64
	i    int
}

func (f *fakeRand) Float64() float64 {
	v := f.vals[f.i%len(f.vals)]
	f.i++
	return v
}

func TestStandardizeMetricsJitterDisabled(t *testing.T) {
	cfg := DefaultStandardizerConfig()
	cfg.JitterEnabled = false
	s := NewStandardizer(cfg, &fakeRand{vals: []float64{1}})

	m := metricsRow("2026-08-20", 0.7, 0.6, 0.4, 20, schema.AssistanceMedium, schema.StyleMixed)
	before := m

	confs := s.StandardizeMetrics(&m)
	if m != before {
		t.Fatalf("metrics changed with jitter disabled:\n%+v\n%+v", before, m)
	}
	for _, fc := range confs {
		if fc.Confidence != ConfidenceHigh {
			t.Fatalf("%s confidence = %s, want high", fc.Field, fc.Confidence)
		}
	}
}

func TestStandardizeMetricsJitterAmount(t *testing.T) {
	// Float64 恒为 1 → 每个字段加满幅正抖动
	s := NewStandardizer(DefaultStandardizerConfig(), &fakeRand{vals: []float64{1}})

	m := metricsRow("2026-08-20", 0.5, 0.5, 0.5, 20, schema.AssistanceMedium, schema.StyleMixed)
	confs := s.StandardizeMetrics(&m)

	// 比例字段：+0.05×0.1 = +0.005
	if math.Abs(m.HumanRefinementRatio-0.505) > 1e-9 {
		t.Fatalf("refinement = %v, want 0.505", m.HumanRefinementRatio)
	}
	if math.Abs(m.PromptEfficiencyScore-0.505) > 1e-9 {
		t.Fatalf("efficiency = %v, want 0.505", m.PromptEfficiencyScore)
	}
	// 解决时长：+0.05×5 = +0.25
	if math.Abs(m.ErrorResolutionTime-20.25) > 1e-9 {
		t.Fatalf("resolution = %v, want 20.25", m.ErrorResolutionTime)
	}
	// 活跃时长：+0.05×10 = +0.5
	if math.Abs(m.ActiveTime-120.5) > 1e-9 {
		t.Fatalf("activeTime = %v, want 120.5", m.ActiveTime)
	}

	if len(confs) != 5 {
		t.Fatalf("confidences = %d, want 5", len(confs))
	}
	// 相对变化都在 5% 以内
	for _, fc := range confs {
		if fc.Confidence != ConfidenceHigh {
			t.Fatalf("%s confidence = %s, want high", fc.Field, fc.Confidence)
		}
	}
}

func TestStandardizeMetricsClampsToDomain(t *testing.T) {
	// 正向满幅抖动也不能把比例推出 [0,1]
	s := NewStandardizer(DefaultStandardizerConfig(), &fakeRand{vals: []float64{1}})
	m := metricsRow("2026-08-20", 1.0, 1.0, 1.0, 0, schema.AssistanceHigh, schema.StyleMixed)
	s.StandardizeMetrics(&m)
	for _, v := range []float64{m.HumanRefinementRatio, m.PromptEfficiencyScore, m.AIDependencyRatio} {
		if v < 0 || v > 1 {
			t.Fatalf("ratio %v escaped [0,1]", v)
		}
	}

	// 负向满幅抖动不能把时长推成负数
	s = NewStandardizer(DefaultStandardizerConfig(), &fakeRand{vals: []float64{0}})
	m = metricsRow("2026-08-20", 0, 0, 0, 0.1, schema.AssistanceLow, schema.StyleMixed)
	s.StandardizeMetrics(&m)
	if m.ErrorResolutionTime < 0 {
		t.Fatalf("resolution = %v, must stay non-negative", m.ErrorResolutionTime)
	}
}

func TestStandardizeMetricsActiveTimeFloor(t *testing.T) {
	// 活跃过的日子抖动后仍须 ≥1 分钟
	s := NewStandardizer(DefaultStandardizerConfig(), &fakeRand{vals: []float64{0}})
	m := metricsRow("2026-08-20", 0.5, 0.5, 0.5, 10, schema.AssistanceMedium, schema.StyleMixed)
	m.ActiveTime = 1

	s.StandardizeMetrics(&m)
	if m.ActiveTime != 1 {
		t.Fatalf("activeTime = %v, want floor at 1", m.ActiveTime)
	}
}

func TestStandardizeAssessmentScoreJitter(t *testing.T) {
	// Float64 恒为 0 → 每个分数 −2
	s := NewStandardizer(DefaultStandardizerConfig(), &fakeRand{vals: []float64{0}})

	a := schema.SkillAssessment{PromptScore: 50, DebugScore: 100, CollabScore: 1}
	confs := s.StandardizeAssessment(&a)

	if math.Abs(a.PromptScore-48) > 1e-9 {
		t.Fatalf("prompt = %v, want 48", a.PromptScore)
	}
	// 100−2=98，仍在 [0,100]
	if math.Abs(a.DebugScore-98) > 1e-9 {
		t.Fatalf("debug = %v, want 98", a.DebugScore)
	}
	// 1−2 夹回 0
	if a.CollabScore != 0 {
		t.Fatalf("collab = %v, want 0", a.CollabScore)
	}

	// 置信分档：48/50 变化 4% → high；0/1 变化 100% → low
	if confs[0].Confidence != ConfidenceHigh {
		t.Fatalf("prompt confidence = %s, want high", confs[0].Confidence)
	}
	if confs[2].Confidence != ConfidenceLow {
		t.Fatalf("collab confidence = %s, want low", confs[2].Confidence)
	}
}

func TestConfidenceBands(t *testing.T) {
	s := NewStandardizer(DefaultStandardizerConfig(), &fakeRand{vals: []float64{1}})

	cases := []struct {
		before, after float64
		want          ConfidenceLevel
	}{
		{100, 100, ConfidenceHigh},
		{100, 104, ConfidenceHigh},   // 4%
		{100, 110, ConfidenceMedium}, // 10%
		{100, 120, ConfidenceLow},    // 20%
		{0, 0, ConfidenceHigh},       // 原值为 0 且未变
		{0, 0.005, ConfidenceMedium}, // 原值为 0 但发生了变化
	}
	for _, tc := range cases {
		if got := s.confidence(tc.before, tc.after); got != tc.want {
			t.Fatalf("confidence(%v→%v) = %s, want %s", tc.before, tc.after, got, tc.want)
		}
	}
}
