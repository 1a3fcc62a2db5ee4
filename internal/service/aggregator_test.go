package service

import (
	"math"
	"testing"

	"github.com/mingze-w/DevLens/internal/schema"
)

func newEvent(eventType, sessionID string, ts int64, meta schema.JSONMap) schema.RawEvent {
	return schema.RawEvent{
		DeveloperID: "dev-1",
		EventType:   eventType,
		SessionID:   sessionID,
		Timestamp:   ts,
		Metadata:    meta,
	}
}

func TestAggregateEmptyBatch(t *testing.T) {
	a := NewEventAggregator(DefaultAggregatorConfig())
	if got := a.Aggregate("dev-1", "2026-08-20", nil); got != nil {
		t.Fatalf("empty batch = %+v, want nil", got)
	}
}

func TestAggregateHighAssistanceAndPromptEfficiency(t *testing.T) {
	a := NewEventAggregator(DefaultAggregatorConfig())

	// 10 次 AI 调用，每次 3 秒后在同会话粘贴
	var events []schema.RawEvent
	base := int64(1_000_000)
	for i := 0; i < 10; i++ {
		ts := base + int64(i)*60_000
		events = append(events, newEvent(schema.EventAIInvocation, "s1", ts, nil))
		events = append(events, newEvent(schema.EventPaste, "s1", ts+3_000, nil))
	}

	m := a.Aggregate("dev-1", "2026-08-20", events)
	if m == nil {
		t.Fatal("metrics is nil")
	}

	// ai 占比 0.5>0.3 且 paste 占比 0.5>0.2
	if m.AIAssistanceLevel != schema.AssistanceHigh {
		t.Fatalf("assistance = %s, want high", m.AIAssistanceLevel)
	}
	// 每次贡献 1 − 3000/120000 = 0.975
	if math.Abs(m.PromptEfficiencyScore-0.975) > 1e-9 {
		t.Fatalf("efficiency = %v, want 0.975", m.PromptEfficiencyScore)
	}
	// 粘贴后无任何键入
	if m.HumanRefinementRatio != 0 {
		t.Fatalf("refinement = %v, want 0", m.HumanRefinementRatio)
	}
	// 全部产出来自 AI
	if m.AIDependencyRatio != 1 {
		t.Fatalf("dependency = %v, want 1", m.AIDependencyRatio)
	}
	if m.SessionCount != 1 {
		t.Fatalf("sessions = %d, want 1", m.SessionCount)
	}
}

func TestAggregateRefinementRatio(t *testing.T) {
	a := NewEventAggregator(DefaultAggregatorConfig())
	base := int64(1_000_000)

	events := []schema.RawEvent{
		// 粘贴后 1 分钟内同会话键入 → 算润色
		newEvent(schema.EventPaste, "s1", base, nil),
		newEvent(schema.EventKeystrokeBurst, "s1", base+60_000, nil),
		// 粘贴后跟进发生在其他会话 → 不算
		newEvent(schema.EventPaste, "s2", base+120_000, nil),
		newEvent(schema.EventKeystrokeBurst, "s3", base+130_000, nil),
		// 粘贴后超过 5 分钟才键入 → 不算
		newEvent(schema.EventPaste, "s4", base+200_000, nil),
		newEvent(schema.EventKeystrokeBurst, "s4", base+200_000+6*60_000, nil),
	}

	m := a.Aggregate("dev-1", "2026-08-20", events)
	if math.Abs(m.HumanRefinementRatio-1.0/3.0) > 1e-9 {
		t.Fatalf("refinement = %v, want 1/3", m.HumanRefinementRatio)
	}
}

func TestAggregateRefinementDefaultWithoutPastes(t *testing.T) {
	a := NewEventAggregator(DefaultAggregatorConfig())
	events := []schema.RawEvent{
		newEvent(schema.EventKeystrokeBurst, "s1", 1_000_000, nil),
		newEvent(schema.EventKeystrokeBurst, "s1", 1_060_000, nil),
	}

	m := a.Aggregate("dev-1", "2026-08-20", events)
	if m.HumanRefinementRatio != 1.0 {
		t.Fatalf("refinement = %v, want 1.0", m.HumanRefinementRatio)
	}
	// 无 AI 调用且无匹配 → 中性值
	if m.PromptEfficiencyScore != 0.5 {
		t.Fatalf("efficiency = %v, want 0.5", m.PromptEfficiencyScore)
	}
	if m.AIAssistanceLevel != schema.AssistanceLow {
		t.Fatalf("assistance = %s, want low", m.AIAssistanceLevel)
	}
	if m.AIDependencyRatio != 0 {
		t.Fatalf("dependency = %v, want 0", m.AIDependencyRatio)
	}
}

func TestAggregateErrorResolutionPairing(t *testing.T) {
	a := NewEventAggregator(DefaultAggregatorConfig())
	events := []schema.RawEvent{
		newEvent(schema.EventErrorMarker, "s1", 0, schema.JSONMap{"status": "appeared"}),
		newEvent(schema.EventErrorMarker, "s1", 600_000, schema.JSONMap{"status": "resolved"}),
	}

	m := a.Aggregate("dev-1", "2026-08-20", events)
	if math.Abs(m.ErrorResolutionTime-10) > 1e-9 {
		t.Fatalf("resolution = %v, want 10", m.ErrorResolutionTime)
	}
}

func TestAggregateDebuggingStyle(t *testing.T) {
	a := NewEventAggregator(DefaultAggregatorConfig())
	base := int64(1_000_000)

	debugEvents := func(actions ...string) []schema.RawEvent {
		events := make([]schema.RawEvent, 0, len(actions))
		for i, action := range actions {
			events = append(events, newEvent(schema.EventDebugAction, "s1", base+int64(i)*1000, schema.JSONMap{"action": action}))
		}
		return events
	}

	cases := []struct {
		name    string
		actions []string
		want    string
	}{
		{"hypothesis", []string{"debug", "test", "debug", "test", "run"}, schema.StyleHypothesisDriven},
		{"trial-and-error", []string{"run", "run", "run", "run", "debug"}, schema.StyleTrialAndError},
		{"mixed", []string{"run", "debug", "run", "test"}, schema.StyleMixed},
		{"no-debug-actions", nil, schema.StyleMixed},
	}

	for _, tc := range cases {
		events := debugEvents(tc.actions...)
		if len(events) == 0 {
			events = []schema.RawEvent{newEvent(schema.EventKeystrokeBurst, "s1", base, nil)}
		}
		m := a.Aggregate("dev-1", "2026-08-20", events)
		if m.DebuggingStyle != tc.want {
			t.Fatalf("%s: style = %s, want %s", tc.name, m.DebuggingStyle, tc.want)
		}
	}
}

func TestAggregateActiveTimeFloor(t *testing.T) {
	a := NewEventAggregator(DefaultAggregatorConfig())

	// 跨度 10 秒，但有事件的日子至少算 1 分钟
	events := []schema.RawEvent{
		newEvent(schema.EventKeystrokeBurst, "s1", 1_000_000, nil),
		newEvent(schema.EventKeystrokeBurst, "s1", 1_010_000, nil),
	}
	m := a.Aggregate("dev-1", "2026-08-20", events)
	if m.ActiveTime != 1 {
		t.Fatalf("activeTime = %v, want 1", m.ActiveTime)
	}

	// 跨度 2 小时
	events = []schema.RawEvent{
		newEvent(schema.EventKeystrokeBurst, "s1", 0, nil),
		newEvent(schema.EventKeystrokeBurst, "s1", 2*60*60*1000, nil),
	}
	m = a.Aggregate("dev-1", "2026-08-20", events)
	if m.ActiveTime != 120 {
		t.Fatalf("activeTime = %v, want 120", m.ActiveTime)
	}
}

func TestAggregateDeterministic(t *testing.T) {
	a := NewEventAggregator(DefaultAggregatorConfig())
	base := int64(1_000_000)
	events := []schema.RawEvent{
		newEvent(schema.EventAIInvocation, "s1", base, nil),
		newEvent(schema.EventPaste, "s1", base+5_000, nil),
		newEvent(schema.EventKeystrokeBurst, "s1", base+30_000, nil),
		newEvent(schema.EventDebugAction, "s1", base+60_000, schema.JSONMap{"action": "test"}),
	}

	m1 := a.Aggregate("dev-1", "2026-08-20", events)
	m2 := a.Aggregate("dev-1", "2026-08-20", events)
	if *m1 != *m2 {
		t.Fatalf("aggregation not deterministic: %+v vs %+v", m1, m2)
	}
}
