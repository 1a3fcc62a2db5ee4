package service

import (
	"sort"

	"github.com/mingze-w/DevLens/internal/schema"
)

// AggregatorConfig 聚合阈值配置（显式传入，不用包级全局，便于测试替换）
type AggregatorConfig struct {
	RefinementFollowWindowMs int64   // paste 后人工键入的跟进窗口（毫秒）
	PromptAcceptWindowMs     int64   // ai_invocation 后粘贴接受窗口（毫秒）
	HighAIRatio              float64 // AI 调用占比超过该值视为 high（与 HighPasteRatio 同时满足）
	HighPasteRatio           float64
	MediumAIRatio            float64 // AI 调用或粘贴占比超过该值视为 medium
	MediumPasteRatio         float64
	HypothesisRatio          float64 // (debug+test)/总调试动作 超过该值为假设驱动
	TrialAndErrorRatio       float64 // run/总调试动作 超过该值为试错型
}

// DefaultAggregatorConfig 默认聚合配置
func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		RefinementFollowWindowMs: 5 * 60 * 1000,
		PromptAcceptWindowMs:     2 * 60 * 1000,
		HighAIRatio:              0.3,
		HighPasteRatio:           0.2,
		MediumAIRatio:            0.1,
		MediumPasteRatio:         0.1,
		HypothesisRatio:          0.6,
		TrialAndErrorRatio:       0.7,
	}
}

// EventAggregator 事件聚合器：把一个开发者一天的原始事件折叠为一行 DailyMetrics。
// 纯计算，无任何存储/网络副作用。
type EventAggregator struct {
	cfg AggregatorConfig
}

// NewEventAggregator 创建聚合器
func NewEventAggregator(cfg AggregatorConfig) *EventAggregator {
	return &EventAggregator{cfg: cfg}
}

// Aggregate 折叠一个开发者一天的事件。events 为空时返回 nil（当天无数据）。
func (a *EventAggregator) Aggregate(developerID, date string, events []schema.RawEvent) *schema.DailyMetrics {
	if len(events) == 0 {
		return nil
	}

	// 上游保证过滤与时间窗，这里只保证顺序
	sorted := make([]schema.RawEvent, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp < sorted[j].Timestamp })

	m := &schema.DailyMetrics{
		DeveloperID: developerID,
		Date:        date,
	}

	m.SessionCount = countSessions(sorted)
	m.ActiveTime = activeMinutes(sorted)
	m.AIAssistanceLevel = a.assistanceLevel(sorted)
	m.HumanRefinementRatio = a.refinementRatio(sorted)
	m.PromptEfficiencyScore = a.promptEfficiency(sorted)
	m.DebuggingStyle = a.debuggingStyle(sorted)
	m.ErrorResolutionTime = errorResolutionMinutes(sorted)
	m.AIDependencyRatio = dependencyRatio(sorted)

	return m
}

// countSessions 统计去重后的会话数
func countSessions(events []schema.RawEvent) int {
	seen := make(map[string]struct{})
	for _, e := range events {
		seen[e.SessionID] = struct{}{}
	}
	return len(seen)
}

// activeMinutes 活跃时长 = 首末事件跨度（分钟），至少 1。
// 这是粗粒度的跨度近似，不剔除中间空闲时间，属于有意保留的精度限制。
func activeMinutes(events []schema.RawEvent) float64 {
	first := events[0].Timestamp
	last := events[len(events)-1].Timestamp
	minutes := float64(last-first) / 60000.0
	if minutes < 1 {
		return 1
	}
	return minutes
}

// assistanceLevel AI 协助等级：按 AI 调用与粘贴在"生产性事件"中的占比分档
func (a *EventAggregator) assistanceLevel(events []schema.RawEvent) string {
	var ai, paste, keystroke int
	for _, e := range events {
		switch e.EventType {
		case schema.EventAIInvocation:
			ai++
		case schema.EventPaste:
			paste++
		case schema.EventKeystrokeBurst:
			keystroke++
		}
	}

	total := ai + paste + keystroke
	if total == 0 {
		return schema.AssistanceLow
	}

	rAI := float64(ai) / float64(total)
	rPaste := float64(paste) / float64(total)

	if rAI > a.cfg.HighAIRatio && rPaste > a.cfg.HighPasteRatio {
		return schema.AssistanceHigh
	}
	if rAI > a.cfg.MediumAIRatio || rPaste > a.cfg.MediumPasteRatio {
		return schema.AssistanceMedium
	}
	return schema.AssistanceLow
}

// refinementRatio 人工润色比例：粘贴后同会话 5 分钟内出现人工键入的粘贴占比。
// 没有任何粘贴时返回 1.0（无需润色的内容视为已被消化）。
func (a *EventAggregator) refinementRatio(events []schema.RawEvent) float64 {
	var pastes, refined int
	for i, e := range events {
		if e.EventType != schema.EventPaste {
			continue
		}
		pastes++
		deadline := e.Timestamp + a.cfg.RefinementFollowWindowMs
		for j := i + 1; j < len(events); j++ {
			next := events[j]
			if next.Timestamp > deadline {
				break
			}
			if next.EventType == schema.EventKeystrokeBurst && next.SessionID == e.SessionID {
				refined++
				break
			}
		}
	}

	if pastes == 0 {
		return 1.0
	}
	return clamp01(float64(refined) / float64(pastes))
}

// promptEfficiency 提示词效率：AI 调用后首个同会话粘贴的接受速度。
// 贡献值 = max(0, 1 − 接受耗时/窗口)，取匹配到的调用均值；
// 无调用或无匹配时返回 0.5（中性值）。
func (a *EventAggregator) promptEfficiency(events []schema.RawEvent) float64 {
	var sum float64
	var matched int
	for i, e := range events {
		if e.EventType != schema.EventAIInvocation {
			continue
		}
		deadline := e.Timestamp + a.cfg.PromptAcceptWindowMs
		for j := i + 1; j < len(events); j++ {
			next := events[j]
			if next.Timestamp > deadline {
				break
			}
			if next.EventType == schema.EventPaste && next.SessionID == e.SessionID {
				dt := float64(next.Timestamp - e.Timestamp)
				contribution := 1 - dt/float64(a.cfg.PromptAcceptWindowMs)
				if contribution < 0 {
					contribution = 0
				}
				sum += contribution
				matched++
				break
			}
		}
	}

	if matched == 0 {
		return 0.5
	}
	return clamp01(sum / float64(matched))
}

// debuggingStyle 调试风格：按 debug_action 子动作占比分类，无调试动作时为 mixed
func (a *EventAggregator) debuggingStyle(events []schema.RawEvent) string {
	var run, debug, test, total int
	for _, e := range events {
		if e.EventType != schema.EventDebugAction {
			continue
		}
		total++
		switch e.MetaString("action") {
		case schema.DebugActionRun:
			run++
		case schema.DebugActionDebug:
			debug++
		case schema.DebugActionTest:
			test++
		}
	}

	if total == 0 {
		return schema.StyleMixed
	}

	if float64(debug+test)/float64(total) > a.cfg.HypothesisRatio {
		return schema.StyleHypothesisDriven
	}
	if float64(run)/float64(total) > a.cfg.TrialAndErrorRatio {
		return schema.StyleTrialAndError
	}
	return schema.StyleMixed
}

// errorResolutionMinutes 平均错误解决时长（分钟），无闭合区间时为 0
func errorResolutionMinutes(events []schema.RawEvent) float64 {
	tracker := newErrorIntervalTracker()
	for _, e := range events {
		if e.EventType != schema.EventErrorMarker {
			continue
		}
		tracker.observe(e.SessionID, e.MetaString("status"), e.Timestamp)
	}
	return tracker.meanMinutes()
}

// dependencyRatio AI 依赖度 = (AI 调用 + 粘贴) / (AI 调用 + 粘贴 + 键入)，分母为 0 时取 0
func dependencyRatio(events []schema.RawEvent) float64 {
	var ai, paste, keystroke int
	for _, e := range events {
		switch e.EventType {
		case schema.EventAIInvocation:
			ai++
		case schema.EventPaste:
			paste++
		case schema.EventKeystrokeBurst:
			keystroke++
		}
	}

	denom := ai + paste + keystroke
	if denom == 0 {
		return 0
	}
	return float64(ai+paste) / float64(denom)
}

// clamp01 将数值夹取到 [0,1]
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
