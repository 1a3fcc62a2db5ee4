package service

import (
	"fmt"
	"math"

	"github.com/mingze-w/DevLens/internal/schema"
)

// ScoreConfig 评分权重配置。所有权重显式成字段而非包级常量，
// 单测可以用替代阈值构造确定性的断言。
type ScoreConfig struct {
	// 提示词成熟度 = 0.4·效率(0-100) + 润色项(×30) + 协助等级加成
	PromptEfficiencyWeight float64 // 0.4
	RefinementTermScale    float64 // 30
	RefinementHighBar      float64 // 0.8，超过后直接奖励比例本身
	BonusAssistMedium      float64 // 30
	BonusAssistLow         float64 // 20
	BonusAssistHigh        float64 // 15

	// 调试能力 = 风格加成 + 归一化解决时长(×35) + 独立性(×25)
	StyleBonusHypothesis  float64 // 40
	StyleBonusMixed       float64 // 25
	StyleBonusTrial       float64 // 10
	ResolutionBestMinutes float64 // 10 分钟及以下拿满
	ResolutionWorstMin    float64 // 60 分钟及以上为 0
	ResolutionScale       float64 // 35
	IndependenceScale     float64 // 25

	// AI 协作 = 润色(×40) + 效率(×35) + 平衡加成
	CollabRefinementScale float64 // 40
	CollabEfficiencyScale float64 // 35
	DependencyHighBar     float64 // 0.8，过度依赖
	DependencyLowBar      float64 // 0.2，几乎不用
	BalanceBonusHigh      float64 // 10
	BalanceBonusLow       float64 // 15
	BalanceBonusMid       float64 // 25

	// 依赖等级分档
	DependencyLevelHigh   float64 // >0.7 → high
	DependencyLevelMedium float64 // >0.3 → medium
}

// DefaultScoreConfig 默认评分配置
func DefaultScoreConfig() ScoreConfig {
	return ScoreConfig{
		PromptEfficiencyWeight: 0.4,
		RefinementTermScale:    30,
		RefinementHighBar:      0.8,
		BonusAssistMedium:      30,
		BonusAssistLow:         20,
		BonusAssistHigh:        15,
		StyleBonusHypothesis:   40,
		StyleBonusMixed:        25,
		StyleBonusTrial:        10,
		ResolutionBestMinutes:  10,
		ResolutionWorstMin:     60,
		ResolutionScale:        35,
		IndependenceScale:      25,
		CollabRefinementScale:  40,
		CollabEfficiencyScale:  35,
		DependencyHighBar:      0.8,
		DependencyLowBar:       0.2,
		BalanceBonusHigh:       10,
		BalanceBonusLow:        15,
		BalanceBonusMid:        25,
		DependencyLevelHigh:    0.7,
		DependencyLevelMedium:  0.3,
	}
}

// AssessmentGenerator 技能评估生成器：当日指标 + 历史窗口 → 未加抖动的评估。
// 相同输入必须产出相同结果（抖动在标准化器里，不在这里）。
type AssessmentGenerator struct {
	cfg      ScoreConfig
	trends   *TrendAnalyzer
	patterns *PatternDetector
}

// NewAssessmentGenerator 创建评估生成器
func NewAssessmentGenerator(cfg ScoreConfig, trends *TrendAnalyzer, patterns *PatternDetector) *AssessmentGenerator {
	return &AssessmentGenerator{cfg: cfg, trends: trends, patterns: patterns}
}

// Generate 生成原始（未加抖动）评估。
// today 为当日已标准化落库的指标；history 为该开发者更早的指标窗口（日期升序）。
func (g *AssessmentGenerator) Generate(today *schema.DailyMetrics, history []schema.DailyMetrics) *schema.SkillAssessment {
	promptSeries := extractSeries(history, func(m *schema.DailyMetrics) float64 { return m.PromptEfficiencyScore })
	resolutionSeries := extractSeries(history, func(m *schema.DailyMetrics) float64 { return m.ErrorResolutionTime })
	refinementSeries := extractSeries(history, func(m *schema.DailyMetrics) float64 { return m.HumanRefinementRatio })

	promptTrend := g.trends.ClassifyWithCurrent(promptSeries, today.PromptEfficiencyScore)
	// 解决时长取倒数后再判趋势，improving 统一表示"在变好"
	invertedResolution := InvertResolutionSeries(resolutionSeries)
	debugTrend := g.trends.ClassifyWithCurrent(invertedResolution, 1/(today.ErrorResolutionTime+1))
	collabTrend := g.trends.ClassifyWithCurrent(refinementSeries, today.HumanRefinementRatio)

	summary := g.patterns.Summarize(promptSeries, resolutionSeries, refinementSeries)

	promptScore := clampScore(g.promptMaturityScore(today))
	debugScore := clampScore(g.debuggingSkillScore(today))
	collabScore := clampScore(g.collaborationScore(today))

	return &schema.SkillAssessment{
		DeveloperID:    today.DeveloperID,
		AssessmentDate: today.Date,

		PromptScore:       promptScore,
		PromptTrend:       string(promptTrend),
		PromptExplanation: explainPrompt(today, promptScore, promptTrend, summary.PromptPattern),

		DebugScore:       debugScore,
		DebugStyle:       today.DebuggingStyle,
		DebugTrend:       string(debugTrend),
		DebugExplanation: explainDebugging(today, debugScore, debugTrend, summary.ResolutionPattern),

		CollabScore:       collabScore,
		DependencyLevel:   g.dependencyLevel(today.AIDependencyRatio),
		RefinementSkill:   int(math.Round(today.HumanRefinementRatio * 100)),
		CollabTrend:       string(collabTrend),
		CollabExplanation: explainCollaboration(today, collabScore, collabTrend, summary.RefinementPattern),
	}
}

// promptMaturityScore 提示词成熟度综合分
func (g *AssessmentGenerator) promptMaturityScore(m *schema.DailyMetrics) float64 {
	// 效率存储为 [0,1]，仅在此处换算到百分制
	efficiency := g.cfg.PromptEfficiencyWeight * m.PromptEfficiencyScore * 100

	// 润色比例很高说明在认真审查 AI 输出；很低则反过来视为提示词
	// 本身已足够好（不需要改），两端都给分，中间地带得分最低。
	var refinement float64
	if m.HumanRefinementRatio > g.cfg.RefinementHighBar {
		refinement = m.HumanRefinementRatio * g.cfg.RefinementTermScale
	} else {
		refinement = (1 - m.HumanRefinementRatio) * g.cfg.RefinementTermScale
	}

	var bonus float64
	switch m.AIAssistanceLevel {
	case schema.AssistanceMedium:
		bonus = g.cfg.BonusAssistMedium
	case schema.AssistanceLow:
		bonus = g.cfg.BonusAssistLow
	case schema.AssistanceHigh:
		bonus = g.cfg.BonusAssistHigh
	}

	return efficiency + refinement + bonus
}

// debuggingSkillScore 调试能力综合分
func (g *AssessmentGenerator) debuggingSkillScore(m *schema.DailyMetrics) float64 {
	var style float64
	switch m.DebuggingStyle {
	case schema.StyleHypothesisDriven:
		style = g.cfg.StyleBonusHypothesis
	case schema.StyleMixed:
		style = g.cfg.StyleBonusMixed
	case schema.StyleTrialAndError:
		style = g.cfg.StyleBonusTrial
	}

	// 10 分钟内解决拿满，60 分钟以上为 0，线性过渡
	span := g.cfg.ResolutionWorstMin - g.cfg.ResolutionBestMinutes
	resolution := clamp01((g.cfg.ResolutionWorstMin-m.ErrorResolutionTime)/span) * g.cfg.ResolutionScale

	independence := (1 - m.AIDependencyRatio) * g.cfg.IndependenceScale

	return style + resolution + independence
}

// collaborationScore AI 协作平衡综合分
func (g *AssessmentGenerator) collaborationScore(m *schema.DailyMetrics) float64 {
	refinement := m.HumanRefinementRatio * g.cfg.CollabRefinementScale
	efficiency := m.PromptEfficiencyScore * g.cfg.CollabEfficiencyScale

	var balance float64
	switch {
	case m.AIDependencyRatio > g.cfg.DependencyHighBar:
		balance = g.cfg.BalanceBonusHigh
	case m.AIDependencyRatio < g.cfg.DependencyLowBar:
		balance = g.cfg.BalanceBonusLow
	default:
		balance = g.cfg.BalanceBonusMid
	}

	return refinement + efficiency + balance
}

// dependencyLevel 依赖等级分档
func (g *AssessmentGenerator) dependencyLevel(ratio float64) string {
	switch {
	case ratio > g.cfg.DependencyLevelHigh:
		return schema.AssistanceHigh
	case ratio > g.cfg.DependencyLevelMedium:
		return schema.AssistanceMedium
	default:
		return schema.AssistanceLow
	}
}

// extractSeries 从历史指标抽取单字段序列（保持日期升序）
func extractSeries(history []schema.DailyMetrics, pick func(*schema.DailyMetrics) float64) []float64 {
	out := make([]float64, len(history))
	for i := range history {
		out[i] = pick(&history[i])
	}
	return out
}

// clampScore 将分数夹取到 [0,100]
func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// ========== 解释文本 ==========
// 模板按 (分数带, 趋势, 形态) 拼接；同样的数值输入必须产出同样的文本，
// 并且只引用真实算出来的指标值。

// scoreBand 分数带描述
func scoreBand(score float64) string {
	switch {
	case score >= 75:
		return "表现出色"
	case score >= 50:
		return "表现良好"
	default:
		return "仍有提升空间"
	}
}

// trendClause 趋势子句
func trendClause(trend Trend, subject string) string {
	switch trend {
	case TrendImproving:
		return subject + "近期呈上升趋势"
	case TrendDeclining:
		return subject + "近期有所下滑"
	default:
		return subject + "整体保持稳定"
	}
}

// patternClause 形态子句
func patternClause(pattern Pattern) string {
	switch pattern {
	case PatternAccelerating:
		return "且改进速度在加快"
	case PatternPlateauing:
		return "改进已进入平台期"
	default:
		return "保持着平稳的改进节奏"
	}
}

func explainPrompt(m *schema.DailyMetrics, score float64, trend Trend, pattern Pattern) string {
	return fmt.Sprintf("当日提示词效率 %.2f，AI 协助等级为 %s，提示词成熟度 %.0f 分，%s。%s，%s。",
		m.PromptEfficiencyScore, m.AIAssistanceLevel, score, scoreBand(score),
		trendClause(trend, "提示词效率"), patternClause(pattern))
}

func explainDebugging(m *schema.DailyMetrics, score float64, trend Trend, pattern Pattern) string {
	return fmt.Sprintf("调试风格为 %s，平均错误解决时长 %.1f 分钟，调试能力 %.0f 分，%s。%s，%s。",
		m.DebuggingStyle, m.ErrorResolutionTime, score, scoreBand(score),
		trendClause(trend, "错误解决速度"), patternClause(pattern))
}

func explainCollaboration(m *schema.DailyMetrics, score float64, trend Trend, pattern Pattern) string {
	return fmt.Sprintf("AI 依赖度 %.2f，人工润色比例 %.2f，协作平衡 %.0f 分，%s。%s，%s。",
		m.AIDependencyRatio, m.HumanRefinementRatio, score, scoreBand(score),
		trendClause(trend, "人工润色比例"), patternClause(pattern))
}
