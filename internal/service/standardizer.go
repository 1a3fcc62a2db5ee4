package service

import (
	"math"
	"math/rand/v2"

	"github.com/mingze-w/DevLens/internal/schema"
)

// ConfidenceLevel 标准化后数值的置信等级：抖动造成的相对变化越小置信越高
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// StandardizerConfig 标准化配置。
// 比例/时长字段的抖动幅度 = JitterFraction × 字段期望方差，
// 分数字段直接 ±ScoreJitterPoints 分。
type StandardizerConfig struct {
	JitterEnabled bool

	RatioJitterFraction float64 // 0.05
	ScoreJitterPoints   float64 // 2

	// 各字段的期望方差（抖动幅度的参考基准）
	RatioVariance         float64 // 比例字段，0.1
	ResolutionVarianceMin float64 // 解决时长（分钟），5
	ActiveTimeVarianceMin float64 // 活跃时长（分钟），10

	// 置信等级分档（相对变化）
	HighConfidenceRel   float64 // <5% → high
	MediumConfidenceRel float64 // <15% → medium
}

// DefaultStandardizerConfig 默认标准化配置
func DefaultStandardizerConfig() StandardizerConfig {
	return StandardizerConfig{
		JitterEnabled:         true,
		RatioJitterFraction:   0.05,
		ScoreJitterPoints:     2,
		RatioVariance:         0.1,
		ResolutionVarianceMin: 5,
		ActiveTimeVarianceMin: 10,
		HighConfidenceRel:     0.05,
		MediumConfidenceRel:   0.15,
	}
}

// randSource 随机源注入点：生产用真随机，测试注入固定序列即可确定性断言
type randSource interface {
	Float64() float64
}

// Standardizer 测量标准化器：所有出核心的数值都要过这里。
// 抖动是有意为之的隐私控制——同一底层行为的重复读取不应产出
// 比特级相同的数值，避免对开发者行为做精确指纹。
// 抖动后重新夹取回字段定义域。
type Standardizer struct {
	cfg StandardizerConfig
	rng randSource
}

// NewStandardizer 创建标准化器。rng 为 nil 时使用独立的真随机源。
func NewStandardizer(cfg StandardizerConfig, rng randSource) *Standardizer {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Standardizer{cfg: cfg, rng: rng}
}

// FieldConfidence 单字段的标准化置信
type FieldConfidence struct {
	Field      string          `json:"field"`
	Confidence ConfidenceLevel `json:"confidence"`
}

// StandardizeMetrics 就地标准化每日指标，返回各数值字段的置信等级
func (s *Standardizer) StandardizeMetrics(m *schema.DailyMetrics) []FieldConfidence {
	if m == nil {
		return nil
	}

	out := make([]FieldConfidence, 0, 5)
	var conf ConfidenceLevel

	m.HumanRefinementRatio, conf = s.jitterInto(m.HumanRefinementRatio, s.cfg.RatioVariance, 0, 1)
	out = append(out, FieldConfidence{Field: "human_refinement_ratio", Confidence: conf})

	m.PromptEfficiencyScore, conf = s.jitterInto(m.PromptEfficiencyScore, s.cfg.RatioVariance, 0, 1)
	out = append(out, FieldConfidence{Field: "prompt_efficiency_score", Confidence: conf})

	m.AIDependencyRatio, conf = s.jitterInto(m.AIDependencyRatio, s.cfg.RatioVariance, 0, 1)
	out = append(out, FieldConfidence{Field: "ai_dependency_ratio", Confidence: conf})

	m.ErrorResolutionTime, conf = s.jitterInto(m.ErrorResolutionTime, s.cfg.ResolutionVarianceMin, 0, math.MaxFloat64)
	out = append(out, FieldConfidence{Field: "error_resolution_time", Confidence: conf})

	// 有事件的日子活跃时长下界是 1 分钟，抖动不能把它压到界外
	lo := 0.0
	if m.ActiveTime >= 1 {
		lo = 1
	}
	m.ActiveTime, conf = s.jitterInto(m.ActiveTime, s.cfg.ActiveTimeVarianceMin, lo, math.MaxFloat64)
	out = append(out, FieldConfidence{Field: "active_time", Confidence: conf})

	return out
}

// StandardizeAssessment 就地标准化技能评估，返回分数字段的置信等级
func (s *Standardizer) StandardizeAssessment(a *schema.SkillAssessment) []FieldConfidence {
	if a == nil {
		return nil
	}

	out := make([]FieldConfidence, 0, 3)
	var conf ConfidenceLevel

	a.PromptScore, conf = s.jitterScore(a.PromptScore)
	out = append(out, FieldConfidence{Field: "prompt_score", Confidence: conf})

	a.DebugScore, conf = s.jitterScore(a.DebugScore)
	out = append(out, FieldConfidence{Field: "debug_score", Confidence: conf})

	a.CollabScore, conf = s.jitterScore(a.CollabScore)
	out = append(out, FieldConfidence{Field: "collab_score", Confidence: conf})

	return out
}

// jitterInto 对比例/时长字段加抖动并夹取到 [lo, hi]
func (s *Standardizer) jitterInto(v, variance, lo, hi float64) (float64, ConfidenceLevel) {
	if !s.cfg.JitterEnabled {
		return clampRange(v, lo, hi), ConfidenceHigh
	}

	// 每个字段独立抽样，绝不跨字段/跨运行复用
	delta := (s.rng.Float64()*2 - 1) * s.cfg.RatioJitterFraction * variance
	jittered := clampRange(v+delta, lo, hi)
	return jittered, s.confidence(v, jittered)
}

// jitterScore 对 0-100 分数加 ±ScoreJitterPoints 抖动并夹取
func (s *Standardizer) jitterScore(v float64) (float64, ConfidenceLevel) {
	if !s.cfg.JitterEnabled {
		return clampScore(v), ConfidenceHigh
	}

	delta := (s.rng.Float64()*2 - 1) * s.cfg.ScoreJitterPoints
	jittered := clampScore(v + delta)
	return jittered, s.confidence(v, jittered)
}

// confidence 按相对变化分档
func (s *Standardizer) confidence(before, after float64) ConfidenceLevel {
	denom := math.Abs(before)
	if denom < 1e-9 {
		if math.Abs(after-before) < 1e-9 {
			return ConfidenceHigh
		}
		return ConfidenceMedium
	}

	rel := math.Abs(after-before) / denom
	switch {
	case rel < s.cfg.HighConfidenceRel:
		return ConfidenceHigh
	case rel < s.cfg.MediumConfidenceRel:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// clampRange 将数值夹取到 [lo, hi]
func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
