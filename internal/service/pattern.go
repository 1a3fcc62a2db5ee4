package service

import "math"

// Pattern 改进形态标签
type Pattern string

const (
	PatternAccelerating Pattern = "accelerating"
	PatternSteady       Pattern = "steady"
	PatternPlateauing   Pattern = "plateauing"
)

// PatternConfig 形态检测阈值配置
type PatternConfig struct {
	MinPoints        int     // 少于该点数直接判 steady
	AccelWindow      int     // 二阶导取均值的末端窗口
	VelocityWindow   int     // 一阶导取均值的末端窗口
	AccelThreshold   float64 // 二阶导均值超过该值（且一阶导为正）判加速
	PlateauThreshold float64 // 一阶导均值绝对值低于该值判平台期
}

// DefaultPatternConfig 默认形态配置
func DefaultPatternConfig() PatternConfig {
	return PatternConfig{
		MinPoints:        5,
		AccelWindow:      3,
		VelocityWindow:   5,
		AccelThreshold:   0.01,
		PlateauThreshold: 0.005,
	}
}

// PatternDetector 改进形态检测器：基于一阶/二阶差分判断改进是在加速、
// 平稳推进还是进入平台期。纯函数实现，便于独立模糊测试。
type PatternDetector struct {
	cfg PatternConfig
}

// NewPatternDetector 创建形态检测器
func NewPatternDetector(cfg PatternConfig) *PatternDetector {
	return &PatternDetector{cfg: cfg}
}

// Classify 对单条序列分类。点数不足 MinPoints 时返回 steady。
func (d *PatternDetector) Classify(series []float64) Pattern {
	if len(series) < d.cfg.MinPoints {
		return PatternSteady
	}

	first := successiveDiffs(series)
	second := successiveDiffs(first)

	velocity := meanLast(first, d.cfg.VelocityWindow)
	acceleration := meanLast(second, d.cfg.AccelWindow)

	if acceleration > d.cfg.AccelThreshold && velocity > 0 {
		return PatternAccelerating
	}
	if math.Abs(velocity) < d.cfg.PlateauThreshold {
		return PatternPlateauing
	}
	return PatternSteady
}

// ImprovementSummary 三个关注领域的形态汇总
type ImprovementSummary struct {
	PromptPattern     Pattern `json:"prompt_pattern"`     // 提示词效率
	ResolutionPattern Pattern `json:"resolution_pattern"` // 错误解决（取倒数后方向向上为好）
	RefinementPattern Pattern `json:"refinement_pattern"` // 人工润色比例

	// HasConsistentImprovement 三个领域中至少两个处于 accelerating 或 steady
	HasConsistentImprovement bool `json:"has_consistent_improvement"`
	// ImprovementRate 三条序列串联后的非负回归斜率（百分比）
	ImprovementRate float64 `json:"improvement_rate"`
}

// Summarize 汇总三个领域的改进形态。
// resolutionSeries 传原始解决时长（分钟），内部取 1/(t+1) 反转，
// 使"解决更快"与其他序列一样表现为向上改进。
func (d *PatternDetector) Summarize(promptSeries, resolutionSeries, refinementSeries []float64) ImprovementSummary {
	inverted := InvertResolutionSeries(resolutionSeries)

	s := ImprovementSummary{
		PromptPattern:     d.Classify(promptSeries),
		ResolutionPattern: d.Classify(inverted),
		RefinementPattern: d.Classify(refinementSeries),
	}

	positive := 0
	for _, p := range []Pattern{s.PromptPattern, s.ResolutionPattern, s.RefinementPattern} {
		if p == PatternAccelerating || p == PatternSteady {
			positive++
		}
	}
	s.HasConsistentImprovement = positive >= 2

	combined := make([]float64, 0, len(promptSeries)+len(inverted)+len(refinementSeries))
	combined = append(combined, promptSeries...)
	combined = append(combined, inverted...)
	combined = append(combined, refinementSeries...)
	if slope := olsSlope(combined); slope > 0 {
		s.ImprovementRate = slope * 100
	}

	return s
}

// InvertResolutionSeries 把解决时长序列反转为"越大越好"的序列：1/(t+1)
func InvertResolutionSeries(series []float64) []float64 {
	out := make([]float64, len(series))
	for i, t := range series {
		out[i] = 1 / (t + 1)
	}
	return out
}

// successiveDiffs 相邻差分
func successiveDiffs(xs []float64) []float64 {
	if len(xs) < 2 {
		return nil
	}
	out := make([]float64, len(xs)-1)
	for i := 1; i < len(xs); i++ {
		out[i-1] = xs[i] - xs[i-1]
	}
	return out
}

// meanLast 末端 n 个元素的均值；元素不足 n 时取全部
func meanLast(xs []float64, n int) float64 {
	if len(xs) == 0 {
		return 0
	}
	if n > len(xs) {
		n = len(xs)
	}
	return mean(xs[len(xs)-n:])
}
