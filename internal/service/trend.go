package service

import "math"

// Trend 趋势标签
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

// TrendConfig 趋势分析阈值配置
type TrendConfig struct {
	MinPoints           int     // 少于该点数直接判 stable
	RollingWindow       int     // 滚动均值窗口
	RollingMinPoints    int     // 滚动均值法的最小点数
	RollingThreshold    float64 // 滚动均值相对变化阈值
	RegressionMinPoints int     // 回归法的最小点数
	SlopeThreshold      float64 // 均值归一化斜率阈值（每步）
	RecentMinPoints     int     // 加权对比法的最小点数
	RecentWeight        float64 // 近期偏差权重
	HistoryWeight       float64 // 全期偏差权重
	WeightedThreshold   float64 // 加权偏差阈值
}

// DefaultTrendConfig 默认趋势配置
func DefaultTrendConfig() TrendConfig {
	return TrendConfig{
		MinPoints:           3,
		RollingWindow:       7,
		RollingMinPoints:    7,
		RollingThreshold:    0.05,
		RegressionMinPoints: 5,
		SlopeThreshold:      0.01,
		RecentMinPoints:     7,
		RecentWeight:        0.7,
		HistoryWeight:       0.3,
		WeightedThreshold:   0.10,
	}
}

// TrendAnalyzer 趋势分析器：三种独立统计方法各投一票，多数决。
// 单一方法在日粒度行为数据上方向极易翻转，投票是为了稳定呈现给用户的标签。
// 纯函数实现，不依赖任何存储。
type TrendAnalyzer struct {
	cfg TrendConfig
}

// NewTrendAnalyzer 创建趋势分析器
func NewTrendAnalyzer(cfg TrendConfig) *TrendAnalyzer {
	return &TrendAnalyzer{cfg: cfg}
}

// Classify 对历史序列分类，以序列末值为"当前值"
func (t *TrendAnalyzer) Classify(history []float64) Trend {
	if len(history) == 0 {
		return TrendStable
	}
	return t.ClassifyWithCurrent(history, history[len(history)-1])
}

// ClassifyWithCurrent 对历史序列分类，显式给定当前值。
// 历史不足 MinPoints 时不做猜测，直接返回 stable。
func (t *TrendAnalyzer) ClassifyWithCurrent(history []float64, current float64) Trend {
	if len(history) < t.cfg.MinPoints {
		return TrendStable
	}

	votes := []Trend{
		t.rollingAverageVote(history),
		t.regressionVote(history),
		t.weightedComparisonVote(history, current),
	}
	return majorityVote(votes)
}

// rollingAverageVote 滚动均值法：末端滚动均值 vs 序列中点处的滚动均值
func (t *TrendAnalyzer) rollingAverageVote(history []float64) Trend {
	if len(history) < t.cfg.RollingMinPoints {
		return TrendStable // 点数不足，弃权
	}

	rolling := rollingAverages(history, t.cfg.RollingWindow)
	if len(rolling) == 0 {
		return TrendStable
	}

	last := rolling[len(rolling)-1]
	mid := rolling[len(rolling)/2]
	if math.Abs(mid) < 1e-9 {
		return TrendStable
	}

	change := (last - mid) / math.Abs(mid)
	if change > t.cfg.RollingThreshold {
		return TrendImproving
	}
	if change < -t.cfg.RollingThreshold {
		return TrendDeclining
	}
	return TrendStable
}

// regressionVote 线性回归法：OLS 斜率按序列均值归一化
func (t *TrendAnalyzer) regressionVote(history []float64) Trend {
	if len(history) < t.cfg.RegressionMinPoints {
		return TrendStable
	}

	m := mean(history)
	if math.Abs(m) < 1e-9 {
		return TrendStable
	}

	normalized := olsSlope(history) / math.Abs(m)
	if normalized > t.cfg.SlopeThreshold {
		return TrendImproving
	}
	if normalized < -t.cfg.SlopeThreshold {
		return TrendDeclining
	}
	return TrendStable
}

// weightedComparisonVote 加权对比法：当前值相对近 7 日均值与全期均值的加权偏差
func (t *TrendAnalyzer) weightedComparisonVote(history []float64, current float64) Trend {
	if len(history) < t.cfg.RecentMinPoints {
		return TrendStable
	}

	recent := mean(history[len(history)-t.cfg.RollingWindow:])
	full := mean(history)
	if math.Abs(recent) < 1e-9 || math.Abs(full) < 1e-9 {
		return TrendStable
	}

	weighted := t.cfg.RecentWeight*(current-recent)/recent + t.cfg.HistoryWeight*(current-full)/full
	if weighted > t.cfg.WeightedThreshold {
		return TrendImproving
	}
	if weighted < -t.cfg.WeightedThreshold {
		return TrendDeclining
	}
	return TrendStable
}

// majorityVote 多数决：两票及以上取胜；1-1-1 平票回落到 stable
func majorityVote(votes []Trend) Trend {
	counts := make(map[Trend]int, 3)
	for _, v := range votes {
		counts[v]++
	}
	if counts[TrendImproving] >= 2 {
		return TrendImproving
	}
	if counts[TrendDeclining] >= 2 {
		return TrendDeclining
	}
	return TrendStable
}

// rollingAverages 计算尾随 window 点滚动均值序列（前 window-1 个位置无值）
func rollingAverages(series []float64, window int) []float64 {
	if window <= 0 || len(series) < window {
		return nil
	}
	out := make([]float64, 0, len(series)-window+1)
	var sum float64
	for i, v := range series {
		sum += v
		if i >= window {
			sum -= series[i-window]
		}
		if i >= window-1 {
			out = append(out, sum/float64(window))
		}
	}
	return out
}

// mean 算术均值，空序列为 0
func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// olsSlope 以索引为自变量的最小二乘斜率
func olsSlope(ys []float64) float64 {
	n := len(ys)
	if n < 2 {
		return 0
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range ys {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	if math.Abs(denom) < 1e-12 {
		return 0
	}
	return (fn*sumXY - sumX*sumY) / denom
}
