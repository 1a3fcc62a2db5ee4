package service

import "github.com/mingze-w/DevLens/internal/schema"

// errorIntervalTracker 错误区间状态机：每个会话最多一个未决错误区间。
// 状态转移：
//   - appeared：开启区间；若已有未决区间，则以新时间戳替换起点
//     （重复报错通常意味着前一次是瞬态噪声，重置计时避免解决时长被抬高）。
//   - resolved：关闭该会话的未决区间；无未决区间时忽略。
type errorIntervalTracker struct {
	open      map[string]int64 // sessionID -> 区间起点（毫秒）
	durations []float64        // 已闭合区间时长（分钟）
}

func newErrorIntervalTracker() *errorIntervalTracker {
	return &errorIntervalTracker{open: make(map[string]int64)}
}

// observe 处理一条 error_marker 事件
func (t *errorIntervalTracker) observe(sessionID, status string, ts int64) {
	switch status {
	case schema.ErrorStatusAppeared:
		t.open[sessionID] = ts
	case schema.ErrorStatusResolved:
		since, ok := t.open[sessionID]
		if !ok {
			return
		}
		delete(t.open, sessionID)
		if ts < since {
			return
		}
		t.durations = append(t.durations, float64(ts-since)/60000.0)
	}
}

// meanMinutes 已闭合区间的平均时长（分钟），无闭合区间时为 0
func (t *errorIntervalTracker) meanMinutes() float64 {
	if len(t.durations) == 0 {
		return 0
	}
	var sum float64
	for _, d := range t.durations {
		sum += d
	}
	return sum / float64(len(t.durations))
}
