package schema

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// RawEvent 原始交互事件 - 由编辑器侧采集端上报（已脱敏，仅含时序与规模元数据）
// 数据量级：百万级/年
type RawEvent struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	DeveloperID string    `gorm:"size:64;index:idx_dev_ts" json:"developer_id"` // 开发者标识
	Timestamp   int64     `gorm:"index:idx_dev_ts" json:"timestamp"`            // Unix 时间戳 (毫秒)
	EventType   string    `gorm:"size:32;index" json:"event_type"`              // 事件类型
	SessionID   string    `gorm:"size:64;index" json:"session_id"`              // 会话标识
	Metadata    JSONMap   `gorm:"type:text" json:"metadata"`                    // 扩展字段（按事件类型约定）
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 指定表名
func (RawEvent) TableName() string {
	return "raw_events"
}

// 事件类型。核心只识别这六种，其余事件在入库前被采集端过滤。
const (
	EventKeystrokeBurst = "keystroke_burst" // 连续键入
	EventPaste          = "paste"           // 粘贴
	EventAIInvocation   = "ai_invocation"   // AI 工具调用
	EventDebugAction    = "debug_action"    // 调试动作，metadata.action ∈ run/debug/test
	EventFileSwitch     = "file_switch"     // 文件切换
	EventErrorMarker    = "error_marker"    // 错误标记，metadata.status ∈ appeared/resolved
)

// debug_action 的子动作
const (
	DebugActionRun   = "run"
	DebugActionDebug = "debug"
	DebugActionTest  = "test"
)

// error_marker 的状态
const (
	ErrorStatusAppeared = "appeared"
	ErrorStatusResolved = "resolved"
)

// MetaString 读取 metadata 中的字符串字段，缺失时返回空串
func (e *RawEvent) MetaString(key string) string {
	if e == nil || e.Metadata == nil {
		return ""
	}
	if s, ok := e.Metadata[key].(string); ok {
		return s
	}
	return ""
}

// JSONMap 用于存储 JSON 格式的元数据
type JSONMap map[string]interface{}

// Value 实现 driver.Valuer 接口
func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return "{}", nil
	}
	return json.Marshal(j)
}

// Scan 实现 sql.Scanner 接口
func (j *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSONMap)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("invalid type for JSONMap")
	}

	return json.Unmarshal(bytes, j)
}

// JSONArray 用于存储 JSON 数组
type JSONArray []string

// Value 实现 driver.Valuer 接口
func (j JSONArray) Value() (driver.Value, error) {
	if j == nil {
		return "[]", nil
	}
	return json.Marshal(j)
}

// Scan 实现 sql.Scanner 接口
func (j *JSONArray) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSONArray, 0)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*j = make(JSONArray, 0)
		return nil
	}

	return json.Unmarshal(bytes, j)
}
