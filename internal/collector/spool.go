package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mingze-w/DevLens/internal/schema"
)

// EventSink 采集器写入端的最小接口
type EventSink interface {
	BatchInsert(ctx context.Context, events []schema.RawEvent) error
}

// SpoolCollectorConfig 配置
type SpoolCollectorConfig struct {
	Dir               string // 采集端投递批文件的目录
	RescanIntervalSec int    // 周期性全量扫描间隔（fsnotify 丢事件时兜底）
	MaxAgeDays        int    // 事件最大回溯天数
	MaxFutureSkewMin  int    // 允许的最大未来偏移（分钟）
}

// DefaultSpoolCollectorConfig 默认配置
func DefaultSpoolCollectorConfig() *SpoolCollectorConfig {
	return &SpoolCollectorConfig{
		RescanIntervalSec: 60,
		MaxAgeDays:        7,
		MaxFutureSkewMin:  5,
	}
}

// SpoolCollector 批文件采集器：监听 spool 目录，把采集端落盘的
// JSON 批文件解析入库。时间窗与字段校验在这里完成，核心引擎
// 只消费已验证的事件。处理完的文件移动到 done/，失败的移动到 failed/。
type SpoolCollector struct {
	cfg      *SpoolCollectorConfig
	sink     EventSink
	watcher  *fsnotify.Watcher
	stopOnce sync.Once
	stopChan chan struct{}
	now      func() time.Time // 测试注入
}

// NewSpoolCollector 创建采集器
func NewSpoolCollector(cfg *SpoolCollectorConfig, sink EventSink) (*SpoolCollector, error) {
	if cfg == nil {
		cfg = DefaultSpoolCollectorConfig()
	}
	if cfg.Dir == "" {
		return nil, fmt.Errorf("spool 目录不能为空")
	}

	for _, sub := range []string{"", "done", "failed"} {
		if err := os.MkdirAll(filepath.Join(cfg.Dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("创建 spool 目录失败: %w", err)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("创建文件监控器失败: %w", err)
	}
	if err := watcher.Add(cfg.Dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("监听 spool 目录失败: %w", err)
	}

	return &SpoolCollector{
		cfg:      cfg,
		sink:     sink,
		watcher:  watcher,
		stopChan: make(chan struct{}),
		now:      time.Now,
	}, nil
}

// Start 启动监听（阻塞直到 ctx 取消或 Stop）
func (c *SpoolCollector) Start(ctx context.Context) {
	slog.Info("Spool 采集器启动", "dir", c.cfg.Dir)

	// 启动时先处理存量文件
	c.scan(ctx)

	interval := time.Duration(c.cfg.RescanIntervalSec) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopChan:
			return
		case evt, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if evt.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !strings.HasSuffix(evt.Name, ".json") {
				continue
			}
			// 写入可能尚未完成，稍等再读
			time.Sleep(200 * time.Millisecond)
			c.processFile(ctx, evt.Name)
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("文件监控错误", "error", err)
		case <-ticker.C:
			c.scan(ctx)
		}
	}
}

// Stop 停止采集
func (c *SpoolCollector) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopChan)
		_ = c.watcher.Close()
	})
}

// scan 全量扫描 spool 目录
func (c *SpoolCollector) scan(ctx context.Context) {
	entries, err := os.ReadDir(c.cfg.Dir)
	if err != nil {
		slog.Warn("扫描 spool 目录失败", "error", err)
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		c.processFile(ctx, filepath.Join(c.cfg.Dir, entry.Name()))
	}
}

// batchEnvelope 批文件格式
type batchEnvelope struct {
	Events []incomingEvent `json:"events"`
}

// incomingEvent 采集端上报的单条事件
type incomingEvent struct {
	DeveloperID string         `json:"developer_id"`
	Timestamp   int64          `json:"timestamp"`
	EventType   string         `json:"event_type"`
	SessionID   string         `json:"session_id"`
	Metadata    map[string]any `json:"metadata"`
}

// processFile 解析并入库一个批文件
func (c *SpoolCollector) processFile(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return // 已被并发处理
		}
		slog.Warn("读取批文件失败", "path", path, "error", err)
		return
	}

	var envelope batchEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		slog.Warn("解析批文件失败", "path", path, "error", err)
		c.moveTo(path, "failed")
		return
	}

	now := c.now()
	valid := make([]schema.RawEvent, 0, len(envelope.Events))
	dropped := 0
	for _, in := range envelope.Events {
		if err := c.validateEvent(&in, now); err != nil {
			dropped++
			continue
		}
		valid = append(valid, schema.RawEvent{
			DeveloperID: in.DeveloperID,
			Timestamp:   in.Timestamp,
			EventType:   in.EventType,
			SessionID:   in.SessionID,
			Metadata:    schema.JSONMap(in.Metadata),
		})
	}

	if len(valid) > 0 {
		if err := c.sink.BatchInsert(ctx, valid); err != nil {
			slog.Error("批文件入库失败", "path", path, "error", err)
			c.moveTo(path, "failed")
			return
		}
	}

	slog.Info("批文件已入库", "path", filepath.Base(path), "inserted", len(valid), "dropped", dropped)
	c.moveTo(path, "done")
}

// validateEvent 校验单条事件：必填字段、已知类型、时间窗
func (c *SpoolCollector) validateEvent(in *incomingEvent, now time.Time) error {
	if in.DeveloperID == "" {
		return fmt.Errorf("developer_id 为空")
	}
	if in.SessionID == "" {
		return fmt.Errorf("session_id 为空")
	}

	switch in.EventType {
	case schema.EventKeystrokeBurst, schema.EventPaste, schema.EventAIInvocation,
		schema.EventDebugAction, schema.EventFileSwitch, schema.EventErrorMarker:
	default:
		return fmt.Errorf("未知事件类型 %q", in.EventType)
	}

	oldest := now.AddDate(0, 0, -c.cfg.MaxAgeDays).UnixMilli()
	newest := now.Add(time.Duration(c.cfg.MaxFutureSkewMin) * time.Minute).UnixMilli()
	if in.Timestamp < oldest || in.Timestamp > newest {
		return fmt.Errorf("时间戳 %d 超出接收窗口", in.Timestamp)
	}

	return nil
}

// moveTo 移动文件到子目录，失败时仅告警
func (c *SpoolCollector) moveTo(path, sub string) {
	target := filepath.Join(c.cfg.Dir, sub, filepath.Base(path))
	if err := os.Rename(path, target); err != nil && !os.IsNotExist(err) {
		slog.Warn("移动批文件失败", "path", path, "target", target, "error", err)
	}
}
