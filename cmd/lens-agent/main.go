package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mingze-w/DevLens/internal/bootstrap"
	"github.com/mingze-w/DevLens/internal/collector"
	"github.com/mingze-w/DevLens/internal/eventbus"
	"github.com/mingze-w/DevLens/internal/pkg/buildinfo"
	"github.com/mingze-w/DevLens/internal/pkg/config"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfgPath, cfgErr := config.DefaultConfigPath()
	if cfgErr == nil {
		if _, err := os.Stat(cfgPath); errors.Is(err, os.ErrNotExist) {
			_ = config.WriteFile(cfgPath, config.Default())
		}
	}

	core, err := bootstrap.NewCore(cfgPath)
	if err != nil {
		slog.Error("启动 Agent 失败", "error", err)
		os.Exit(1)
	}
	defer core.Close()

	slog.Info("Lens Agent 已启动", "name", core.Cfg.App.Name,
		"version", buildinfo.Version, "commit", buildinfo.Commit)

	// 订阅流水线进度事件并打日志
	go func() {
		for evt := range core.Bus.Subscribe(ctx, 64) {
			switch evt.Type {
			case eventbus.TypeDeveloperFailed:
				slog.Warn("流水线事件", "type", evt.Type, "data", evt.Data)
			default:
				slog.Info("流水线事件", "type", evt.Type, "data", evt.Data)
			}
		}
	}()

	// 启动 spool 采集
	var spool *collector.SpoolCollector
	if core.Cfg.Spool.Enabled {
		cfg := collector.DefaultSpoolCollectorConfig()
		cfg.Dir = core.Cfg.Spool.Dir
		cfg.RescanIntervalSec = core.Cfg.Spool.RescanIntervalSec

		spool, err = collector.NewSpoolCollector(cfg, core.Repos.Event)
		if err != nil {
			slog.Error("启动 Spool 采集器失败", "error", err)
			os.Exit(1)
		}
		go spool.Start(ctx)
	} else {
		slog.Info("Spool 采集已禁用")
	}

	// 监听系统信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	slog.Info("收到系统退出信号，正在关闭...")
	cancel()
	if spool != nil {
		spool.Stop()
	}
	slog.Info("Lens Agent 已退出")
}
