package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Storage StorageConfig `mapstructure:"storage"`
	Spool   SpoolConfig   `mapstructure:"spool"`
	Engine  EngineConfig  `mapstructure:"engine"`
	Privacy PrivacyConfig `mapstructure:"privacy"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name     string `mapstructure:"name"`
	Version  string `mapstructure:"version"`
	LogLevel string `mapstructure:"log_level"`
	LogPath  string `mapstructure:"log_path"`
}

// StorageConfig 存储配置
type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// SpoolConfig 事件批文件投递目录配置（采集端落盘，agent 监听入库）
type SpoolConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	Dir               string `mapstructure:"dir"`
	RescanIntervalSec int    `mapstructure:"rescan_interval_sec"`
}

// EngineConfig 引擎配置
type EngineConfig struct {
	HistoryDays int `mapstructure:"history_days"` // 评估读取的历史窗口
	RetainDays  int `mapstructure:"retain_days"`  // 原始事件留存天数
}

// PrivacyConfig 隐私配置
type PrivacyConfig struct {
	JitterEnabled bool `mapstructure:"jitter_enabled"` // 出口数值抖动开关
}

// Load 加载配置文件
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// 设置默认值
	setDefaults(v)

	// 设置配置文件路径
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// 默认查找路径
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// 支持环境变量
	v.SetEnvPrefix("LENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Warn("配置文件未找到，使用默认配置")
		} else {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	} else {
		slog.Info("加载配置文件", "path", v.ConfigFileUsed())
	}

	// 解析配置
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// 处理相对路径
	cfg.Storage.DBPath = resolvePath(cfg.Storage.DBPath)
	cfg.Spool.Dir = resolvePath(cfg.Spool.Dir)

	return &cfg, nil
}

// Default 默认配置（首次启动写盘用）
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.name", "lens")
	v.SetDefault("app.version", "0.1.0")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_path", "")

	// Storage
	v.SetDefault("storage.db_path", "./data/lens.db")

	// Spool
	v.SetDefault("spool.enabled", true)
	v.SetDefault("spool.dir", "./data/spool")
	v.SetDefault("spool.rescan_interval_sec", 60)

	// Engine
	v.SetDefault("engine.history_days", 30)
	v.SetDefault("engine.retain_days", 90)

	// Privacy
	v.SetDefault("privacy.jitter_enabled", true)
}

// resolvePath 解析相对路径为绝对路径
func resolvePath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}

	// 获取可执行文件目录
	exe, err := os.Executable()
	if err != nil {
		return path
	}

	exeDir := filepath.Dir(exe)
	return filepath.Join(exeDir, path)
}

// LoggerOptions 日志配置
type LoggerOptions struct {
	Level     string
	Path      string // 为空时只写 stdout
	Component string
}

// SetupLogger 安装默认 slog。返回的 Closer 在进程退出时关闭日志文件。
func SetupLogger(opts LoggerOptions) (io.Closer, error) {
	var logLevel slog.Level
	switch strings.ToLower(opts.Level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	var out io.Writer = os.Stdout
	var closer io.Closer
	if opts.Path != "" {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
			return nil, fmt.Errorf("创建日志目录失败: %w", err)
		}
		f, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("打开日志文件失败: %w", err)
		}
		out = io.MultiWriter(os.Stdout, f)
		closer = f
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(handler)
	if opts.Component != "" {
		logger = logger.With("component", opts.Component)
	}
	slog.SetDefault(logger)

	return closer, nil
}
