package bootstrap

import (
	"io"
	"os"
	"path/filepath"

	"github.com/mingze-w/DevLens/internal/eventbus"
	"github.com/mingze-w/DevLens/internal/pkg/config"
	"github.com/mingze-w/DevLens/internal/repository"
	"github.com/mingze-w/DevLens/internal/service"
)

// Core 持有跨二进制共享的核心依赖
type Core struct {
	Cfg       *config.Config
	DB        *repository.Database
	Bus       *eventbus.Hub
	LogCloser io.Closer

	Repos struct {
		Event      *repository.EventRepository
		Metrics    *repository.MetricsRepository
		Assessment *repository.AssessmentRepository
		Report     *repository.RunReportRepository
	}

	Services struct {
		Pipeline *service.Pipeline
	}
}

// NewCore 构建核心依赖（不启动采集）
func NewCore(cfgPath string) (*Core, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	logCloser, _ := config.SetupLogger(config.LoggerOptions{
		Level:     cfg.App.LogLevel,
		Path:      cfg.App.LogPath,
		Component: filepath.Base(os.Args[0]),
	})

	db, err := repository.NewDatabase(cfg.Storage.DBPath)
	if err != nil {
		if logCloser != nil {
			_ = logCloser.Close()
		}
		return nil, err
	}

	c := &Core{Cfg: cfg, DB: db, Bus: eventbus.NewHub(), LogCloser: logCloser}

	// Repos
	c.Repos.Event = repository.NewEventRepository(db.DB)
	c.Repos.Metrics = repository.NewMetricsRepository(db.DB)
	c.Repos.Assessment = repository.NewAssessmentRepository(db.DB)
	c.Repos.Report = repository.NewRunReportRepository(db.DB)

	// Services
	stdCfg := service.DefaultStandardizerConfig()
	stdCfg.JitterEnabled = cfg.Privacy.JitterEnabled

	aggregator := service.NewEventAggregator(service.DefaultAggregatorConfig())
	validator := service.NewMetricsValidator(service.DefaultValidatorConfig())
	standardizer := service.NewStandardizer(stdCfg, nil)
	generator := service.NewAssessmentGenerator(
		service.DefaultScoreConfig(),
		service.NewTrendAnalyzer(service.DefaultTrendConfig()),
		service.NewPatternDetector(service.DefaultPatternConfig()),
	)

	c.Services.Pipeline = service.NewPipeline(
		service.PipelineConfig{HistoryDays: cfg.Engine.HistoryDays},
		c.Repos.Event,
		c.Repos.Metrics,
		c.Repos.Assessment,
		c.Repos.Report,
		aggregator,
		validator,
		standardizer,
		generator,
		c.Bus,
	)

	return c, nil
}

// Close 关闭核心依赖资源
func (c *Core) Close() error {
	if c == nil {
		return nil
	}
	var dbErr error
	if c.DB != nil {
		dbErr = c.DB.Close()
	}
	if c.LogCloser != nil {
		_ = c.LogCloser.Close()
	}
	return dbErr
}
