package server

import (
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/trend_radar/app/display/internal/conf"
	"github.com/iWorld-y/trend_radar/app/trend_radar/pkg/analyzer"
	"github.com/iWorld-y/trend_radar/app/trend_radar/pkg/config"
	trLogger "github.com/iWorld-y/trend_radar/app/trend_radar/pkg/logger"
)

// NewRadarConfig 将 internal/conf.Radar 转换为 pkg/config.Config 并填充缺省值
func NewRadarConfig(c *conf.Radar) *config.Config {
	cfg := &config.Config{}
	if c == nil {
		cfg.ApplyDefaults()
		return cfg
	}

	if ai := c.Ai; ai != nil {
		cfg.AI = config.AIConfig{
			APIKey:     ai.ApiKey,
			Provider:   ai.Provider,
			Model:      ai.Model,
			BaseURL:    ai.BaseUrl,
			Timeout:    int(ai.Timeout),
			MaxNews:    int(ai.MaxNews),
			IncludeRSS: ai.IncludeRss,
			PromptFile: ai.PromptFile,
		}
	}
	if r := c.Report; r != nil {
		cfg.Report = config.ReportConfig{Mode: r.Mode, Type: r.Type, Platforms: r.Platforms}
	}
	if l := c.Log; l != nil {
		cfg.Log = config.LogConfig{Level: l.Level, File: l.File}
	}
	if cc := c.Concurrency; cc != nil {
		cfg.Concurrency = config.ConcurrencyConfig{QPS: int(cc.Qps), RPM: int(cc.Rpm)}
	}
	if db := c.Db; db != nil {
		cfg.DB = config.DBConfig{
			Host:     db.Host,
			Port:     int(db.Port),
			User:     db.User,
			Password: db.Password,
			Name:     db.Name,
		}
	}
	cfg.ApplyDefaults()
	return cfg
}

// NewAnalyzer 初始化 trend_radar 分析器
func NewAnalyzer(cfg *config.Config, logger log.Logger) *analyzer.Analyzer {
	// 初始化日志
	if err := trLogger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		log.NewHelper(logger).Errorf("Failed to init trend_radar logger: %v", err)
		_ = trLogger.InitLogger("info", "") // 降级处理
	}

	limiter := analyzer.NewLimiter(cfg.Concurrency)
	if limiter != nil {
		log.NewHelper(logger).Infof("限流器已配置: Limit=%.2f req/s, Burst=%d", limiter.Limit(), limiter.Burst())
	}
	return analyzer.New(&cfg.AI, analyzer.Options{Limiter: limiter})
}
