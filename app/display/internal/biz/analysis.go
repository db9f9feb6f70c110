package biz

import (
	"context"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/trend_radar/app/trend_radar/pkg/analyzer"
	"github.com/iWorld-y/trend_radar/app/trend_radar/pkg/config"
	"github.com/iWorld-y/trend_radar/app/trend_radar/pkg/model"
)

var (
	ErrAnalysisNotFound = errors.NotFound("ANALYSIS_NOT_FOUND", "analysis not found")
	ErrStorageDisabled  = errors.ServiceUnavailable("STORAGE_DISABLED", "database is not configured")
	ErrEmptyInput       = errors.BadRequest("EMPTY_INPUT", "stats and rss_stats are both empty")
)

// Analysis 一次分析记录
type Analysis struct {
	ID         string
	ReportMode string
	ReportType string
	Provider   string
	Model      string
	Result     *model.AnalysisResult
	CreatedAt  time.Time
}

// Analyzer 执行分析
type Analyzer interface {
	Analyze(ctx context.Context, in analyzer.Input) *model.AnalysisResult
}

// AnalysisRepo 分析记录仓库接口
type AnalysisRepo interface {
	// Save 保存记录，返回记录 ID
	Save(ctx context.Context, a *Analysis) (string, error)
	// Get 根据 ID 获取记录
	Get(ctx context.Context, id string) (*Analysis, error)
	// List 分页获取记录，返回记录与总数
	List(ctx context.Context, page, pageSize int) ([]*Analysis, int, error)
}

// AnalysisUseCase 分析业务逻辑
type AnalysisUseCase struct {
	analyzer Analyzer
	repo     AnalysisRepo // 未配置数据库时为 nil
	cfg      *config.Config
	log      *log.Helper
}

// NewAnalysisUseCase 创建分析业务逻辑实例
func NewAnalysisUseCase(a Analyzer, repo AnalysisRepo, cfg *config.Config, logger log.Logger) *AnalysisUseCase {
	return &AnalysisUseCase{analyzer: a, repo: repo, cfg: cfg, log: log.NewHelper(logger)}
}

// Run 执行分析，配置了数据库时同时保存结果
func (uc *AnalysisUseCase) Run(ctx context.Context, in analyzer.Input) (*Analysis, error) {
	if len(in.Stats) == 0 && len(in.RSSStats) == 0 {
		return nil, ErrEmptyInput
	}
	if in.ReportMode == "" {
		in.ReportMode = uc.cfg.Report.Mode
	}
	if in.ReportType == "" {
		in.ReportType = uc.cfg.Report.Type
	}
	if len(in.Platforms) == 0 {
		in.Platforms = uc.cfg.Report.Platforms
	}

	a := &Analysis{
		ReportMode: in.ReportMode,
		ReportType: in.ReportType,
		Provider:   uc.cfg.AI.Provider,
		Model:      uc.cfg.AI.Model,
		Result:     uc.analyzer.Analyze(ctx, in),
		CreatedAt:  time.Now(),
	}
	uc.log.WithContext(ctx).Infof("analysis finished: status=%s analyzed=%d/%d",
		a.Result.Status, a.Result.AnalyzedNews, a.Result.TotalNews)

	if uc.repo == nil {
		return a, nil
	}
	id, err := uc.repo.Save(ctx, a)
	if err != nil {
		// 保存失败不影响本次分析结果返回
		uc.log.WithContext(ctx).Errorf("failed to save analysis: %v", err)
		return a, nil
	}
	a.ID = id
	return a, nil
}

// Get 获取分析记录
func (uc *AnalysisUseCase) Get(ctx context.Context, id string) (*Analysis, error) {
	if uc.repo == nil {
		return nil, ErrStorageDisabled
	}
	return uc.repo.Get(ctx, id)
}

// List 分页获取分析记录
func (uc *AnalysisUseCase) List(ctx context.Context, page, pageSize int) ([]*Analysis, int, error) {
	if uc.repo == nil {
		return nil, 0, ErrStorageDisabled
	}
	return uc.repo.List(ctx, page, pageSize)
}
