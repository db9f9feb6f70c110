package data

import (
	"context"
	"errors"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/trend_radar/app/display/internal/biz"
	"github.com/iWorld-y/trend_radar/app/trend_radar/pkg/storage"
)

// analysisStore storage.Storage 中仓库用到的方法
type analysisStore interface {
	SaveAnalysis(ctx context.Context, rec *storage.Record) (string, error)
	GetAnalysis(ctx context.Context, id string) (*storage.Record, error)
	ListAnalyses(ctx context.Context, page, pageSize int) ([]*storage.Record, int, error)
}

type analysisRepo struct {
	store analysisStore
	log   *log.Helper
}

// NewAnalysisRepo 未配置数据库时返回 nil
func NewAnalysisRepo(data *Data, logger log.Logger) biz.AnalysisRepo {
	if data.store == nil {
		return nil
	}
	return &analysisRepo{
		store: data.store,
		log:   log.NewHelper(logger),
	}
}

func (r *analysisRepo) Save(ctx context.Context, a *biz.Analysis) (string, error) {
	rec := &storage.Record{
		ID:         a.ID,
		ReportMode: a.ReportMode,
		ReportType: a.ReportType,
		Provider:   a.Provider,
		Model:      a.Model,
		Result:     a.Result,
	}
	id, err := r.store.SaveAnalysis(ctx, rec)
	if err != nil {
		return "", err
	}
	a.CreatedAt = rec.CreatedAt
	return id, nil
}

func (r *analysisRepo) Get(ctx context.Context, id string) (*biz.Analysis, error) {
	rec, err := r.store.GetAnalysis(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, biz.ErrAnalysisNotFound
	}
	if err != nil {
		return nil, err
	}
	return toAnalysis(rec), nil
}

func (r *analysisRepo) List(ctx context.Context, page, pageSize int) ([]*biz.Analysis, int, error) {
	recs, total, err := r.store.ListAnalyses(ctx, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	list := make([]*biz.Analysis, 0, len(recs))
	for _, rec := range recs {
		list = append(list, toAnalysis(rec))
	}
	return list, total, nil
}

func toAnalysis(rec *storage.Record) *biz.Analysis {
	return &biz.Analysis{
		ID:         rec.ID,
		ReportMode: rec.ReportMode,
		ReportType: rec.ReportType,
		Provider:   rec.Provider,
		Model:      rec.Model,
		Result:     rec.Result,
		CreatedAt:  rec.CreatedAt,
	}
}
