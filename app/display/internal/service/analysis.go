package service

import (
	"context"
	"strconv"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/iWorld-y/trend_radar/app/display/internal/biz"
	"github.com/iWorld-y/trend_radar/app/trend_radar/pkg/analyzer"
	"github.com/iWorld-y/trend_radar/app/trend_radar/pkg/model"
	"github.com/iWorld-y/trend_radar/app/trend_radar/pkg/render"
)

const (
	OperationCreateAnalysis = "/trend_radar.Analysis/CreateAnalysis"
	OperationListAnalyses   = "/trend_radar.Analysis/ListAnalyses"
	OperationGetAnalysis    = "/trend_radar.Analysis/GetAnalysis"

	defaultPageSize = 10
)

type AnalysisService struct {
	uc  *biz.AnalysisUseCase
	log *log.Helper
}

func NewAnalysisService(uc *biz.AnalysisUseCase, logger log.Logger) *AnalysisService {
	return &AnalysisService{uc: uc, log: log.NewHelper(logger)}
}

// AnalysisReply 单条分析记录
type AnalysisReply struct {
	ID         string                `json:"id,omitempty"`
	ReportMode string                `json:"report_mode"`
	ReportType string                `json:"report_type"`
	Provider   string                `json:"provider"`
	Model      string                `json:"model"`
	CreatedAt  string                `json:"created_at"`
	Result     *model.AnalysisResult `json:"result"`
}

type ListAnalysesReq struct {
	Page     int
	PageSize int
}

type ListAnalysesReply struct {
	Analyses []*AnalysisReply `json:"analyses"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

type GetAnalysisReq struct {
	ID      string
	Channel string
}

// RenderedReply 按推送渠道渲染后的分析结果
type RenderedReply struct {
	ID      string `json:"id"`
	Channel string `json:"channel"`
	Content string `json:"content"`
}

func (s *AnalysisService) CreateAnalysis(ctx context.Context, in *analyzer.Input) (*AnalysisReply, error) {
	a, err := s.uc.Run(ctx, *in)
	if err != nil {
		return nil, err
	}
	return toReply(a), nil
}

func (s *AnalysisService) ListAnalyses(ctx context.Context, req *ListAnalysesReq) (*ListAnalysesReply, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	list, total, err := s.uc.List(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}
	reply := &ListAnalysesReply{Analyses: make([]*AnalysisReply, 0, len(list)), Total: total, Page: page, PageSize: pageSize}
	for _, a := range list {
		reply.Analyses = append(reply.Analyses, toReply(a))
	}
	return reply, nil
}

// GetAnalysis 指定 channel 时返回渲染后的文本
func (s *AnalysisService) GetAnalysis(ctx context.Context, req *GetAnalysisReq) (any, error) {
	a, err := s.uc.Get(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if req.Channel == "" {
		return toReply(a), nil
	}
	return &RenderedReply{ID: a.ID, Channel: req.Channel, Content: render.ForChannel(req.Channel)(a.Result)}, nil
}

func toReply(a *biz.Analysis) *AnalysisReply {
	reply := &AnalysisReply{
		ID:         a.ID,
		ReportMode: a.ReportMode,
		ReportType: a.ReportType,
		Provider:   a.Provider,
		Model:      a.Model,
		Result:     a.Result,
	}
	if !a.CreatedAt.IsZero() {
		reply.CreatedAt = a.CreatedAt.Format(time.DateTime)
	}
	return reply
}

// RegisterAnalysisHTTPServer 注册分析接口路由
func RegisterAnalysisHTTPServer(s *http.Server, srv *AnalysisService) {
	r := s.Route("/")
	r.POST("/api/analyses", createAnalysisHandler(srv))
	r.GET("/api/analyses", listAnalysesHandler(srv))
	r.GET("/api/analyses/{id}", getAnalysisHandler(srv))
}

func createAnalysisHandler(srv *AnalysisService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in analyzer.Input
		if err := ctx.Bind(&in); err != nil {
			return errors.BadRequest("INVALID_BODY", err.Error())
		}
		http.SetOperation(ctx, OperationCreateAnalysis)
		h := ctx.Middleware(func(ctx context.Context, req any) (any, error) {
			return srv.CreateAnalysis(ctx, req.(*analyzer.Input))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}

func listAnalysesHandler(srv *AnalysisService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		q := ctx.Query()
		req := &ListAnalysesReq{}
		var err error
		if v := q.Get("page"); v != "" {
			if req.Page, err = strconv.Atoi(v); err != nil {
				return errors.BadRequest("INVALID_PAGE", "page must be an integer")
			}
		}
		if v := q.Get("page_size"); v != "" {
			if req.PageSize, err = strconv.Atoi(v); err != nil {
				return errors.BadRequest("INVALID_PAGE_SIZE", "page_size must be an integer")
			}
		}
		http.SetOperation(ctx, OperationListAnalyses)
		h := ctx.Middleware(func(ctx context.Context, req any) (any, error) {
			return srv.ListAnalyses(ctx, req.(*ListAnalysesReq))
		})
		out, err := h(ctx, req)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}

func getAnalysisHandler(srv *AnalysisService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		req := &GetAnalysisReq{ID: ctx.Vars().Get("id"), Channel: ctx.Query().Get("channel")}
		http.SetOperation(ctx, OperationGetAnalysis)
		h := ctx.Middleware(func(ctx context.Context, req any) (any, error) {
			return srv.GetAnalysis(ctx, req.(*GetAnalysisReq))
		})
		out, err := h(ctx, req)
		if err != nil {
			return err
		}
		return ctx.Result(200, out)
	}
}
