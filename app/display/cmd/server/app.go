package main

import (
	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport/http"

	"github.com/iWorld-y/trend_radar/app/display/internal/biz"
	"github.com/iWorld-y/trend_radar/app/display/internal/conf"
	"github.com/iWorld-y/trend_radar/app/display/internal/data"
	"github.com/iWorld-y/trend_radar/app/display/internal/server"
	"github.com/iWorld-y/trend_radar/app/display/internal/service"
)

// initApp 按依赖顺序组装 kratos 应用
func initApp(cs *conf.Server, cr *conf.Radar, logger log.Logger) (*kratos.App, func(), error) {
	cfg := server.NewRadarConfig(cr)
	d, cleanup, err := data.NewData(cfg.DB, logger)
	if err != nil {
		return nil, nil, err
	}
	repo := data.NewAnalysisRepo(d, logger)
	uc := biz.NewAnalysisUseCase(server.NewAnalyzer(cfg, logger), repo, cfg, logger)
	svc := service.NewAnalysisService(uc, logger)
	hs := server.NewHTTPServer(cs, svc, logger)
	return newApp(logger, hs), cleanup, nil
}

func newApp(logger log.Logger, hs *http.Server) *kratos.App {
	return kratos.New(
		kratos.ID(id),
		kratos.Name(Name),
		kratos.Version(Version),
		kratos.Metadata(map[string]string{}),
		kratos.Logger(logger),
		kratos.Server(hs),
	)
}
