package data

import (
	"github.com/go-kratos/kratos/v2/log"

	"github.com/iWorld-y/trend_radar/app/trend_radar/pkg/config"
	"github.com/iWorld-y/trend_radar/app/trend_radar/pkg/storage"
)

type Data struct {
	store *storage.Storage
}

// NewData 连接数据库，未配置 host 时返回不带存储的 Data
func NewData(c config.DBConfig, logger log.Logger) (*Data, func(), error) {
	helper := log.NewHelper(logger)
	if c.Host == "" {
		helper.Warn("database is not configured, analyses will not be persisted")
		return &Data{}, func() {}, nil
	}

	store, err := storage.NewStorage(c)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		helper.Info("closing the data resources")
		store.Close()
	}
	return &Data{store: store}, cleanup, nil
}
