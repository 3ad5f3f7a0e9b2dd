package cmd

import (
	"github.com/webitel/im-delivery-service/config"
	"github.com/webitel/im-delivery-service/internal/cache"
	"github.com/webitel/im-delivery-service/internal/queue"
	"github.com/webitel/im-delivery-service/internal/queue/redisstream"
	"github.com/webitel/im-delivery-service/internal/registry"
	"github.com/webitel/im-delivery-service/internal/store/postgres"
	"github.com/webitel/im-delivery-service/internal/transport/httpapi"
	"github.com/webitel/im-delivery-service/internal/worker"
	"github.com/webitel/im-delivery-service/internal/writepath"
	"go.uber.org/fx"
)

func NewApp(cfg config.Config) *fx.App {
	return fx.New(
		fx.Provide(func() config.Config { return cfg }),
		fx.WithLogger(fxLogger),

		postgres.Module,
		cache.Module,
		redisstream.Module,
		queue.ReceiptsModule,
		registry.Module,
		writepath.Module,
		worker.Module,
		httpapi.Module,
	)
}
