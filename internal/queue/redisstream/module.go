package redisstream

import (
	"github.com/redis/go-redis/v9"
	"github.com/webitel/im-delivery-service/config"
	"github.com/webitel/im-delivery-service/internal/queue"
	"go.uber.org/fx"
)

func newClient(cfg config.Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}

var Module = fx.Module("queue",
	fx.Provide(
		newClient,
		fx.Annotate(
			New,
			fx.As(new(queue.Queue)),
		),
	),
)
