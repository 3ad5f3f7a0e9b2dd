package cache

import (
	"github.com/webitel/im-delivery-service/config"
	"go.uber.org/fx"
)

func newParticipantCache(store Store, cfg config.Config) *ParticipantCache {
	return NewParticipantCache(store, cfg.CacheTTL)
}

func newMailboxCache(store Store, cfg config.Config) *MailboxCache {
	return NewMailboxCache(store, cfg.CacheTTL)
}

var Module = fx.Module("cache",
	fx.Provide(
		newParticipantCache,
		newMailboxCache,
	),
)
