package writepath

import (
	"github.com/webitel/im-delivery-service/internal/store/postgres"
	"go.uber.org/fx"
)

func asStore(s *postgres.Store) Store { return s }

var Module = fx.Module("writepath",
	fx.Provide(
		asStore,
		New,
	),
)
