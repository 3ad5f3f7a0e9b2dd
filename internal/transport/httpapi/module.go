package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/webitel/im-delivery-service/config"
	"github.com/webitel/im-delivery-service/internal/transport/lp"
	"github.com/webitel/im-delivery-service/internal/transport/ws"
	"go.uber.org/fx"
)

var Module = fx.Module("httpapi",
	fx.Provide(
		ws.NewHandler,
		lp.NewHandler,
		NewRouter,
	),
	fx.Invoke(registerServer),
)

func registerServer(lc fx.Lifecycle, cfg config.Config, router http.Handler) {
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					slog.Error("httpapi: server stopped", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
