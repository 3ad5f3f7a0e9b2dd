package worker

import (
	"context"
	"sync"

	"github.com/webitel/im-delivery-service/internal/domain/model"
	"github.com/webitel/im-delivery-service/internal/queue"
	"github.com/webitel/im-delivery-service/internal/store/postgres"
	"github.com/webitel/im-delivery-service/internal/worker/handlers"
	"go.uber.org/fx"
)

// Module starts BW.messages and BW.receipts as process-singleton
// long-lived tasks at boot, per spec.md §9's "start them at service
// boot, hand them shutdown signals, and join on exit".
var Module = fx.Module("worker",
	fx.Invoke(registerWorkers),
)

func registerWorkers(lc fx.Lifecycle, q queue.Queue, store *postgres.Store) {
	messages := New[model.Message](q, queue.TopicMessages, queue.GroupMessages, queue.ConsumerSingleton, handlers.Messages(store))
	receipts := New[model.Receipt](q, queue.TopicReceipts, queue.GroupReceipts, queue.ConsumerSingleton, handlers.Receipts(store))

	var (
		cancel context.CancelFunc
		wg     sync.WaitGroup
	)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			var runCtx context.Context
			runCtx, cancel = context.WithCancel(context.Background())
			wg.Add(2)
			go func() { defer wg.Done(); _ = messages.Run(runCtx) }()
			go func() { defer wg.Done(); _ = receipts.Run(runCtx) }()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			done := make(chan struct{})
			go func() { wg.Wait(); close(done) }()
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}
