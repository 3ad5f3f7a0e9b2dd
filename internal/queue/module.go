package queue

import "go.uber.org/fx"

var ReceiptsModule = fx.Module("receipts",
	fx.Provide(NewReceiptPublisher),
)
