package registry

import (
	"github.com/webitel/im-delivery-service/internal/queue"
	"go.uber.org/fx"
)

func asReceiptPublisher(p *queue.ReceiptPublisher) ReceiptPublisher { return p }

// Module wires the session registry into the composition root, binding
// the concrete Hub to the Hubber interface so consumers (write path,
// transports) depend only on the contract.
var Module = fx.Module("registry",
	fx.Provide(
		asReceiptPublisher,
		fx.Annotate(
			NewHub,
			fx.As(new(Hubber)),
		),
	),
)
