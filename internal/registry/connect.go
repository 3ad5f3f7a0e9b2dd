package registry

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/webitel/im-delivery-service/internal/domain/event"
	"github.com/webitel/im-delivery-service/internal/domain/model"
)

var _ Connector = (*connect)(nil)

// Connector is the transport-facing handle a session holds once attached
// to a Cell. Both the WebSocket and long-poll transports implement their
// pump loops against this same interface.
type Connector interface {
	GetID() uuid.UUID
	GetUserID() model.Principal
	Send(ev event.Eventer, timeout time.Duration) bool
	Recv() <-chan event.Eventer
	Close()
}

// connect is the concrete Connector. Pooled via sync.Pool to keep the
// per-attach allocation cost low under frequent connect/disconnect churn.
type connect struct {
	id        uuid.UUID
	userID    model.Principal
	createdAt time.Time
	ctx       context.Context
	cancelFn  context.CancelFunc
	sendCh    chan event.Eventer
	closeOnce sync.Once

	droppedCount uint64
}

var connectPool = sync.Pool{
	New: func() any { return &connect{} },
}

func NewConnector(ctx context.Context, userID model.Principal, bufferSize int) Connector {
	c := connectPool.Get().(*connect)
	c.reset(ctx, userID, bufferSize)
	return c
}

func (c *connect) reset(ctx context.Context, userID model.Principal, bufferSize int) {
	childCtx, cancel := context.WithCancel(ctx)
	*c = connect{
		id:        uuid.New(),
		userID:    userID,
		createdAt: time.Now(),
		ctx:       childCtx,
		cancelFn:  cancel,
		sendCh:    make(chan event.Eventer, bufferSize),
	}
}

func (c *connect) GetID() uuid.UUID          { return c.id }
func (c *connect) GetUserID() model.Principal { return c.userID }

// Send enqueues ev, waiting up to timeout for room in the sink's buffer.
// A persistently full buffer is a slow or stuck consumer: the event is
// dropped and logged rather than evicting another queued event, per the
// registry's no-drop-oldest policy.
func (c *connect) Send(ev event.Eventer, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	select {
	case <-c.ctx.Done():
		return false
	case c.sendCh <- ev:
		return true
	case <-ctx.Done():
		atomic.AddUint64(&c.droppedCount, 1)
		slog.Warn("registry: dropping event, sink backpressured",
			"user", c.userID, "conn", c.id, "event", ev.GetID())
		return false
	}
}

func (c *connect) Recv() <-chan event.Eventer { return c.sendCh }

// Close tears the connector down exactly once and returns it to the pool.
// Idempotent because Hub shutdown, Cell eviction, and the owning
// transport's own defer may all race to close it.
func (c *connect) Close() {
	c.closeOnce.Do(func() {
		c.cancelFn()
		if c.sendCh != nil {
			close(c.sendCh)
		}
		c.sendCh = nil
		connectPool.Put(c)
	})
}
