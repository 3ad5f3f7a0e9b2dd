// Package registry implements the live session registry (SR): an
// actor-per-principal mailbox holding at most one attached transport
// session, so a reconnect replaces rather than multiplexes.
//
// Adapted from the teacher's gRPC-only Hub/Cell/Connector actor design
// (internal/domain/registry in the teacher tree), generalized to the two
// session transports this service exposes (WebSocket, long-poll),
// narrowed from the teacher's multi-session-per-user Cell down to a
// single current session per the registry's connect/disconnect
// contract, and re-keyed from a per-connection uuid to the domain's
// opaque Principal, since this core has no user-id concept beyond the
// authenticated principal string.
package registry

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/webitel/im-delivery-service/internal/domain/event"
	"github.com/webitel/im-delivery-service/internal/domain/model"
)

// Celler is the internal API for a single principal's delivery unit.
type Celler interface {
	Push(ev event.Eventer) bool
	Attach(conn Connector)
	Detach(connID uuid.UUID) bool
	IsIdle(timeout time.Duration) bool
	Stop()
}

// Cell owns delivery for one principal: a buffered mailbox decouples
// the Hub from a slow consumer. At most one Connector is attached at a
// time — connecting replaces (and closes) whatever session was
// previously attached, and disconnecting is a compare-and-delete so a
// stale session's teardown can't clobber a session that has since
// reconnected. This mirrors the registry's single-sink-per-principal
// contract.
type Cell struct {
	principal model.Principal

	mailbox chan event.Eventer

	session Connector
	mu      sync.RWMutex

	doneCh chan struct{}

	lastActivityUnix int64
}

func NewCell(principal model.Principal, bufferSize int) *Cell {
	c := &Cell{
		principal:        principal,
		mailbox:          make(chan event.Eventer, bufferSize),
		doneCh:           make(chan struct{}),
		lastActivityUnix: time.Now().Unix(),
	}
	go c.loop()
	return c
}

func (c *Cell) touch() {
	atomic.StoreInt64(&c.lastActivityUnix, time.Now().Unix())
}

func (c *Cell) IsIdle(timeout time.Duration) bool {
	c.mu.RLock()
	hasSession := c.session != nil
	c.mu.RUnlock()

	if hasSession {
		return false
	}

	lastActivity := time.Unix(atomic.LoadInt64(&c.lastActivityUnix), 0)
	return time.Since(lastActivity) > timeout
}

func (c *Cell) Push(ev event.Eventer) bool {
	c.touch()
	select {
	case c.mailbox <- ev:
		return true
	default:
		return false
	}
}

// Attach installs conn as the principal's sole session, closing
// whichever session it replaces.
func (c *Cell) Attach(conn Connector) {
	c.mu.Lock()
	prior := c.session
	c.session = conn
	c.mu.Unlock()
	c.touch()

	if prior != nil {
		prior.Close()
	}
}

// Detach removes connID only if it is still the current session — a
// reconnect may already have replaced it, in which case this is a
// no-op so the stale teardown doesn't detach the new session.
func (c *Cell) Detach(connID uuid.UUID) bool {
	c.mu.Lock()
	if c.session != nil && c.session.GetID() == connID {
		c.session = nil
	}
	isEmpty := c.session == nil
	c.mu.Unlock()
	c.touch()
	return isEmpty
}

func (c *Cell) loop() {
	for {
		select {
		case <-c.doneCh:
			return
		case ev := <-c.mailbox:
			c.deliver(ev)

			// Drain up to 64 queued events before returning to select, to
			// smooth out bursts without starving the scheduler.
			for range 64 {
				select {
				case nextEv := <-c.mailbox:
					c.deliver(nextEv)
				default:
					goto wait
				}
			}
		wait:
		}
	}
}

func (c *Cell) deliver(ev event.Eventer) {
	c.mu.RLock()
	conn := c.session
	c.mu.RUnlock()

	if conn != nil {
		// Bounded window: a slow session must not stall the actor loop.
		conn.Send(ev, 250*time.Millisecond)
	}
}

func (c *Cell) Stop() {
	close(c.doneCh)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		c.session.Close()
		c.session = nil
	}
}
