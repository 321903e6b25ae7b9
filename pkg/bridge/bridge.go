// Package bridge delivers engine messages to the presentation loop.
//
// The engine goroutine posts; the presentation goroutine drains. Posting
// never blocks. Delivery is in post order, at most once, and only to the
// sink attached when the message is delivered. With no sink attached,
// messages stay queued until the next Attach.
package bridge

import (
	"sync"
	"sync/atomic"

	"github.com/odvcencio/crawlterm/pkg/fifo"
	"github.com/odvcencio/crawlterm/pkg/logging"
	"github.com/odvcencio/crawlterm/pkg/message"
	"github.com/odvcencio/crawlterm/pkg/telemetry"
)

// Sink consumes delivered messages on the presentation goroutine.
type Sink interface {
	ID() string
	Deliver(env message.Envelope)
}

// Observer sees every posted message on the posting goroutine. It must
// not block.
type Observer func(env message.Envelope)

type sinkRef struct{ s Sink }

// Bridge is the ordered engine-to-presentation queue.
type Bridge struct {
	queue *fifo.Queue[message.Envelope]
	sink  atomic.Pointer[sinkRef]
	log   *logging.Logger

	// seq is only touched inside queue.PushFunc.
	seq uint64

	obsMu     sync.RWMutex
	observers []Observer
}

// New creates an empty bridge.
func New(log *logging.Logger) *Bridge {
	return &Bridge{
		queue: fifo.New[message.Envelope](),
		log:   log,
	}
}

// Observe registers an observer for posted messages.
func (b *Bridge) Observe(o Observer) {
	b.obsMu.Lock()
	defer b.obsMu.Unlock()
	b.observers = append(b.observers, o)
}

// Post queues msg. Called from the engine goroutine; never blocks.
func (b *Bridge) Post(msg message.Message) {
	if msg == nil {
		return
	}
	env := b.queue.PushFunc(func() message.Envelope {
		b.seq++
		return message.Envelope{Seq: b.seq, Msg: msg}
	})
	telemetry.RecordMessagePosted(string(msg.Kind()))

	b.obsMu.RLock()
	for _, o := range b.observers {
		o(env)
	}
	b.obsMu.RUnlock()
}

// Ready wakes the presentation loop after a Post.
func (b *Bridge) Ready() <-chan struct{} {
	return b.queue.Ready()
}

// Attach sets the sink that receives subsequent deliveries.
func (b *Bridge) Attach(s Sink) {
	b.sink.Store(&sinkRef{s: s})
}

// Detach removes the sink. Queued messages wait for the next Attach.
func (b *Bridge) Detach() {
	b.sink.Store(nil)
}

// Attached returns the id of the current sink.
func (b *Bridge) Attached() (string, bool) {
	if ref := b.sink.Load(); ref != nil {
		return ref.s.ID(), true
	}
	return "", false
}

// Pending returns the number of undelivered messages.
func (b *Bridge) Pending() int {
	return b.queue.Len()
}

// DeliverNext delivers the oldest message to the attached sink. It
// returns false when nothing was delivered.
func (b *Bridge) DeliverNext() bool {
	ref := b.sink.Load()
	if ref == nil {
		return false
	}
	env, ok := b.queue.TryPop()
	if !ok {
		return false
	}
	ref.s.Deliver(env)
	telemetry.RecordMessageDelivered(string(env.Msg.Kind()))
	return true
}

// Drain delivers every queued message and returns how many were
// delivered. It stops early if the sink is detached during delivery.
func (b *Bridge) Drain() int {
	n := 0
	for b.DeliverNext() {
		n++
	}
	telemetry.SetBridgeDepth(b.queue.Len())
	if n > 0 {
		b.log.Debug(logging.CategoryBridge, "drained", "delivered engine messages", map[string]any{"count": n})
	}
	return n
}
