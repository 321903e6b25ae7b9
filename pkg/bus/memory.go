package bus

import (
	"context"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/odvcencio/crawlterm/pkg/telemetry"
)

const subscriptionBuffer = 256

// MemoryBus is an in-process MessageBus for single-process spectators
// and tests. Each subscription drains its own queue on its own
// goroutine, so a slow handler only delays itself. A full queue drops
// the message rather than blocking the publisher, which is usually the
// game loop.
type MemoryBus struct {
	mu      sync.RWMutex
	subs    []*memorySub
	closed  bool
	dropped atomic.Uint64
}

// NewMemoryBus creates an empty bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{}
}

// Dropped returns how many deliveries were dropped on full queues.
func (b *MemoryBus) Dropped() uint64 { return b.dropped.Load() }

func (b *MemoryBus) Publish(_ context.Context, subject string, data []byte) error {
	_, err := b.deliver(&Message{Subject: subject, Data: data})
	return err
}

// deliver queues msg for every matching subscription and reports
// whether there was one.
func (b *MemoryBus) deliver(msg *Message) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return false, ErrClosed
	}
	matched := false
	for _, sub := range b.subs {
		if !sub.pattern.match(msg.Subject) {
			continue
		}
		matched = true
		select {
		case sub.queue <- msg:
		default:
			b.dropped.Add(1)
			telemetry.RecordBusDropped()
		}
	}
	return matched, nil
}

func (b *MemoryBus) Subscribe(ctx context.Context, subject string, handler MessageHandler) (Subscription, error) {
	sub := &memorySub{
		bus:     b,
		subject: subject,
		pattern: parsePattern(subject),
		queue:   make(chan *Message, subscriptionBuffer),
		handler: handler,
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrClosed
	}
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	go sub.run(ctx)
	return sub, nil
}

func (b *MemoryBus) Request(ctx context.Context, subject string, data []byte, timeout time.Duration) ([]byte, error) {
	inbox := "_INBOX." + ulid.Make().String()
	replies := make(chan []byte, 1)
	sub, err := b.Subscribe(ctx, inbox, func(msg *Message) []byte {
		select {
		case replies <- msg.Data:
		default:
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	defer sub.Unsubscribe()

	matched, err := b.deliver(&Message{Subject: subject, Data: data, ReplyTo: inbox})
	if err != nil {
		return nil, err
	}
	if !matched {
		return nil, ErrNoResponders
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	select {
	case reply := <-replies:
		return reply, nil
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrTimeout
		}
		return nil, ctx.Err()
	}
}

// Close ends every subscription. Closing twice returns ErrClosed.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	b.closed = true
	for _, sub := range b.subs {
		close(sub.queue)
	}
	b.subs = nil
	return nil
}

// remove detaches sub and closes its queue. The caller holds no lock.
func (b *MemoryBus) remove(sub *memorySub) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := slices.Index(b.subs, sub)
	if i < 0 {
		return
	}
	b.subs = slices.Delete(b.subs, i, i+1)
	close(sub.queue)
}

type memorySub struct {
	bus     *MemoryBus
	subject string
	pattern subjectPattern
	queue   chan *Message
	handler MessageHandler
}

func (s *memorySub) Unsubscribe() error {
	s.bus.remove(s)
	return nil
}

func (s *memorySub) Subject() string { return s.subject }

func (s *memorySub) run(ctx context.Context) {
	for {
		select {
		case msg, ok := <-s.queue:
			if !ok {
				return
			}
			if reply := s.handler(msg); reply != nil && msg.ReplyTo != "" {
				_ = s.bus.Publish(ctx, msg.ReplyTo, reply)
			}
		case <-ctx.Done():
			return
		}
	}
}

// subjectPattern is a subscription subject split into tokens. "*"
// matches one token and a trailing ">" matches one or more.
type subjectPattern []string

func parsePattern(subject string) subjectPattern {
	return strings.Split(subject, ".")
}

func (p subjectPattern) match(subject string) bool {
	tokens := strings.Split(subject, ".")
	for i, want := range p {
		if want == ">" {
			return len(tokens) > i
		}
		if i >= len(tokens) || (want != "*" && want != tokens[i]) {
			return false
		}
	}
	return len(tokens) == len(p)
}
