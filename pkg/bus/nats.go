package bus

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATSBus implements MessageBus using NATS.
type NATSBus struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	config Config
	closed atomic.Bool
}

// NewNATSBus connects to the server cfg names.
func NewNATSBus(cfg Config) (*NATSBus, error) {
	if cfg.URL == "" {
		cfg.URL = nats.DefaultURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}

	conn, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.Timeout(cfg.Timeout),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return newNATSBus(conn, cfg)
}

// NewNATSBusFromConn wraps an existing connection.
func NewNATSBusFromConn(conn *nats.Conn) (*NATSBus, error) {
	return newNATSBus(conn, DefaultConfig())
}

func newNATSBus(conn *nats.Conn, cfg Config) (*NATSBus, error) {
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}
	return &NATSBus{conn: conn, js: js, config: cfg}, nil
}

func (b *NATSBus) Publish(ctx context.Context, subject string, data []byte) error {
	if b.closed.Load() {
		return ErrClosed
	}
	return b.conn.Publish(subject, data)
}

func (b *NATSBus) Subscribe(ctx context.Context, subject string, handler MessageHandler) (Subscription, error) {
	if b.closed.Load() {
		return nil, ErrClosed
	}

	sub, err := b.conn.Subscribe(subject, func(msg *nats.Msg) {
		reply := handler(&Message{Subject: msg.Subject, Data: msg.Data, ReplyTo: msg.Reply})
		if reply != nil && msg.Reply != "" {
			_ = msg.Respond(reply)
		}
	})
	if err != nil {
		return nil, err
	}
	return &natsSubscription{sub: sub}, nil
}

func (b *NATSBus) Request(ctx context.Context, subject string, data []byte, timeout time.Duration) ([]byte, error) {
	if b.closed.Load() {
		return nil, ErrClosed
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	msg, err := b.conn.RequestWithContext(ctx, subject, data)
	switch {
	case errors.Is(err, nats.ErrNoResponders):
		return nil, ErrNoResponders
	case errors.Is(err, nats.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return nil, ErrTimeout
	case err != nil:
		return nil, err
	}
	return msg.Data, nil
}

// EnsureReplayStream creates or updates a JetStream stream retaining
// every session subject for maxAge, so spectators that join late can
// replay a game from the start.
func (b *NATSBus) EnsureReplayStream(ctx context.Context, prefix string, maxAge time.Duration) error {
	if b.closed.Load() {
		return ErrClosed
	}
	_, err := b.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      ReplayStreamName(prefix),
		Subjects:  []string{prefix + ".session.>"},
		Retention: jetstream.LimitsPolicy,
		MaxBytes:  256 * 1024 * 1024,
		Discard:   jetstream.DiscardOld,
		MaxAge:    maxAge,
		Storage:   jetstream.FileStorage,
		Replicas:  1,
	})
	if err != nil {
		return fmt.Errorf("replay stream: %w", err)
	}
	return nil
}

const replayBatch = 256

// Replay feeds fn every message the replay stream retained for
// sessionID, oldest first, and returns how many it delivered. It stops
// at the first error fn returns.
func (b *NATSBus) Replay(ctx context.Context, prefix, sessionID string, fn func(*Message) error) (int, error) {
	if b.closed.Load() {
		return 0, ErrClosed
	}
	filter := SessionSubject(prefix, sessionID, ">")
	stream, err := b.js.Stream(ctx, ReplayStreamName(prefix))
	if err != nil {
		return 0, fmt.Errorf("replay stream: %w", err)
	}
	info, err := stream.Info(ctx, jetstream.WithSubjectFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("replay stream info: %w", err)
	}
	var remaining uint64
	for _, n := range info.State.Subjects {
		remaining += n
	}
	if remaining == 0 {
		return 0, nil
	}

	cons, err := stream.OrderedConsumer(ctx, jetstream.OrderedConsumerConfig{
		FilterSubjects: []string{filter},
		DeliverPolicy:  jetstream.DeliverAllPolicy,
	})
	if err != nil {
		return 0, fmt.Errorf("replay consumer: %w", err)
	}

	delivered := 0
	for remaining > 0 {
		batch, err := cons.Fetch(int(min(remaining, replayBatch)), jetstream.FetchMaxWait(b.config.Timeout))
		if err != nil {
			return delivered, fmt.Errorf("replay fetch: %w", err)
		}
		got := 0
		for msg := range batch.Messages() {
			got++
			if err := fn(&Message{Subject: msg.Subject(), Data: msg.Data()}); err != nil {
				return delivered, err
			}
			delivered++
		}
		if err := batch.Error(); err != nil && !errors.Is(err, nats.ErrTimeout) {
			return delivered, fmt.Errorf("replay fetch: %w", err)
		}
		if got == 0 {
			break
		}
		remaining -= uint64(got)
	}
	return delivered, nil
}

func (b *NATSBus) Close() error {
	if b.closed.Swap(true) {
		return ErrClosed
	}
	b.conn.Close()
	return nil
}

// Conn returns the underlying NATS connection.
func (b *NATSBus) Conn() *nats.Conn {
	return b.conn
}

type natsSubscription struct {
	sub *nats.Subscription
}

func (s *natsSubscription) Unsubscribe() error {
	return s.sub.Unsubscribe()
}

func (s *natsSubscription) Subject() string {
	return s.sub.Subject
}
