// Package bus mirrors session activity onto a message bus so other
// processes can watch a game. NATS is used when configured; the
// in-memory bus serves single-process spectators and tests.
package bus

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrTimeout is returned when a request times out waiting for a response.
	ErrTimeout = errors.New("request timeout")

	// ErrNoResponders is returned when no subscribers are available to handle a request.
	ErrNoResponders = errors.New("no responders available")

	// ErrClosed is returned when operating on a closed bus or subscription.
	ErrClosed = errors.New("bus or subscription closed")
)

// MessageBus is a subject-addressed publish/subscribe bus.
// Implementations must be safe for concurrent use.
type MessageBus interface {
	// Publish sends data to every subscriber of subject. It does not
	// wait for delivery.
	Publish(ctx context.Context, subject string, data []byte) error

	// Subscribe registers handler for subject. Wildcards follow NATS:
	// "*" matches one token and ">" matches the rest.
	Subscribe(ctx context.Context, subject string, handler MessageHandler) (Subscription, error)

	// Request sends data and waits for a single reply.
	Request(ctx context.Context, subject string, data []byte, timeout time.Duration) ([]byte, error)

	// Close shuts down the bus and all subscriptions.
	Close() error
}

// MessageHandler processes incoming messages. For requests, the returned
// data is sent as the reply; nil sends nothing.
type MessageHandler func(msg *Message) []byte

// Message is an incoming bus message.
type Message struct {
	Subject string
	Data    []byte
	ReplyTo string
}

// Subscription is an active subscription.
type Subscription interface {
	Unsubscribe() error
	Subject() string
}

// Config holds configuration for creating a MessageBus.
type Config struct {
	// Kind selects the implementation: "memory" or "nats".
	Kind string

	// URL is the NATS server URL. Ignored for the memory bus.
	URL string

	// Name is a client identifier for monitoring.
	Name string

	// Timeout is the default timeout for operations.
	Timeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Kind:    "memory",
		URL:     "nats://localhost:4222",
		Name:    "crawlterm",
		Timeout: 5 * time.Second,
	}
}

// Open creates the bus cfg describes.
func Open(cfg Config) (MessageBus, error) {
	switch cfg.Kind {
	case "", "memory":
		return NewMemoryBus(), nil
	case "nats":
		b, err := NewNATSBus(cfg)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, errors.New("unknown bus kind " + cfg.Kind)
	}
}
