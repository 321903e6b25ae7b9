// Package engine runs the game engine on its own long-lived goroutine.
//
// A Channel owns exactly one worker goroutine. Lifecycle requests reach
// it through a single-slot request channel; input events reach it
// through an unbounded FIFO. The engine itself talks back only through
// its Host: NextInput to consume input and Post to emit messages.
package engine

import (
	"context"
	"errors"

	"github.com/odvcencio/crawlterm/pkg/input"
	"github.com/odvcencio/crawlterm/pkg/message"
)

// ErrStopped is returned by Host.NextInput once a Stop request has been
// observed for the current run.
var ErrStopped = errors.New("engine: stopped")

// Engine is a game loop. Run blocks until the game ends or ctx is
// cancelled. It is always called on the Channel's worker goroutine.
type Engine interface {
	Run(ctx context.Context, host Host) error
}

// Func adapts a function to Engine.
type Func func(ctx context.Context, host Host) error

// Run calls f.
func (f Func) Run(ctx context.Context, host Host) error { return f(ctx, host) }

// Host is the engine's view of the session.
type Host interface {
	// NextInput blocks until an input event is queued. It returns
	// ErrStopped after a Stop request and ctx.Err() when ctx ends.
	NextInput(ctx context.Context) (input.Event, error)

	// TryInput returns a queued input event without blocking.
	TryInput() (input.Event, bool)

	// Post hands a message to the presentation layer. Never blocks.
	Post(msg message.Message)

	// Size returns the terminal size the engine should render for.
	Size() (rows, cols int)
}

// Poster receives engine messages. The bridge implements it.
type Poster interface {
	Post(msg message.Message)
}

// Request is a lifecycle request for the worker goroutine.
type Request int

const (
	RequestStart Request = iota + 1
	RequestStop
)

func (r Request) String() string {
	switch r {
	case RequestStart:
		return "start"
	case RequestStop:
		return "stop"
	default:
		return "unknown"
	}
}
