package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/odvcencio/crawlterm/pkg/fifo"
	"github.com/odvcencio/crawlterm/pkg/input"
	"github.com/odvcencio/crawlterm/pkg/logging"
	"github.com/odvcencio/crawlterm/pkg/message"
	"github.com/odvcencio/crawlterm/pkg/telemetry"
)

// Options configure a Channel.
type Options struct {
	Rows, Cols int
	Logger     *logging.Logger
	// OnRunEnd is called on the worker goroutine after every run.
	OnRunEnd func(err error)
}

// Channel carries lifecycle requests and input to the engine worker.
type Channel struct {
	engine Engine
	poster Poster
	opts   Options

	requests chan Request
	inputs   *fifo.Queue[input.Event]

	spawn     sync.Once
	closeOnce sync.Once
	closed    chan struct{}
	done      chan struct{}
	active    atomic.Bool
	runs      atomic.Int64
	// exited is set when a run returned on its own with no Start or
	// Stop pending, and cleared by the next Start.
	exited atomic.Bool
}

// NewChannel creates a channel for eng. Messages the engine posts go to
// poster. No goroutine is started until the first Start.
func NewChannel(eng Engine, poster Poster, opts Options) *Channel {
	if opts.Rows <= 0 {
		opts.Rows = 24
	}
	if opts.Cols <= 0 {
		opts.Cols = 80
	}
	return &Channel{
		engine:   eng,
		poster:   poster,
		opts:     opts,
		requests: make(chan Request, 1),
		inputs:   fifo.New[input.Event](),
		closed:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start spawns the worker on first use and requests a run. Input queued
// before the call belongs to an earlier run and is discarded. It blocks
// only while a previous request is still waiting in the slot.
func (c *Channel) Start() {
	if n := c.inputs.Reset(); n > 0 {
		telemetry.RecordInputDiscarded(n)
		c.opts.Logger.Debug(logging.CategoryEngine, "input_discarded", "dropped input queued before start", map[string]any{"count": n})
	}
	c.exited.Store(false)
	c.spawn.Do(func() { go c.worker() })
	c.send(RequestStart)
}

// Stop requests the current run to end. It does not wait for the engine.
func (c *Channel) Stop() {
	c.send(RequestStop)
}

func (c *Channel) send(req Request) {
	select {
	case c.requests <- req:
	case <-c.closed:
	}
}

// Send queues an input event for the engine.
func (c *Channel) Send(ev input.Event) {
	c.inputs.Push(ev)
}

// Pending returns the number of queued input events.
func (c *Channel) Pending() int {
	return c.inputs.Len()
}

// Active reports whether Engine.Run is executing.
func (c *Channel) Active() bool {
	return c.active.Load()
}

// Exited reports whether the last run ended without being asked to.
// A Start clears it.
func (c *Channel) Exited() bool {
	return c.exited.Load()
}

// Runs returns how many engine runs have started.
func (c *Channel) Runs() int64 {
	return c.runs.Load()
}

// Close shuts the worker down once its current run returns. The engine
// must honour a Stop first; Close does not cancel a run.
func (c *Channel) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		// A worker that never started has nothing to wait for.
		c.spawn.Do(func() { close(c.done) })
	})
	<-c.done
}

func (c *Channel) worker() {
	defer close(c.done)
	for {
		select {
		case req := <-c.requests:
			if req != RequestStart {
				continue
			}
			for c.run() {
				select {
				case <-c.closed:
					return
				default:
				}
			}
		case <-c.closed:
			return
		}
	}
}

// run executes one engine run and reports whether a Start arrived while
// it was ending, in which case the caller runs again.
func (c *Channel) run() bool {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var restart atomic.Bool
	runDone := make(chan struct{})
	monitorDone := make(chan struct{})
	go func() {
		defer close(monitorDone)
		for {
			select {
			case req := <-c.requests:
				switch req {
				case RequestStop:
					restart.Store(false)
					cancel()
				case RequestStart:
					restart.Store(true)
				}
			case <-runDone:
				return
			}
		}
	}()

	c.exited.Store(false)
	c.active.Store(true)
	c.runs.Add(1)
	c.opts.Logger.Info(logging.CategoryEngine, "run_started", "engine run started", nil)

	err := c.engine.Run(ctx, &host{c: c, ctx: ctx})

	c.active.Store(false)
	close(runDone)
	<-monitorDone

	stopped := ctx.Err() != nil
	if !stopped && !restart.Load() {
		c.exited.Store(true)
	}
	switch {
	case err == nil || errors.Is(err, ErrStopped) || (stopped && errors.Is(err, context.Canceled)):
		result := "exited"
		if stopped {
			result = "stopped"
		}
		telemetry.RecordEngineRun(result)
		c.opts.Logger.Info(logging.CategoryEngine, "run_ended", "engine run ended", map[string]any{"result": result})
		err = nil
	default:
		telemetry.RecordEngineRun("failed")
		c.opts.Logger.Error(logging.CategoryEngine, "run_failed", err.Error(), nil)
	}
	if c.opts.OnRunEnd != nil {
		c.opts.OnRunEnd(err)
	}
	return restart.Load()
}

type host struct {
	c   *Channel
	ctx context.Context
}

func (h *host) NextInput(ctx context.Context) (input.Event, error) {
	for {
		if h.ctx.Err() != nil {
			return input.Event{}, ErrStopped
		}
		if ev, ok := h.c.inputs.TryPop(); ok {
			return ev, nil
		}
		select {
		case <-h.c.inputs.Ready():
		case <-h.ctx.Done():
			return input.Event{}, ErrStopped
		case <-ctx.Done():
			return input.Event{}, ctx.Err()
		}
	}
}

func (h *host) TryInput() (input.Event, bool) {
	if h.ctx.Err() != nil {
		return input.Event{}, false
	}
	return h.c.inputs.TryPop()
}

func (h *host) Post(msg message.Message) {
	if h.c.poster != nil {
		h.c.poster.Post(msg)
	}
}

func (h *host) Size() (rows, cols int) {
	return h.c.opts.Rows, h.c.opts.Cols
}
