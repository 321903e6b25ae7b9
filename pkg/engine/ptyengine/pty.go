// Package ptyengine runs an external console game on a pseudo-terminal.
// Key input is written to the terminal as the bytes a real terminal
// would send, and everything the game prints is posted as Output.
package ptyengine

import (
	"context"
	stderrors "errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/creack/pty"

	"github.com/odvcencio/crawlterm/pkg/engine"
	"github.com/odvcencio/crawlterm/pkg/errors"
	"github.com/odvcencio/crawlterm/pkg/logging"
	"github.com/odvcencio/crawlterm/pkg/message"
)

const (
	readBufferSize = 4096
	// drainTimeout bounds the wait for trailing output after the game
	// exits; a background child can keep the terminal open.
	drainTimeout = 500 * time.Millisecond
	killGrace    = 2 * time.Second
)

// Config describes the game to run.
type Config struct {
	Command string
	Args    []string
	Dir     string
	Env     []string
	Logger  *logging.Logger
}

// Engine runs Config.Command once per run.
type Engine struct {
	cfg Config
}

// New creates a pty engine.
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

func (e *Engine) command() *exec.Cmd {
	cmd := exec.Command(e.cfg.Command, e.cfg.Args...)
	cmd.Dir = e.cfg.Dir
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")
	cmd.Env = append(cmd.Env, e.cfg.Env...)
	return cmd
}

func startPTY(cmd *exec.Cmd, rows, cols int) (*os.File, error) {
	rows16, okRows := intToUint16(rows)
	cols16, okCols := intToUint16(cols)
	if okRows && okCols {
		return pty.StartWithSize(cmd, &pty.Winsize{
			Rows: rows16,
			Cols: cols16,
		})
	}
	return pty.Start(cmd)
}

// outputGate lets the output pump post until the run closes it. Once
// closed, nothing the pump reads is posted.
type outputGate struct {
	mu     sync.Mutex
	closed bool
}

func (g *outputGate) post(host engine.Host, msg message.Message) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.closed {
		host.Post(msg)
	}
}

func (g *outputGate) close() {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
}

// Run implements engine.Engine.
func (e *Engine) Run(ctx context.Context, host engine.Host) error {
	if e.cfg.Command == "" {
		err := errors.New(errors.ErrCodeEngineStart, "no game command configured").
			WithRemediation("Set game.command in the preferences file")
		host.Post(message.EngineExited{Err: err})
		return err
	}

	cmd := e.command()
	rows, cols := host.Size()
	ptmx, err := startPTY(cmd, rows, cols)
	if err != nil {
		werr := errors.Wrap(err, errors.ErrCodeEngineStart, "failed to start game").WithContext("command", e.cfg.Command)
		host.Post(message.EngineExited{Err: werr})
		return werr
	}
	defer func() {
		_ = ptmx.Close()
	}()
	e.cfg.Logger.Info(logging.CategoryEngine, "pty_started", "game started", map[string]any{
		"command": e.cfg.Command,
		"pid":     cmd.Process.Pid,
	})

	// Copy PTY output to the presentation layer
	gate := &outputGate{}
	outputDone := make(chan struct{})
	go func() {
		defer close(outputDone)
		buffer := make([]byte, readBufferSize)
		for {
			n, err := ptmx.Read(buffer)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buffer[:n])
				gate.post(host, message.Output{Data: chunk})
			}
			if err != nil {
				return
			}
		}
	}()

	exited := make(chan struct{})
	var waitErr error
	go func() {
		waitErr = cmd.Wait()
		close(exited)
	}()

	inputCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-exited:
			cancel()
		case <-inputCtx.Done():
		}
	}()

	for {
		ev, err := host.NextInput(inputCtx)
		if err != nil {
			select {
			case <-exited:
				return e.finish(host, waitErr, ptmx, gate, outputDone)
			default:
			}
			e.terminate(cmd, ptmx, exited)
			gate.close()
			return err
		}
		if data := ev.Bytes(); len(data) > 0 {
			if _, werr := ptmx.Write(data); werr != nil {
				e.cfg.Logger.Debug(logging.CategoryEngine, "pty_write_failed", werr.Error(), nil)
			}
		}
	}
}

// finish reports a game that ended on its own. Trailing output is
// posted before the exit and never after it.
func (e *Engine) finish(host engine.Host, waitErr error, ptmx *os.File, gate *outputGate, outputDone <-chan struct{}) error {
	select {
	case <-outputDone:
	case <-time.After(drainTimeout):
		_ = ptmx.Close()
		select {
		case <-outputDone:
		case <-time.After(drainTimeout):
		}
	}
	gate.close()

	status := exitCode(waitErr)
	var err error
	if status != 0 {
		err = errors.New(errors.ErrCodeEngineExit, fmt.Sprintf("game exited with status %d", status)).
			WithContext("command", e.cfg.Command)
	}
	e.cfg.Logger.Info(logging.CategoryEngine, "pty_exited", "game exited", map[string]any{"status": status})
	host.Post(message.EngineExited{Err: err})
	return err
}

// terminate hangs up the terminal and kills the game if it lingers.
func (e *Engine) terminate(cmd *exec.Cmd, ptmx *os.File, exited <-chan struct{}) {
	_ = ptmx.Close()
	select {
	case <-exited:
		return
	case <-time.After(killGrace):
	}
	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
	<-exited
}

func intToUint16(value int) (uint16, bool) {
	if value <= 0 || value > math.MaxUint16 {
		return 0, false
	}
	return uint16(value), true
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) && exitErr.ProcessState != nil {
		return exitErr.ProcessState.ExitCode()
	}
	return -1
}
