package presentation

import (
	"context"

	"github.com/odvcencio/crawlterm/pkg/logging"
)

// Factory builds a fresh controller, with its own session, for one
// launch. release runs after the controller ends and must wait for the
// session's engine goroutine to finish.
type Factory func(ctx context.Context, launch int) (c *Controller, release func(), err error)

// Launcher runs controllers back to back while each one ends asking for
// a relaunch.
type Launcher struct {
	factory  Factory
	log      *logging.Logger
	launches int
}

// NewLauncher creates a launcher.
func NewLauncher(factory Factory, log *logging.Logger) *Launcher {
	return &Launcher{factory: factory, log: log}
}

// Launches returns how many controllers have been created.
func (l *Launcher) Launches() int { return l.launches }

// Run blocks until a controller ends without requesting a relaunch.
func (l *Launcher) Run(ctx context.Context) error {
	for {
		c, release, err := l.factory(ctx, l.launches)
		if err != nil {
			return err
		}
		l.launches++

		runErr := c.Run(ctx)
		if release != nil {
			release()
		}
		if runErr != nil {
			return runErr
		}
		if c.Outcome() != OutcomeRelaunch {
			return nil
		}
		l.log.Info(logging.CategorySession, "relaunch", "restarting session after preference change", map[string]any{"launch": l.launches})
	}
}
