package main

import (
	"context"
	"errors"

	crerrors "github.com/odvcencio/crawlterm/pkg/errors"
)

const (
	exitOK          = 0
	exitFailure     = 1
	exitConfig      = 2
	exitTerminal    = 3
	exitBus         = 4
	exitInterrupted = 130
)

type exitCoder interface {
	ExitCode() int
}

type exitError struct {
	code int
	err  error
}

func (e exitError) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e exitError) Unwrap() error {
	return e.err
}

func (e exitError) ExitCode() int {
	if e.code == 0 {
		return exitFailure
	}
	return e.code
}

func withExitCode(err error, code int) error {
	if err == nil {
		return nil
	}
	return exitError{code: code, err: err}
}

// exitCodeForError prefers an explicit code, then falls back to the
// error's category.
func exitCodeForError(err error) int {
	if err == nil {
		return exitOK
	}
	var coded exitCoder
	if errors.As(err, &coded) {
		return coded.ExitCode()
	}
	if errors.Is(err, context.Canceled) {
		return exitInterrupted
	}
	switch crerrors.GetCode(err) {
	case crerrors.ErrCodeConfigLoad, crerrors.ErrCodeConfigParse, crerrors.ErrCodeConfigInvalid:
		return exitConfig
	case crerrors.ErrCodeBackendInit:
		return exitTerminal
	case crerrors.ErrCodeBusConnect:
		return exitBus
	}
	return exitFailure
}
