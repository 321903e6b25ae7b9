package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	crerrors "github.com/odvcencio/crawlterm/pkg/errors"
)

func TestExitCodeForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitOK},
		{"plain", errors.New("boom"), exitFailure},
		{"explicit", withExitCode(errors.New("usage"), exitConfig), exitConfig},
		{"explicit zero", exitError{err: errors.New("x")}, exitFailure},
		{"wrapped explicit", fmt.Errorf("outer: %w", withExitCode(errors.New("bus"), exitBus)), exitBus},
		{"canceled", fmt.Errorf("run: %w", context.Canceled), exitInterrupted},
		{"config code", crerrors.New(crerrors.ErrCodeConfigInvalid, "bad"), exitConfig},
		{"backend code", crerrors.Wrap(errors.New("tty"), crerrors.ErrCodeBackendInit, "init"), exitTerminal},
		{"bus code", crerrors.New(crerrors.ErrCodeBusConnect, "down"), exitBus},
		{"other code", crerrors.New(crerrors.ErrCodeStorageRead, "disk"), exitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCodeForError(tt.err))
		})
	}
}

func TestWithExitCodeKeepsChain(t *testing.T) {
	base := errors.New("base")
	err := withExitCode(base, exitBus)
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "base", err.Error())
	assert.NoError(t, withExitCode(nil, exitBus))
}
