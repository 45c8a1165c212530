package commands

import (
	"context"
	"strings"

	"github.com/pterm/pterm"

	"github.com/teranos/qntx-signal/errors"
)

// Exit codes
const (
	ExitFailure   = 1
	ExitConfig    = 2
	ExitCancelled = 130
)

// ErrRunCancelled is returned by run when the batch was interrupted.
var ErrRunCancelled = errors.New("run cancelled")

// ExitCode maps a command error onto a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errors.ErrInvalidConfig):
		return ExitConfig
	case errors.IsAny(err, ErrRunCancelled, context.Canceled):
		return ExitCancelled
	default:
		return ExitFailure
	}
}

// FormatError renders err with any hints attached along the way.
func FormatError(err error) string {
	var b strings.Builder
	b.WriteString(pterm.Red("Error: "))
	b.WriteString(err.Error())
	for _, hint := range errors.GetAllHints(err) {
		b.WriteString("\n  ")
		b.WriteString(pterm.LightCyan("hint: "))
		b.WriteString(hint)
	}
	return b.String()
}
