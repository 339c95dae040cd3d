// Package notify presents short success/error notices to the user, the
// terminal counterpart of toast messages.
package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Notifier is a fire-and-forget notification sink.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Discard drops every notification.
var Discard Notifier = discard{}

type discard struct{}

func (discard) Success(string) {}
func (discard) Error(string)   {}

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)
)

// Terminal writes styled notices to w, one per line. Safe for concurrent use.
type Terminal struct {
	mu sync.Mutex
	w  io.Writer
}

func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: w}
}

func (t *Terminal) Success(msg string) {
	t.write(successStyle.Render("✔ " + msg))
}

func (t *Terminal) Error(msg string) {
	t.write(errorStyle.Render("✖ " + msg))
}

func (t *Terminal) write(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.w, line)
}
