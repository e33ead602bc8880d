package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/slok/deployboard/internal/dashboard"
)

type viewMsg struct{ view dashboard.View }

type notifyMsg struct{ notification dashboard.Notification }

type errMsg struct{ err error }

// Sink forwards the dashboard views and notifications to a bubbletea program.
// Everything received before a program is attached is dropped, and so are views
// older than the last forwarded one.
type Sink struct {
	mu       sync.Mutex
	program  *tea.Program
	revision uint64
}

// NewSink returns a new sink without program.
func NewSink() *Sink {
	return &Sink{}
}

// Attach sets the program that will receive the messages.
func (s *Sink) Attach(p *tea.Program) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.program = p
}

// Render satisfies dashboard.Sink.
func (s *Sink) Render(v dashboard.View) {
	s.mu.Lock()
	p := s.program
	stale := v.Revision < s.revision
	if p != nil && !stale {
		s.revision = v.Revision
	}
	s.mu.Unlock()

	if p == nil || stale {
		return
	}
	p.Send(viewMsg{view: v})
}

// Notify satisfies dashboard.Sink.
func (s *Sink) Notify(n dashboard.Notification) { s.send(notifyMsg{notification: n}) }

func (s *Sink) send(msg tea.Msg) {
	s.mu.Lock()
	p := s.program
	s.mu.Unlock()

	if p == nil {
		return
	}
	p.Send(msg)
}

var _ dashboard.Sink = &Sink{}
