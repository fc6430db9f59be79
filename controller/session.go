package controller

import (
	"context"
	"errors"
	"sync"
)

// ErrSessionClosed is returned by Do once Run has returned.
var ErrSessionClosed = errors.New("session closed")

// Session runs a Controller on a single goroutine. Commands sent by the
// presenter and completions of file reads are queued on one channel and
// applied one at a time, so controller state is never accessed concurrently.
type Session struct {
	c       *Controller
	events  chan Msg
	calls   chan call
	done    chan struct{}
	once    sync.Once
	observe func(msg Msg, v View, redraw bool)
}

type call struct {
	fn   func(*Controller)
	done chan struct{}
}

// NewSession returns a Session around a new Controller. cfg.Post is
// overwritten so that file reads report back to the session.
func NewSession(cfg Config) *Session {
	s := &Session{
		events: make(chan Msg, 64),
		calls:  make(chan call),
		done:   make(chan struct{}),
	}
	cfg.Post = s.Send
	s.c = New(cfg)
	return s
}

// Observe registers fn to be called on the session goroutine after every
// processed message. It must be called before Run.
func (s *Session) Observe(fn func(msg Msg, v View, redraw bool)) {
	s.observe = fn
}

// Send queues msg. It blocks while the queue is full and drops msg once
// Run has returned.
func (s *Session) Send(msg Msg) {
	select {
	case s.events <- msg:
	case <-s.done:
	}
}

// Do runs fn on the session goroutine between two messages and waits for it
// to return.
func (s *Session) Do(ctx context.Context, fn func(*Controller)) error {
	c := call{fn: fn, done: make(chan struct{})}
	select {
	case s.calls <- c:
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	<-c.done
	return nil
}

// View returns a snapshot of the controller state taken on the session goroutine.
func (s *Session) View(ctx context.Context) (v View, err error) {
	err = s.Do(ctx, func(c *Controller) { v = c.View() })
	return v, err
}

// Run processes messages until ctx is done and returns ctx.Err().
// Run must be called at most once.
func (s *Session) Run(ctx context.Context) error {
	defer s.once.Do(func() { close(s.done) })
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c := <-s.calls:
			c.fn(s.c)
			close(c.done)
		case msg := <-s.events:
			redraw := s.c.Update(ctx, msg)
			if s.observe != nil {
				s.observe(msg, s.c.View(), redraw)
			}
		}
	}
}
