package services

import (
	"context"
	"sync"
)

// Scope is the lifetime of one admin session. Closing it cancels every request
// bound to it and makes late responses discardable.
type Scope struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

func NewScope(parent context.Context) *Scope {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	s := &Scope{ctx: ctx, cancel: cancel}
	context.AfterFunc(ctx, s.markClosed)
	return s
}

func (s *Scope) Context() context.Context { return s.ctx }

func (s *Scope) Alive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.aliveLocked()
}

// Close ends the scope. It waits for writes already admitted by Guard, so no
// state changes once it returns.
func (s *Scope) Close() {
	s.markClosed()
	s.cancel()
}

// Guard runs write only while the scope is alive and reports whether it ran.
// write must not call back into the scope.
func (s *Scope) Guard(write func()) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.aliveLocked() {
		return false
	}
	write()
	return true
}

func (s *Scope) aliveLocked() bool {
	return !s.closed && s.ctx.Err() == nil
}

func (s *Scope) markClosed() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Bind derives a context that is canceled when either ctx or the scope ends.
func (s *Scope) Bind(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	derived, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.ctx, cancel)
	return derived, func() {
		stop()
		cancel()
	}
}
