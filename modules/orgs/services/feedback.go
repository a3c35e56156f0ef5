package services

import (
	"sync"

	"github.com/iota-uz/orgadmin/pkg/eventbus"
)

type FeedbackKind string

const (
	FeedbackSuccess FeedbackKind = "success"
	FeedbackError   FeedbackKind = "error"
)

type Feedback struct {
	Kind FeedbackKind `json:"type"`
	Text string       `json:"text"`
}

// FeedbackChanged carries the new slot value; nil after Dismiss.
type FeedbackChanged struct {
	Feedback *Feedback
}

// FeedbackChannel holds at most one notification. Every Notify overwrites it.
type FeedbackChannel struct {
	bus eventbus.EventBus

	mu      sync.RWMutex
	current *Feedback
	scope   *Scope
}

func NewFeedbackChannel(bus eventbus.EventBus) *FeedbackChannel {
	return &FeedbackChannel{bus: bus}
}

func (f *FeedbackChannel) Notify(kind FeedbackKind, text string) {
	fb := &Feedback{Kind: kind, Text: text}
	f.set(fb)
}

func (f *FeedbackChannel) Success(text string) { f.Notify(FeedbackSuccess, text) }

func (f *FeedbackChannel) Error(text string) { f.Notify(FeedbackError, text) }

func (f *FeedbackChannel) Dismiss() { f.set(nil) }

// Current returns a copy of the pending notification, or nil.
func (f *FeedbackChannel) Current() *Feedback {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.current == nil {
		return nil
	}
	out := *f.current
	return &out
}

// BindScope drops every later notification once scope has ended. The first
// bound scope wins.
func (f *FeedbackChannel) BindScope(scope *Scope) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.scope == nil {
		f.scope = scope
	}
}

func (f *FeedbackChannel) set(fb *Feedback) {
	f.mu.RLock()
	scope := f.scope
	f.mu.RUnlock()

	write := func() {
		f.mu.Lock()
		f.current = fb
		f.mu.Unlock()
	}
	if scope == nil {
		write()
	} else if !scope.Guard(write) {
		return
	}
	if f.bus == nil {
		return
	}
	var evt FeedbackChanged
	if fb != nil {
		cp := *fb
		evt.Feedback = &cp
	}
	f.bus.Publish(evt)
}
