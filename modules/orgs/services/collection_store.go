package services

import (
	"sync"

	"github.com/iota-uz/orgadmin/pkg/eventbus"
)

// CollectionState is the observable state of one paginated collection.
type CollectionState[T any] struct {
	Items   []T    `json:"items"`
	Count   int    `json:"count"`
	Page    int    `json:"page"`
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

// StateChanged is published on the event bus after every store transition.
type StateChanged[T any] struct {
	Collection string
	State      CollectionState[T]
}

// CollectionStore owns the state of one collection. It is only written through
// StartLoading, Resolve and Fail.
type CollectionStore[T any] struct {
	name     string
	pageSize int
	bus      eventbus.EventBus
	scope    *Scope

	mu    sync.RWMutex
	state CollectionState[T]
}

func NewCollectionStore[T any](name string, pageSize int, bus eventbus.EventBus) *CollectionStore[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &CollectionStore[T]{
		name:     name,
		pageSize: pageSize,
		bus:      bus,
		state:    CollectionState[T]{Items: []T{}, Page: 1},
	}
}

func (s *CollectionStore[T]) Name() string { return s.name }

func (s *CollectionStore[T]) PageSize() int { return s.pageSize }

// StartLoading keeps the current rows visible while a fetch is in flight.
func (s *CollectionStore[T]) StartLoading() {
	s.update(func(st *CollectionState[T]) {
		st.Loading = true
		st.Error = ""
	})
}

// Resolve replaces the page. A nil count falls back to len(items).
func (s *CollectionStore[T]) Resolve(items []T, page int, count *int) {
	rows := make([]T, len(items))
	copy(rows, items)
	if page < 1 {
		page = 1
	}
	total := len(rows)
	if count != nil {
		total = *count
	}
	s.update(func(st *CollectionState[T]) {
		*st = CollectionState[T]{Items: rows, Count: total, Page: page}
	})
}

// Fail records message and leaves items, count and page untouched.
func (s *CollectionStore[T]) Fail(message string) {
	s.update(func(st *CollectionState[T]) {
		st.Loading = false
		st.Error = message
	})
}

func (s *CollectionStore[T]) Snapshot() CollectionState[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *CollectionStore[T]) Page() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Page
}

func (s *CollectionStore[T]) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Count
}

func (s *CollectionStore[T]) TotalPages() int {
	return TotalPages(s.Count(), s.pageSize)
}

// TotalPages is max(1, ceil(count/pageSize)).
func TotalPages(count, pageSize int) int {
	if pageSize <= 0 || count <= 0 {
		return 1
	}
	pages := count / pageSize
	if count%pageSize != 0 {
		pages++
	}
	return max(1, pages)
}

func (s *CollectionStore[T]) snapshotLocked() CollectionState[T] {
	out := s.state
	out.Items = make([]T, len(s.state.Items))
	copy(out.Items, s.state.Items)
	return out
}

// bindScope makes the store ignore writes once scope has ended.
func (s *CollectionStore[T]) bindScope(scope *Scope) *CollectionStore[T] {
	s.scope = scope
	return s
}

func (s *CollectionStore[T]) update(fn func(st *CollectionState[T])) {
	var snap CollectionState[T]
	write := func() {
		s.mu.Lock()
		fn(&s.state)
		snap = s.snapshotLocked()
		s.mu.Unlock()
	}
	if s.scope == nil {
		write()
	} else if !s.scope.Guard(write) {
		return
	}

	if s.bus != nil {
		s.bus.Publish(StateChanged[T]{Collection: s.name, State: snap})
	}
}
