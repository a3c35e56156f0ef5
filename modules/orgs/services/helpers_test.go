package services

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/iota-uz/orgadmin/modules/orgs/domain"
	"github.com/iota-uz/orgadmin/pkg/eventbus"
	"github.com/iota-uz/orgadmin/pkg/httpapi"
	"github.com/iota-uz/orgadmin/pkg/logging"
)

type listCall struct {
	query    url.Values
	page     int
	pageSize int
}

// fakeGateway is an in-memory gateway whose behaviour is scripted per test.
type fakeGateway[T any] struct {
	mu sync.Mutex

	listFn    func(ctx context.Context, page int) (domain.Page[T], error)
	createFn  func(payload any) (T, error)
	toggleFn  func(id int) (T, error)
	updateFn  func(id int, payload any) (T, error)
	deleteErr error

	lists   []listCall
	creates []any
	toggles []int
	updates []int
	deletes []int
}

func (f *fakeGateway[T]) List(ctx context.Context, filter domain.Filter, page, pageSize int) (domain.Page[T], error) {
	f.mu.Lock()
	f.lists = append(f.lists, listCall{query: filter.Values(), page: page, pageSize: pageSize})
	fn := f.listFn
	f.mu.Unlock()
	if fn == nil {
		return domain.Page[T]{Items: []T{}}, nil
	}
	return fn(ctx, page)
}

func (f *fakeGateway[T]) Create(_ context.Context, payload any) (T, error) {
	f.mu.Lock()
	f.creates = append(f.creates, payload)
	fn := f.createFn
	f.mu.Unlock()
	var zero T
	if fn == nil {
		return zero, nil
	}
	return fn(payload)
}

func (f *fakeGateway[T]) ToggleEstado(_ context.Context, id int) (T, error) {
	f.mu.Lock()
	f.toggles = append(f.toggles, id)
	fn := f.toggleFn
	f.mu.Unlock()
	var zero T
	if fn == nil {
		return zero, nil
	}
	return fn(id)
}

func (f *fakeGateway[T]) Update(_ context.Context, id int, payload any) (T, error) {
	f.mu.Lock()
	f.updates = append(f.updates, id)
	fn := f.updateFn
	f.mu.Unlock()
	var zero T
	if fn == nil {
		return zero, nil
	}
	return fn(id, payload)
}

func (f *fakeGateway[T]) Delete(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
	return f.deleteErr
}

func (f *fakeGateway[T]) listCalls() []listCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]listCall(nil), f.lists...)
}

func (f *fakeGateway[T]) createCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.creates)
}

func (f *fakeGateway[T]) deleteCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.deletes)
}

func direcciones(from, n int) []domain.Direccion {
	out := make([]domain.Direccion, 0, n)
	for i := from; i < from+n; i++ {
		out = append(out, domain.Direccion{ID: i, Nombre: fmt.Sprintf("Dirección %02d", i), Estado: true})
	}
	return out
}

func apiError(status int, body string) error {
	return fmt.Errorf("gateway: %w", httpapi.DecodeError(status, []byte(body)))
}

// confirmer answers every prompt with answer and records the prompts.
type confirmer struct {
	mu      sync.Mutex
	answer  bool
	prompts []string
}

func (c *confirmer) Confirm(_ context.Context, prompt string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, prompt)
	return c.answer, nil
}

type direccionHarness struct {
	gw       *fakeGateway[domain.Direccion]
	ctrl     *DireccionController
	feedback *FeedbackChannel
	scope    *Scope
	confirm  *confirmer
	bus      eventbus.EventBus
}

func newDireccionHarness(discardStale bool) *direccionHarness {
	gw := &fakeGateway[domain.Direccion]{}
	bus := eventbus.NewEventPublisher(logging.Discard())
	h := &direccionHarness{
		gw:      gw,
		scope:   NewScope(context.Background()),
		confirm: &confirmer{answer: true},
		bus:     bus,
	}
	h.feedback = NewFeedbackChannel(bus)
	h.ctrl = newDireccionController(gw, shared{
		opts: PanelOptions{
			PageSize:     DefaultPageSize,
			DiscardStale: discardStale,
			Confirmer:    h.confirm,
			Bus:          bus,
			Log:          logging.Discard(),
		},
		feedback: h.feedback,
		scope:    h.scope,
	})
	return h
}
