package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/iota-uz/orgadmin/modules/orgs/domain"
	"github.com/iota-uz/orgadmin/pkg/eventbus"
)

const (
	DefaultPageSize        = 10
	DefaultOptionsPageSize = 100
)

// Gateway is the transport boundary of one collection.
type Gateway[T any] interface {
	Lister[T]
	Create(ctx context.Context, payload any) (T, error)
	Delete(ctx context.Context, id int) error
}

type Toggler[T any] interface {
	ToggleEstado(ctx context.Context, id int) (T, error)
}

type Updater[T any] interface {
	Update(ctx context.Context, id int, payload any) (T, error)
}

// Confirmer gates destructive operations.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) { return f(ctx, prompt) }

type Mutation string

const (
	MutationCreate Mutation = "create"
	MutationToggle Mutation = "toggle"
	MutationUpdate Mutation = "update"
	MutationDelete Mutation = "delete"
)

// CascadeFunc runs after a successful mutation, next to the reload of the
// mutated collection.
type CascadeFunc func(ctx context.Context)

// Messages are fmt formats; the success and confirm formats take the entity name.
type Messages struct {
	LoadFailed    string
	CreateFailed  string
	UpdateFailed  string
	ToggleFailed  string
	DeleteFailed  string
	Created       string
	Updated       string
	Toggled       string
	Deleted       string
	ConfirmDelete string
}

// FormState mirrors what a form widget tracks: values, touched flag and per-field errors.
type FormState[V any] struct {
	Values  V                 `json:"values"`
	Touched bool              `json:"touched"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// ControllerConfig wires one EntityController. EditForm fills the form from an
// existing record and is required for Edit. DiscardStale drops list responses
// that arrive after a newer load was issued.
type ControllerConfig[T domain.Entity, F domain.Filter, V domain.Form] struct {
	Name          string
	Gateway       Gateway[T]
	Toggler       Toggler[T]
	Updater       Updater[T]
	Messages      Messages
	DefaultFilter F
	DefaultForm   V
	EditForm      func(T) V
	PageSize      int
	DiscardStale  bool
	Confirmer     Confirmer
	Feedback      *FeedbackChannel
	Scope         *Scope
	Bus           eventbus.EventBus
	Log           *logrus.Logger
}

// EntityController sequences list, filter, page and mutation operations for one
// collection and fires the registered cascades.
type EntityController[T domain.Entity, F domain.Filter, V domain.Form] struct {
	cfg   ControllerConfig[T, F, V]
	store *CollectionStore[T]

	mu       sync.Mutex
	filter   F
	form     FormState[V]
	editing  *T
	seq      uint64
	cascades map[Mutation][]CascadeFunc
}

func NewEntityController[T domain.Entity, F domain.Filter, V domain.Form](cfg ControllerConfig[T, F, V]) *EntityController[T, F, V] {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Feedback == nil {
		cfg.Feedback = NewFeedbackChannel(cfg.Bus)
	}
	if cfg.Scope == nil {
		cfg.Scope = NewScope(context.Background())
	}
	cfg.Feedback.BindScope(cfg.Scope)
	if cfg.Log == nil {
		cfg.Log = logrus.StandardLogger()
	}
	return &EntityController[T, F, V]{
		cfg:      cfg,
		store:    NewCollectionStore[T](cfg.Name, cfg.PageSize, cfg.Bus).bindScope(cfg.Scope),
		filter:   cfg.DefaultFilter,
		form:     FormState[V]{Values: cfg.DefaultForm},
		cascades: map[Mutation][]CascadeFunc{},
	}
}

func (c *EntityController[T, F, V]) Name() string { return c.cfg.Name }

func (c *EntityController[T, F, V]) Store() *CollectionStore[T] { return c.store }

func (c *EntityController[T, F, V]) State() CollectionState[T] { return c.store.Snapshot() }

func (c *EntityController[T, F, V]) TotalPages() int { return c.store.TotalPages() }

// OnMutation registers a cascade for kind.
func (c *EntityController[T, F, V]) OnMutation(kind Mutation, fn CascadeFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cascades[kind] = append(c.cascades[kind], fn)
}

func (c *EntityController[T, F, V]) Filters() F {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

func (c *EntityController[T, F, V]) SetFilters(f F) {
	c.mu.Lock()
	c.filter = f
	c.mu.Unlock()
}

func (c *EntityController[T, F, V]) Form() FormState[V] {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.form
	if c.form.Errors != nil {
		out.Errors = make(map[string]string, len(c.form.Errors))
		for k, v := range c.form.Errors {
			out.Errors[k] = v
		}
	}
	return out
}

// Load fetches page with the current filters. The store reflects the outcome;
// the raw error is returned as well.
func (c *EntityController[T, F, V]) Load(ctx context.Context, page int) error {
	if page < 1 {
		page = 1
	}
	if !c.cfg.Scope.Alive() {
		return ErrScopeClosed
	}
	ctx, done := c.cfg.Scope.Bind(ctx)
	defer done()

	c.mu.Lock()
	c.seq++
	seq := c.seq
	filter := c.filter
	c.mu.Unlock()

	c.store.StartLoading()
	result, err := c.cfg.Gateway.List(ctx, filter, page, c.cfg.PageSize)

	if discard := c.discard(seq); discard != nil {
		c.cfg.Log.WithFields(logrus.Fields{
			"collection": c.cfg.Name,
			"page":       page,
		}).WithError(discard).Debug("dropping list response")
		return discard
	}
	if err != nil {
		c.store.Fail(NormalizeError(err, c.cfg.Messages.LoadFailed))
		return err
	}
	count := result.Count
	c.store.Resolve(result.Items, page, &count)
	if !c.cfg.Scope.Alive() {
		return ErrScopeClosed
	}
	return nil
}

func (c *EntityController[T, F, V]) discard(seq uint64) error {
	if !c.cfg.Scope.Alive() {
		return ErrScopeClosed
	}
	if !c.cfg.DiscardStale {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		return ErrStaleResponse
	}
	return nil
}

func (c *EntityController[T, F, V]) Reload(ctx context.Context) error {
	return c.Load(ctx, c.store.Page())
}

// ApplyFilters always restarts from page 1.
func (c *EntityController[T, F, V]) ApplyFilters(ctx context.Context) error {
	return c.Load(ctx, 1)
}

func (c *EntityController[T, F, V]) ResetFilters(ctx context.Context) error {
	c.SetFilters(c.cfg.DefaultFilter)
	return c.ApplyFilters(ctx)
}

// ChangePage is a no-op when page is already the current page.
func (c *EntityController[T, F, V]) ChangePage(ctx context.Context, page int) error {
	if page < 1 {
		return ErrInvalidPage
	}
	if page == c.store.Page() {
		return nil
	}
	return c.Load(ctx, page)
}

// Create validates form locally, posts it and reloads page 1.
func (c *EntityController[T, F, V]) Create(ctx context.Context, form V) (T, error) {
	return c.save(ctx, form, nil)
}

// Submit updates the record being edited, or creates a new one.
func (c *EntityController[T, F, V]) Submit(ctx context.Context, form V) (T, error) {
	c.mu.Lock()
	var target *T
	if c.editing != nil && c.cfg.Updater != nil {
		cp := *c.editing
		target = &cp
	}
	c.mu.Unlock()
	return c.save(ctx, form, target)
}

func (c *EntityController[T, F, V]) save(ctx context.Context, form V, target *T) (T, error) {
	var zero T

	c.mu.Lock()
	c.form.Values = form
	c.mu.Unlock()

	payload, err := form.Payload()
	if err != nil {
		c.markInvalid(err)
		return zero, err
	}
	if !c.cfg.Scope.Alive() {
		return zero, ErrScopeClosed
	}
	ctx, done := c.cfg.Scope.Bind(ctx)
	defer done()

	var (
		saved     T
		kind      = MutationCreate
		failed    = c.cfg.Messages.CreateFailed
		succeeded = c.cfg.Messages.Created
	)
	if target != nil {
		kind, failed, succeeded = MutationUpdate, c.cfg.Messages.UpdateFailed, c.cfg.Messages.Updated
		saved, err = c.cfg.Updater.Update(ctx, (*target).EntityID(), payload)
	} else {
		saved, err = c.cfg.Gateway.Create(ctx, payload)
	}
	if !c.cfg.Scope.Alive() {
		return zero, ErrScopeClosed
	}
	if err != nil {
		c.cfg.Feedback.Error(NormalizeError(err, failed))
		return zero, err
	}

	c.cfg.Feedback.Success(fmt.Sprintf(succeeded, saved.DisplayName()))
	reset := c.cfg.Scope.Guard(func() {
		c.mu.Lock()
		c.form = FormState[V]{Values: c.cfg.DefaultForm}
		c.editing = nil
		c.mu.Unlock()
	})
	if !reset {
		return zero, ErrScopeClosed
	}

	page := 1
	if kind == MutationUpdate {
		page = c.store.Page()
	}
	c.afterMutation(ctx, kind, page)
	return saved, nil
}

// markInvalid touches the form for per-field failures. Form-level failures
// only post their message as feedback.
func (c *EntityController[T, F, V]) markInvalid(err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) && ve.Message != "" {
		c.cfg.Feedback.Error(ve.Message)
		return
	}
	c.mu.Lock()
	c.form.Touched = true
	if ve != nil {
		c.form.Errors = ve.Fields
	}
	c.mu.Unlock()
}

// ToggleEstado flips the estado flag server side and reloads the current page.
func (c *EntityController[T, F, V]) ToggleEstado(ctx context.Context, item T) (T, error) {
	var zero T
	if c.cfg.Toggler == nil {
		return zero, ErrNotSupported
	}
	if !c.cfg.Scope.Alive() {
		return zero, ErrScopeClosed
	}
	ctx, done := c.cfg.Scope.Bind(ctx)
	defer done()

	updated, err := c.cfg.Toggler.ToggleEstado(ctx, item.EntityID())
	if !c.cfg.Scope.Alive() {
		return zero, ErrScopeClosed
	}
	if err != nil {
		c.cfg.Feedback.Error(NormalizeError(err, c.cfg.Messages.ToggleFailed))
		return zero, err
	}
	c.cfg.Feedback.Success(fmt.Sprintf(c.cfg.Messages.Toggled, updated.DisplayName()))
	c.afterMutation(ctx, MutationToggle, c.store.Page())
	return updated, nil
}

// Delete asks the confirmer first; a negative answer returns (false, nil) with
// no request and no feedback.
func (c *EntityController[T, F, V]) Delete(ctx context.Context, item T) (bool, error) {
	if c.cfg.Confirmer == nil {
		return false, ErrNoConfirmer
	}
	ok, err := c.cfg.Confirmer.Confirm(ctx, fmt.Sprintf(c.cfg.Messages.ConfirmDelete, item.DisplayName()))
	if err != nil || !ok {
		return false, err
	}
	if !c.cfg.Scope.Alive() {
		return false, ErrScopeClosed
	}
	ctx, done := c.cfg.Scope.Bind(ctx)
	defer done()

	err = c.cfg.Gateway.Delete(ctx, item.EntityID())
	if !c.cfg.Scope.Alive() {
		return false, ErrScopeClosed
	}
	if err != nil {
		c.cfg.Feedback.Error(NormalizeError(err, c.cfg.Messages.DeleteFailed))
		return false, err
	}
	c.cfg.Feedback.Success(fmt.Sprintf(c.cfg.Messages.Deleted, item.DisplayName()))
	c.afterMutation(ctx, MutationDelete, c.store.Page())
	return true, nil
}

func (c *EntityController[T, F, V]) Edit(item T) error {
	if c.cfg.Updater == nil || c.cfg.EditForm == nil {
		return ErrNotSupported
	}
	form := c.cfg.EditForm(item)
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := item
	c.editing = &cp
	c.form = FormState[V]{Values: form}
	return nil
}

func (c *EntityController[T, F, V]) CancelEdit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.editing = nil
	c.form = FormState[V]{Values: c.cfg.DefaultForm}
}

func (c *EntityController[T, F, V]) Editing() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.editing == nil {
		var zero T
		return zero, false
	}
	return *c.editing, true
}

// afterMutation reloads page and runs the cascades for kind concurrently.
// Reload and cascade failures land in their own stores.
func (c *EntityController[T, F, V]) afterMutation(ctx context.Context, kind Mutation, page int) {
	c.mu.Lock()
	cascades := append([]CascadeFunc(nil), c.cascades[kind]...)
	c.mu.Unlock()

	var g errgroup.Group
	g.Go(func() error {
		_ = c.Load(ctx, page)
		return nil
	})
	for _, fn := range cascades {
		g.Go(func() error {
			fn(ctx)
			return nil
		})
	}
	_ = g.Wait()
}
