package services

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/iota-uz/orgadmin/modules/orgs/domain"
	"github.com/iota-uz/orgadmin/pkg/eventbus"
)

const (
	EstadoActiva = "activa"
	EstadoActivo = "activo"

	OptionsDirecciones   = "direcciones"
	OptionsDepartamentos = "departamentos"
)

// Lister is the read side of a collection gateway.
type Lister[T any] interface {
	List(ctx context.Context, filter domain.Filter, page, pageSize int) (domain.Page[T], error)
}

// OptionsChanged is published after an option slice was replaced.
type OptionsChanged struct {
	Kind  string
	Count int
}

// ReferenceOptionCache keeps the active Direcciones and Departamentos that feed
// parent selectors. Refresh failures keep the previous slice.
type ReferenceOptionCache struct {
	direcciones   Lister[domain.Direccion]
	departamentos Lister[domain.Departamento]
	pageSize      int
	scope         *Scope
	bus           eventbus.EventBus
	log           *logrus.Logger

	mu                  sync.RWMutex
	direccionOptions    []domain.Direccion
	departamentoOptions []domain.Departamento
}

func NewReferenceOptionCache(
	direcciones Lister[domain.Direccion],
	departamentos Lister[domain.Departamento],
	pageSize int,
	scope *Scope,
	bus eventbus.EventBus,
	log *logrus.Logger,
) *ReferenceOptionCache {
	if pageSize <= 0 {
		pageSize = DefaultOptionsPageSize
	}
	if scope == nil {
		scope = NewScope(context.Background())
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ReferenceOptionCache{
		direcciones:         direcciones,
		departamentos:       departamentos,
		pageSize:            pageSize,
		scope:               scope,
		bus:                 bus,
		log:                 log,
		direccionOptions:    []domain.Direccion{},
		departamentoOptions: []domain.Departamento{},
	}
}

func (c *ReferenceOptionCache) RefreshDireccionOptions(ctx context.Context) {
	items, ok := refreshSlice(ctx, c, OptionsDirecciones, c.direcciones, domain.DireccionFilter{Estado: EstadoActiva})
	if !ok {
		return
	}
	stored := c.scope.Guard(func() {
		c.mu.Lock()
		c.direccionOptions = items
		c.mu.Unlock()
	})
	if stored {
		c.publish(OptionsDirecciones, len(items))
	}
}

func (c *ReferenceOptionCache) RefreshDepartamentoOptions(ctx context.Context) {
	items, ok := refreshSlice(ctx, c, OptionsDepartamentos, c.departamentos, domain.DepartamentoFilter{Estado: EstadoActivo})
	if !ok {
		return
	}
	stored := c.scope.Guard(func() {
		c.mu.Lock()
		c.departamentoOptions = items
		c.mu.Unlock()
	})
	if stored {
		c.publish(OptionsDepartamentos, len(items))
	}
}

// Refresh reloads both slices concurrently.
func (c *ReferenceOptionCache) Refresh(ctx context.Context) {
	var g errgroup.Group
	g.Go(func() error {
		c.RefreshDireccionOptions(ctx)
		return nil
	})
	g.Go(func() error {
		c.RefreshDepartamentoOptions(ctx)
		return nil
	})
	_ = g.Wait()
}

func refreshSlice[T any](ctx context.Context, c *ReferenceOptionCache, kind string, lister Lister[T], filter domain.Filter) ([]T, bool) {
	if lister == nil || !c.scope.Alive() {
		return nil, false
	}
	ctx, done := c.scope.Bind(ctx)
	defer done()

	page, err := lister.List(ctx, filter, 1, c.pageSize)
	if !c.scope.Alive() {
		c.log.WithField("options", kind).Debug("discarding option refresh after scope close")
		return nil, false
	}
	if err != nil {
		c.log.WithError(err).WithField("options", kind).Debug("option refresh failed, keeping stale options")
		return nil, false
	}
	items := page.Items
	if items == nil {
		items = []T{}
	}
	return items, true
}

func (c *ReferenceOptionCache) publish(kind string, count int) {
	if c.bus != nil {
		c.bus.Publish(OptionsChanged{Kind: kind, Count: count})
	}
}

func (c *ReferenceOptionCache) DireccionOptions() []domain.Direccion {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Direccion, len(c.direccionOptions))
	copy(out, c.direccionOptions)
	return out
}

func (c *ReferenceOptionCache) DepartamentoOptions() []domain.Departamento {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Departamento, len(c.departamentoOptions))
	copy(out, c.departamentoOptions)
	return out
}

// MatchDireccion ranks cached options against term. A numeric term matches by id.
func (c *ReferenceOptionCache) MatchDireccion(term string) []domain.Direccion {
	return matchOptions(c.DireccionOptions(), term)
}

func (c *ReferenceOptionCache) MatchDepartamento(term string) []domain.Departamento {
	return matchOptions(c.DepartamentoOptions(), term)
}

func matchOptions[T domain.Entity](options []T, term string) []T {
	term = strings.TrimSpace(term)
	if term == "" {
		return options
	}
	if id, err := strconv.Atoi(term); err == nil {
		for _, o := range options {
			if o.EntityID() == id {
				return []T{o}
			}
		}
		return []T{}
	}

	names := make([]string, len(options))
	for i, o := range options {
		names[i] = o.DisplayName()
	}
	ranks := fuzzy.RankFindNormalizedFold(term, names)
	sort.Stable(ranks)

	out := make([]T, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, options[r.OriginalIndex])
	}
	return out
}
