package services

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/iota-uz/orgadmin/pkg/eventbus"
)

const MsgPanelRefreshed = "Panel actualizado correctamente."

type PanelOptions struct {
	PageSize        int
	OptionsPageSize int
	DiscardStale    bool
	Confirmer       Confirmer
	Bus             eventbus.EventBus
	Log             *logrus.Logger
}

// Summary is the row count of every collection as last loaded.
type Summary struct {
	Direcciones   int `json:"direcciones"`
	Departamentos int `json:"departamentos"`
	Cuadrillas    int `json:"cuadrillas"`
	Territoriales int `json:"territoriales"`
}

// Panel is one admin session: four controllers, the option cache and the
// feedback slot, all bound to the same scope.
type Panel struct {
	Direcciones   *DireccionController
	Departamentos *DepartamentoController
	Cuadrillas    *CuadrillaController
	Territoriales *TerritorialController
	Options       *ReferenceOptionCache
	Feedback      *FeedbackChannel

	scope *Scope
	bus   eventbus.EventBus
}

func NewPanel(ctx context.Context, gw Gateways, opts PanelOptions) *Panel {
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	if opts.Bus == nil {
		opts.Bus = eventbus.NewEventPublisher(opts.Log)
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.OptionsPageSize <= 0 {
		opts.OptionsPageSize = DefaultOptionsPageSize
	}

	scope := NewScope(ctx)
	s := shared{
		opts:     opts,
		feedback: NewFeedbackChannel(opts.Bus),
		scope:    scope,
	}
	s.feedback.BindScope(scope)
	p := &Panel{
		Direcciones:   newDireccionController(gw.Direcciones, s),
		Departamentos: newDepartamentoController(gw.Departamentos, s),
		Cuadrillas:    newCuadrillaController(gw.Cuadrillas, s),
		Territoriales: newTerritorialController(gw.Territoriales, s),
		Options:       NewReferenceOptionCache(gw.Direcciones, gw.Departamentos, opts.OptionsPageSize, scope, opts.Bus, opts.Log),
		Feedback:      s.feedback,
		scope:         scope,
		bus:           opts.Bus,
	}
	p.wireCascades()
	return p
}

func (p *Panel) wireCascades() {
	refreshOptions := func(ctx context.Context) { p.Options.Refresh(ctx) }

	p.Direcciones.OnMutation(MutationCreate, p.Options.RefreshDireccionOptions)
	p.Direcciones.OnMutation(MutationToggle, refreshOptions)
	p.Direcciones.OnMutation(MutationToggle, func(ctx context.Context) { _ = p.Departamentos.Reload(ctx) })
	p.Direcciones.OnMutation(MutationDelete, refreshOptions)

	p.Departamentos.OnMutation(MutationCreate, p.Options.RefreshDepartamentoOptions)
	p.Departamentos.OnMutation(MutationToggle, refreshOptions)
	p.Departamentos.OnMutation(MutationToggle, func(ctx context.Context) { _ = p.Cuadrillas.Reload(ctx) })
	p.Departamentos.OnMutation(MutationDelete, refreshOptions)
}

// Bootstrap loads the four collections and both option slices concurrently.
// List failures are recorded in their stores and joined into the returned error.
func (p *Panel) Bootstrap(ctx context.Context) error {
	var (
		g    errgroup.Group
		errs = make([]error, 4)
	)
	g.Go(func() error { errs[0] = p.Direcciones.Load(ctx, p.Direcciones.Store().Page()); return nil })
	g.Go(func() error { errs[1] = p.Departamentos.Load(ctx, p.Departamentos.Store().Page()); return nil })
	g.Go(func() error { errs[2] = p.Cuadrillas.Load(ctx, p.Cuadrillas.Store().Page()); return nil })
	g.Go(func() error { errs[3] = p.Territoriales.Load(ctx, p.Territoriales.Store().Page()); return nil })
	g.Go(func() error { p.Options.Refresh(ctx); return nil })
	_ = g.Wait()
	return errors.Join(errs...)
}

// RefreshAll reruns Bootstrap and always posts the refreshed notice.
func (p *Panel) RefreshAll(ctx context.Context) error {
	err := p.Bootstrap(ctx)
	if p.scope.Alive() {
		p.Feedback.Success(MsgPanelRefreshed)
	}
	return err
}

func (p *Panel) Summary() Summary {
	return Summary{
		Direcciones:   p.Direcciones.Store().Count(),
		Departamentos: p.Departamentos.Store().Count(),
		Cuadrillas:    p.Cuadrillas.Store().Count(),
		Territoriales: p.Territoriales.Store().Count(),
	}
}

func (p *Panel) Bus() eventbus.EventBus { return p.bus }

func (p *Panel) Scope() *Scope { return p.scope }

// Close cancels every in-flight request; responses arriving afterwards are dropped.
func (p *Panel) Close() {
	p.scope.Close()
}
