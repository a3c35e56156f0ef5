package orgs

import (
	"context"

	"github.com/iota-uz/orgadmin/modules/orgs/infrastructure/api"
	"github.com/iota-uz/orgadmin/modules/orgs/services"
	"github.com/iota-uz/orgadmin/pkg/configuration"
	"github.com/iota-uz/orgadmin/pkg/eventbus"
)

func NewModule(conf *configuration.Configuration) *Module {
	return &Module{conf: conf}
}

type Module struct {
	conf *configuration.Configuration
}

// Gateways adapts the HTTP resources to the panel ports.
func Gateways(gw *api.Gateway) services.Gateways {
	return services.Gateways{
		Direcciones:   gw.Direcciones,
		Departamentos: gw.Departamentos,
		Cuadrillas:    gw.Cuadrillas,
		Territoriales: gw.Territoriales,
	}
}

// NewPanel builds an admin panel against the configured API. The panel lives
// until ctx is canceled or Close is called.
func (m *Module) NewPanel(ctx context.Context, confirm services.Confirmer) (*services.Panel, error) {
	log := m.conf.Logger()
	gw, err := api.NewGatewayFromConfig(m.conf, log)
	if err != nil {
		return nil, err
	}
	return services.NewPanel(ctx, Gateways(gw), services.PanelOptions{
		PageSize:        m.conf.PageSize,
		OptionsPageSize: m.conf.OptionsPageSize,
		DiscardStale:    m.conf.DiscardStaleResponses,
		Confirmer:       confirm,
		Bus:             eventbus.NewEventPublisher(log),
		Log:             log,
	}), nil
}

func (m *Module) Name() string {
	return "orgs"
}
