package api

import (
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/orgadmin/modules/orgs/domain"
	"github.com/iota-uz/orgadmin/pkg/configuration"
)

// Gateway groups the four collections exposed under /api/orgs.
type Gateway struct {
	Direcciones   *Resource[domain.Direccion]
	Departamentos *Resource[domain.Departamento]
	Cuadrillas    *Resource[domain.Cuadrilla]
	Territoriales *Resource[domain.Territorial]
}

func NewGateway(client *Client) *Gateway {
	return &Gateway{
		Direcciones:   NewResource[domain.Direccion](client, "direcciones"),
		Departamentos: NewResource[domain.Departamento](client, "departamentos"),
		Cuadrillas:    NewResource[domain.Cuadrilla](client, "cuadrillas"),
		Territoriales: NewResource[domain.Territorial](client, "territoriales"),
	}
}

func NewGatewayFromConfig(conf *configuration.Configuration, log *logrus.Logger) (*Gateway, error) {
	client, err := NewClient(conf.API, conf.RateLimit, log)
	if err != nil {
		return nil, err
	}
	return NewGateway(client), nil
}
