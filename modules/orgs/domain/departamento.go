package domain

import (
	"net/url"
	"strings"
)

type Departamento struct {
	ID               int                      `json:"departamento_id"`
	Nombre           string                   `json:"nombre"`
	Estado           bool                     `json:"estado"`
	Direccion        int                      `json:"direccion"`
	DireccionDetalle *DireccionSummary        `json:"direccion_detalle,omitempty"`
	Memberships      []DepartamentoMembership `json:"memberships"`
}

func (d Departamento) EntityID() int       { return d.ID }
func (d Departamento) DisplayName() string { return d.Nombre }
func (d Departamento) IsActive() bool      { return d.Estado }

type DepartamentoSummary struct {
	ID        int               `json:"departamento_id"`
	Nombre    string            `json:"nombre"`
	Estado    bool              `json:"estado"`
	Direccion *DireccionSummary `json:"direccion,omitempty"`
}

type DepartamentoMembership struct {
	ID          int             `json:"departamento_membership_id"`
	Usuario     *ProfileSummary `json:"usuario"`
	EsEncargado bool            `json:"es_encargado"`
	Desde       string          `json:"desde"`
}

type DepartamentoFilter struct {
	Q         string
	Estado    string
	Direccion string
}

func (f DepartamentoFilter) Values() url.Values {
	v := url.Values{}
	setIfPresent(v, "q", f.Q)
	setIfPresent(v, "estado", f.Estado)
	setIfPresent(v, "direccion", f.Direccion)
	return v
}

type DepartamentoForm struct {
	Nombre    string `json:"nombre" validate:"required"`
	Estado    bool   `json:"estado"`
	Direccion int    `json:"direccion" validate:"gt=0"`
}

func DefaultDepartamentoForm() DepartamentoForm {
	return DepartamentoForm{Estado: true}
}

type DepartamentoPayload struct {
	Nombre    string `json:"nombre"`
	Estado    bool   `json:"estado"`
	Direccion int    `json:"direccion"`
}

func (f DepartamentoForm) Payload() (any, error) {
	f.Nombre = strings.TrimSpace(f.Nombre)
	err := validateStruct(f, map[string]string{
		"nombre":    MsgNombreRequired,
		"direccion": MsgDireccionRequired,
	})
	if err != nil {
		return nil, err
	}
	return DepartamentoPayload{Nombre: f.Nombre, Estado: f.Estado, Direccion: f.Direccion}, nil
}
