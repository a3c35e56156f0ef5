package domain

import (
	"net/url"
	"strings"
)

// Cuadrilla is the leaf level of the hierarchy.
type Cuadrilla struct {
	ID                  int                   `json:"cuadrilla_id"`
	Nombre              string                `json:"nombre"`
	Estado              bool                  `json:"estado"`
	Departamento        int                   `json:"departamento"`
	DepartamentoDetalle *DepartamentoSummary  `json:"departamento_detalle,omitempty"`
	Memberships         []CuadrillaMembership `json:"memberships"`
}

func (c Cuadrilla) EntityID() int       { return c.ID }
func (c Cuadrilla) DisplayName() string { return c.Nombre }
func (c Cuadrilla) IsActive() bool      { return c.Estado }

type CuadrillaMembership struct {
	ID      int             `json:"cuadrilla_membership_id"`
	Usuario *ProfileSummary `json:"usuario"`
	Desde   string          `json:"desde"`
}

type CuadrillaFilter struct {
	Q            string
	Estado       string
	Departamento string
}

func (f CuadrillaFilter) Values() url.Values {
	v := url.Values{}
	setIfPresent(v, "q", f.Q)
	setIfPresent(v, "estado", f.Estado)
	setIfPresent(v, "departamento", f.Departamento)
	return v
}

type CuadrillaForm struct {
	Nombre       string `json:"nombre" validate:"required"`
	Estado       bool   `json:"estado"`
	Departamento int    `json:"departamento" validate:"gt=0"`
}

func DefaultCuadrillaForm() CuadrillaForm {
	return CuadrillaForm{Estado: true}
}

type CuadrillaPayload struct {
	Nombre       string `json:"nombre"`
	Estado       bool   `json:"estado"`
	Departamento int    `json:"departamento"`
}

func (f CuadrillaForm) Payload() (any, error) {
	f.Nombre = strings.TrimSpace(f.Nombre)
	err := validateStruct(f, map[string]string{
		"nombre":       MsgNombreRequired,
		"departamento": MsgDepartamentoRequired,
	})
	if err != nil {
		return nil, err
	}
	return CuadrillaPayload{Nombre: f.Nombre, Estado: f.Estado, Departamento: f.Departamento}, nil
}
