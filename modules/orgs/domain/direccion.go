package domain

import (
	"net/url"
	"strings"
)

// Direccion is the top level of the hierarchy.
type Direccion struct {
	ID          int                   `json:"direccion_id"`
	Nombre      string                `json:"nombre"`
	Estado      bool                  `json:"estado"`
	Memberships []DireccionMembership `json:"memberships"`
}

func (d Direccion) EntityID() int       { return d.ID }
func (d Direccion) DisplayName() string { return d.Nombre }
func (d Direccion) IsActive() bool      { return d.Estado }

type DireccionSummary struct {
	ID     int    `json:"direccion_id"`
	Nombre string `json:"nombre"`
	Estado bool   `json:"estado"`
}

type DireccionMembership struct {
	ID          int             `json:"direccion_membership_id"`
	Usuario     *ProfileSummary `json:"usuario"`
	EsEncargado bool            `json:"es_encargado"`
	Desde       string          `json:"desde"`
}

type DireccionFilter struct {
	Q           string
	Estado      string
	Responsable string
}

func (f DireccionFilter) Values() url.Values {
	v := url.Values{}
	setIfPresent(v, "q", f.Q)
	setIfPresent(v, "estado", f.Estado)
	setIfPresent(v, "responsable", f.Responsable)
	return v
}

type DireccionForm struct {
	Nombre string `json:"nombre" validate:"required"`
	Estado bool   `json:"estado"`
}

func DefaultDireccionForm() DireccionForm {
	return DireccionForm{Estado: true}
}

type DireccionPayload struct {
	Nombre string `json:"nombre"`
	Estado bool   `json:"estado"`
}

func (f DireccionForm) Payload() (any, error) {
	f.Nombre = strings.TrimSpace(f.Nombre)
	if err := validateStruct(f, map[string]string{"nombre": MsgNombreRequired}); err != nil {
		return nil, err
	}
	return DireccionPayload{Nombre: f.Nombre, Estado: f.Estado}, nil
}
