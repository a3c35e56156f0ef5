package domain

import (
	"net/url"
	"strconv"
	"strings"
)

// Territorial sits outside the Direccion/Departamento/Cuadrilla chain and may
// reference a person profile.
type Territorial struct {
	ID             int             `json:"territorial_id"`
	Nombre         string          `json:"nombre"`
	Profile        *int            `json:"profile"`
	ProfileDetalle *ProfileSummary `json:"profile_detalle"`
}

func (t Territorial) EntityID() int       { return t.ID }
func (t Territorial) DisplayName() string { return t.Nombre }

type TerritorialFilter struct {
	Q string
}

func (f TerritorialFilter) Values() url.Values {
	v := url.Values{}
	setIfPresent(v, "q", f.Q)
	return v
}

// TerritorialForm keeps Profile as typed text; it is parsed on submit.
type TerritorialForm struct {
	Nombre  string `json:"nombre" validate:"required"`
	Profile string `json:"profile"`
}

// FormFromTerritorial patches the form with an existing record for editing.
func FormFromTerritorial(t Territorial) TerritorialForm {
	f := TerritorialForm{Nombre: t.Nombre}
	if t.Profile != nil {
		f.Profile = strconv.Itoa(*t.Profile)
	}
	return f
}

type TerritorialPayload struct {
	Nombre  string `json:"nombre"`
	Profile *int   `json:"profile"`
}

func (f TerritorialForm) Payload() (any, error) {
	f.Nombre = strings.TrimSpace(f.Nombre)
	if err := validateStruct(f, map[string]string{"nombre": MsgNombreRequired}); err != nil {
		return nil, err
	}
	profile, err := ParseProfileID(f.Profile)
	if err != nil {
		return nil, err
	}
	return TerritorialPayload{Nombre: f.Nombre, Profile: profile}, nil
}
