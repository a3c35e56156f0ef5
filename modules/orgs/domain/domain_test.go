package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilters_DropBlankValues(t *testing.T) {
	require.Empty(t, DireccionFilter{Q: "  ", Estado: ""}.Values())
	require.Empty(t, TerritorialFilter{}.Values())

	v := DepartamentoFilter{Q: " norte ", Estado: "activo", Direccion: "4"}.Values()
	require.Equal(t, "norte", v.Get("q"))
	require.Equal(t, "activo", v.Get("estado"))
	require.Equal(t, "4", v.Get("direccion"))

	v = CuadrillaFilter{Departamento: "9"}.Values()
	require.Len(t, v, 1)
	require.Equal(t, "9", v.Get("departamento"))

	v = DireccionFilter{Responsable: "ana"}.Values()
	require.Equal(t, "responsable=ana", v.Encode())
}

func TestParseProfileID(t *testing.T) {
	id, err := ParseProfileID("")
	require.NoError(t, err)
	require.Nil(t, id)

	id, err = ParseProfileID("   ")
	require.NoError(t, err)
	require.Nil(t, id)

	id, err = ParseProfileID("7")
	require.NoError(t, err)
	require.NotNil(t, id)
	require.Equal(t, 7, *id)

	_, err = ParseProfileID("abc")
	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, MsgProfileNotNumeric, ve.Message)
	require.Empty(t, ve.Fields)
}

func TestDireccionForm_Payload(t *testing.T) {
	payload, err := DireccionForm{Nombre: "  Obras  ", Estado: true}.Payload()
	require.NoError(t, err)
	require.Equal(t, DireccionPayload{Nombre: "Obras", Estado: true}, payload)

	_, err = DireccionForm{Nombre: "   "}.Payload()
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, map[string]string{"nombre": MsgNombreRequired}, ve.Fields)
	require.Empty(t, ve.Message)
	require.Equal(t, "invalid form: nombre", ve.Error())
}

func TestDepartamentoForm_RequiresParent(t *testing.T) {
	_, err := DepartamentoForm{Nombre: "Parques"}.Payload()
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, MsgDireccionRequired, ve.Fields["direccion"])
	require.NotContains(t, ve.Fields, "nombre")

	payload, err := DepartamentoForm{Nombre: "Parques", Direccion: 3}.Payload()
	require.NoError(t, err)
	require.Equal(t, DepartamentoPayload{Nombre: "Parques", Direccion: 3}, payload)
}

func TestCuadrillaForm_RequiresParent(t *testing.T) {
	_, err := CuadrillaForm{}.Payload()
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, map[string]string{
		"nombre":       MsgNombreRequired,
		"departamento": MsgDepartamentoRequired,
	}, ve.Fields)
}

func TestTerritorialForm_Payload(t *testing.T) {
	payload, err := TerritorialForm{Nombre: " Zona Sur ", Profile: ""}.Payload()
	require.NoError(t, err)
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	require.JSONEq(t, `{"nombre":"Zona Sur","profile":null}`, string(body))

	payload, err = TerritorialForm{Nombre: "Zona Sur", Profile: "12"}.Payload()
	require.NoError(t, err)
	body, err = json.Marshal(payload)
	require.NoError(t, err)
	require.JSONEq(t, `{"nombre":"Zona Sur","profile":12}`, string(body))

	_, err = TerritorialForm{Nombre: "Zona Sur", Profile: "doce"}.Payload()
	require.True(t, IsValidationError(err))
	require.EqualError(t, err, MsgProfileNotNumeric)
}

func TestFormFromTerritorial(t *testing.T) {
	id := 5
	require.Equal(t, TerritorialForm{Nombre: "Centro", Profile: "5"}, FormFromTerritorial(Territorial{ID: 1, Nombre: "Centro", Profile: &id}))
	require.Equal(t, TerritorialForm{Nombre: "Centro"}, FormFromTerritorial(Territorial{ID: 1, Nombre: "Centro"}))
}

func TestEntities_DecodeNestedDetail(t *testing.T) {
	raw := `{
		"cuadrilla_id": 8,
		"nombre": "Bacheo",
		"estado": false,
		"departamento": 3,
		"departamento_detalle": {"departamento_id": 3, "nombre": "Vialidad", "estado": true,
			"direccion": {"direccion_id": 1, "nombre": "Obras", "estado": true}},
		"memberships": [{"cuadrilla_membership_id": 2, "usuario": null, "desde": "2024-01-01"}]
	}`
	var c Cuadrilla
	require.NoError(t, json.Unmarshal([]byte(raw), &c))
	require.Equal(t, 8, c.EntityID())
	require.Equal(t, "Bacheo", c.DisplayName())
	require.False(t, c.IsActive())
	require.Equal(t, "Obras", c.DepartamentoDetalle.Direccion.Nombre)
	require.Nil(t, c.Memberships[0].Usuario)
}
