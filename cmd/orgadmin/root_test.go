package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/orgadmin/modules/orgs/domain"
	"github.com/iota-uz/orgadmin/modules/orgs/infrastructure/api/apitest"
	"github.com/iota-uz/orgadmin/modules/orgs/presentation/viewmodels"
	"github.com/iota-uz/orgadmin/modules/orgs/services"
)

type result struct {
	stdout string
	stderr string
	err    error
}

func (r result) decode(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(r.stdout), v), r.stdout)
}

func newServer(t *testing.T) *apitest.Server {
	t.Helper()
	srv := apitest.NewServer()
	t.Cleanup(srv.Close)
	t.Setenv("ORGS_API_URL", srv.BaseURL())
	t.Setenv("API_RETRY_MAX_BACKOFF", "1ms")
	return srv
}

func execute(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	err := run(context.Background(), args, strings.NewReader(stdin), &out, &errOut)
	return result{stdout: out.String(), stderr: errOut.String(), err: err}
}

func TestList_SecondPage(t *testing.T) {
	srv := newServer(t)
	for i := 0; i < 12; i++ {
		srv.SeedDireccion(domain.Direccion{Nombre: "Dirección", Estado: i%2 == 0})
	}

	res := execute(t, "", "direcciones", "list", "--page", "2")
	require.NoError(t, res.err)

	var page viewmodels.Page[viewmodels.Direccion]
	res.decode(t, &page)
	require.Equal(t, services.CollectionDirecciones, page.Collection)
	require.Equal(t, 12, page.Count)
	require.Equal(t, 2, page.Page)
	require.Equal(t, 2, page.TotalPages)
	require.Equal(t, []int{1, 2}, page.Pages)
	require.Len(t, page.Items, 2)
}

func TestList_FiltersReachTheServer(t *testing.T) {
	srv := newServer(t)
	srv.SeedDireccion(domain.Direccion{Nombre: "Obras", Estado: true})
	srv.SeedDireccion(domain.Direccion{Nombre: "Archivo", Estado: false})

	res := execute(t, "", "direcciones", "list", "--estado", "bloqueada")
	require.NoError(t, res.err)
	var page viewmodels.Page[viewmodels.Direccion]
	res.decode(t, &page)
	require.Len(t, page.Items, 1)
	require.Equal(t, "Bloqueada", page.Items[0].Estado)

	reqs := srv.RequestsTo(http.MethodGet, "/direcciones/")
	require.Equal(t, "bloqueada", reqs[len(reqs)-1].Query["estado"])
}

func TestList_InvalidPage(t *testing.T) {
	newServer(t)
	res := execute(t, "", "direcciones", "list", "--page", "0")
	require.Equal(t, exitUsage, exitCode(res.err))
}

func TestCreate_ValidationFailureSendsNothing(t *testing.T) {
	srv := newServer(t)
	res := execute(t, "", "direcciones", "create", "--nombre", "   ")
	require.Equal(t, exitValidation, exitCode(res.err))
	require.Equal(t, "nombre: "+domain.MsgNombreRequired, res.err.Error())
	require.Empty(t, srv.RequestsTo(http.MethodPost, "/direcciones/"))
}

func TestCreate_DepartamentoResolvesParentByName(t *testing.T) {
	srv := newServer(t)
	obras := srv.SeedDireccion(domain.Direccion{Nombre: "Obras Públicas", Estado: true})
	srv.SeedDireccion(domain.Direccion{Nombre: "Servicios", Estado: true})

	res := execute(t, "", "departamentos", "create", "--nombre", "Alumbrado", "--direccion", "obras")
	require.NoError(t, res.err)
	require.Contains(t, res.stderr, `Departamento "Alumbrado" creado.`)

	var vm viewmodels.Departamento
	res.decode(t, &vm)
	require.Equal(t, "Alumbrado", vm.Nombre)
	require.Equal(t, "Activo", vm.Estado)

	posts := srv.RequestsTo(http.MethodPost, "/departamentos/")
	require.Len(t, posts, 1)
	require.InDelta(t, obras.ID, posts[0].Body["direccion"], 0)
}

func TestCreate_AmbiguousParent(t *testing.T) {
	srv := newServer(t)
	srv.SeedDireccion(domain.Direccion{Nombre: "Obras Públicas", Estado: true})
	srv.SeedDireccion(domain.Direccion{Nombre: "Obras Hidráulicas", Estado: true})

	res := execute(t, "", "departamentos", "create", "--nombre", "Alumbrado", "--direccion", "obras")
	require.Equal(t, exitValidation, exitCode(res.err))
	require.Contains(t, res.err.Error(), "ambiguous")
	require.Empty(t, srv.RequestsTo(http.MethodPost, "/departamentos/"))
}

func TestCreate_ServerRejection(t *testing.T) {
	srv := newServer(t)
	srv.FailNext(http.MethodPost, "/cuadrillas/", http.StatusBadRequest, map[string]string{"detail": "Cuadrilla duplicada."})

	res := execute(t, "", "cuadrillas", "create", "--nombre", "Bacheo", "--departamento", "3")
	require.Equal(t, exitAPI, exitCode(res.err))
	require.Equal(t, "Cuadrilla duplicada.", res.err.Error())
}

func TestToggle(t *testing.T) {
	srv := newServer(t)
	d := srv.SeedDireccion(domain.Direccion{Nombre: "Obras", Estado: true})

	res := execute(t, "", "direcciones", "toggle", strconv.Itoa(d.ID))
	require.NoError(t, res.err)
	require.Contains(t, res.stderr, `Dirección "Obras" actualizada.`)

	stored, _ := srv.Direccion(d.ID)
	require.False(t, stored.Estado)
}

func TestToggle_UnknownID(t *testing.T) {
	newServer(t)
	res := execute(t, "", "direcciones", "toggle", "99")
	require.Equal(t, exitValidation, exitCode(res.err))
}

func TestToggle_InflatedCountStopsAtEmptyPage(t *testing.T) {
	srv := newServer(t)
	srv.SeedDireccion(domain.Direccion{Nombre: "Obras", Estado: true})
	srv.Count = 1 << 30

	res := execute(t, "", "direcciones", "toggle", "99")
	require.Equal(t, exitValidation, exitCode(res.err))
	require.Len(t, srv.RequestsTo(http.MethodGet, "/direcciones/"), 2)
}

func TestDelete_Confirmation(t *testing.T) {
	srv := newServer(t)
	d := srv.SeedDireccion(domain.Direccion{Nombre: "Obras", Estado: true})

	res := execute(t, "n\n", "direcciones", "delete", strconv.Itoa(d.ID))
	require.Equal(t, exitAborted, exitCode(res.err))
	require.Contains(t, res.stderr, `¿Eliminar la dirección "Obras"?`)
	require.Empty(t, srv.RequestsTo(http.MethodDelete, "/direcciones/"+strconv.Itoa(d.ID)+"/"))

	res = execute(t, "s\n", "direcciones", "delete", strconv.Itoa(d.ID))
	require.NoError(t, res.err)
	require.Contains(t, res.stderr, `Dirección "Obras" eliminada.`)
	_, exists := srv.Direccion(d.ID)
	require.False(t, exists)
}

func TestDelete_Protected(t *testing.T) {
	srv := newServer(t)
	d := srv.SeedDireccion(domain.Direccion{Nombre: "Obras", Estado: true})
	srv.SeedDepartamento(domain.Departamento{Nombre: "Alumbrado", Estado: true, Direccion: d.ID})

	res := execute(t, "", "--yes", "direcciones", "delete", strconv.Itoa(d.ID))
	require.Equal(t, exitAPI, exitCode(res.err))
	require.Equal(t, apitest.ProtectedDireccion, res.err.Error())
}

func TestTerritorialUpdate(t *testing.T) {
	srv := newServer(t)
	tr := srv.SeedTerritorial(domain.Territorial{Nombre: "Zona Centro"})

	res := execute(t, "", "territoriales", "update", strconv.Itoa(tr.ID), "--profile", "abc")
	require.Equal(t, exitValidation, exitCode(res.err))
	require.Equal(t, domain.MsgProfileNotNumeric, res.err.Error())

	res = execute(t, "", "territoriales", "update", strconv.Itoa(tr.ID), "--profile", "7")
	require.NoError(t, res.err)
	var vm viewmodels.Territorial
	res.decode(t, &vm)
	require.Equal(t, "Zona Centro", vm.Nombre, "unset flags keep the current value")
	require.NotNil(t, vm.ProfileID)
	require.Equal(t, 7, *vm.ProfileID)
	require.Contains(t, res.stderr, `Territorial "Zona Centro" actualizado.`)
}

func TestOptions_Match(t *testing.T) {
	srv := newServer(t)
	srv.SeedDireccion(domain.Direccion{Nombre: "Obras Públicas", Estado: true})
	srv.SeedDireccion(domain.Direccion{Nombre: "Servicios", Estado: true})
	srv.SeedDireccion(domain.Direccion{Nombre: "Obras Viejas", Estado: false})

	res := execute(t, "", "options", "direcciones", "--match", "obras")
	require.NoError(t, res.err)
	var opts []viewmodels.Option
	res.decode(t, &opts)
	require.Len(t, opts, 1)
	require.Equal(t, "Obras Públicas", opts[0].Nombre)

	res = execute(t, "", "options", "territoriales")
	require.Equal(t, exitUsage, exitCode(res.err))
}

func TestSummary(t *testing.T) {
	srv := newServer(t)
	d := srv.SeedDireccion(domain.Direccion{Nombre: "Obras", Estado: true})
	srv.SeedDepartamento(domain.Departamento{Nombre: "Alumbrado", Estado: true, Direccion: d.ID})

	res := execute(t, "", "summary")
	require.NoError(t, res.err)
	var s services.Summary
	res.decode(t, &s)
	require.Equal(t, services.Summary{Direcciones: 1, Departamentos: 1}, s)
}

func TestRefresh_ReportsFailedCollections(t *testing.T) {
	srv := newServer(t)
	t.Setenv("API_MAX_RETRIES", "0")
	srv.FailNext(http.MethodGet, "/cuadrillas/", http.StatusForbidden, map[string]string{"detail": "Sin permiso."})

	res := execute(t, "", "refresh")
	require.Equal(t, exitAPI, exitCode(res.err))
	require.Equal(t, "load failed: cuadrillas: Sin permiso.", res.err.Error())
	require.Contains(t, res.stderr, services.MsgPanelRefreshed)
}

func TestUsageErrors(t *testing.T) {
	newServer(t)
	require.Equal(t, exitUsage, exitCode(execute(t, "", "direcciones", "delete", "abc").err))
	require.Equal(t, exitUsage, exitCode(execute(t, "", "direcciones", "list", "--bogus").err))
}

func TestBadConfiguration(t *testing.T) {
	t.Setenv("ORGS_API_URL", "nope")
	res := execute(t, "", "summary")
	require.Equal(t, exitUsage, exitCode(res.err))
}

func TestExitCodeClassification(t *testing.T) {
	require.Equal(t, exitOK, exitCode(nil))
	require.Equal(t, exitValidation, exitCode(&domain.ValidationError{Message: "x"}))
	require.Equal(t, exitAborted, exitCode(services.ErrScopeClosed))
	require.Equal(t, exitUsage, exitCode(withCode(exitUsage, context.Canceled)))
	require.Equal(t, 1, exitCode(context.DeadlineExceeded))
}

