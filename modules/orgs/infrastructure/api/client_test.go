package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/orgadmin/modules/orgs/domain"
	"github.com/iota-uz/orgadmin/modules/orgs/infrastructure/api/apitest"
	"github.com/iota-uz/orgadmin/pkg/configuration"
	"github.com/iota-uz/orgadmin/pkg/httpapi"
	"github.com/iota-uz/orgadmin/pkg/logging"
)

func newTestGateway(t *testing.T, srv *apitest.Server, mutate ...func(*configuration.APIOptions, *configuration.RateLimitOptions)) *Gateway {
	t.Helper()
	opts := configuration.APIOptions{
		BaseURL:       srv.BaseURL(),
		Timeout:       5 * time.Second,
		MaxRetries:    2,
		MaxBackoff:    time.Millisecond,
		RequestHeader: "X-Request-ID",
	}
	rl := configuration.RateLimitOptions{}
	for _, fn := range mutate {
		fn(&opts, &rl)
	}
	client, err := NewClient(opts, rl, logging.Discard())
	require.NoError(t, err)
	return NewGateway(client)
}

func seedDirecciones(srv *apitest.Server, n int) {
	for i := 1; i <= n; i++ {
		srv.SeedDireccion(domain.Direccion{Nombre: fmt.Sprintf("Dirección %02d", i), Estado: i%2 == 1})
	}
}

func TestNewClient_RejectsInvalidBaseURL(t *testing.T) {
	_, err := NewClient(configuration.APIOptions{BaseURL: "localhost"}, configuration.RateLimitOptions{}, nil)
	require.Error(t, err)
}

func TestResource_List_Envelope(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()
	seedDirecciones(srv, 23)
	gw := newTestGateway(t, srv)

	page, err := gw.Direcciones.List(context.Background(), domain.DireccionFilter{Q: " ", Estado: ""}, 1, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 10)
	require.Equal(t, 23, page.Count)

	reqs := srv.RequestsTo(http.MethodGet, "/direcciones/")
	require.Len(t, reqs, 1)
	require.Equal(t, map[string]string{"page": "1"}, reqs[0].Query)

	page, err = gw.Direcciones.List(context.Background(), domain.DireccionFilter{}, 3, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	require.Equal(t, 23, page.Count)
}

func TestResource_List_FiltersAndPageSize(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()
	seedDirecciones(srv, 5)
	gw := newTestGateway(t, srv)

	page, err := gw.Direcciones.List(context.Background(), domain.DireccionFilter{Estado: "activa"}, 1, 100)
	require.NoError(t, err)
	require.Equal(t, 3, page.Count)
	for _, d := range page.Items {
		require.True(t, d.Estado)
	}

	reqs := srv.RequestsTo(http.MethodGet, "/direcciones/")
	require.Equal(t, map[string]string{"estado": "activa", "page": "1", "page_size": "100"}, reqs[0].Query)
}

func TestResource_List_PlainArray(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()
	srv.PlainArrays = true
	srv.SeedTerritorial(domain.Territorial{Nombre: "Norte"})
	srv.SeedTerritorial(domain.Territorial{Nombre: "Sur"})
	gw := newTestGateway(t, srv)

	page, err := gw.Territoriales.List(context.Background(), domain.TerritorialFilter{}, 1, 0)
	require.NoError(t, err)
	require.Equal(t, 2, page.Count)
	require.Equal(t, "Norte", page.Items[0].Nombre)
}

func TestDecodePage(t *testing.T) {
	cases := []struct {
		name  string
		raw   string
		count int
		items int
	}{
		{name: "array", raw: `[{"direccion_id":1},{"direccion_id":2}]`, count: 2, items: 2},
		{name: "envelope", raw: `{"count":40,"next":null,"previous":null,"results":[{"direccion_id":1}]}`, count: 40, items: 1},
		{name: "missing count", raw: `{"results":[{"direccion_id":1},{"direccion_id":2}]}`, count: 2, items: 2},
		{name: "null count", raw: `{"count":null,"results":[{"direccion_id":1}]}`, count: 1, items: 1},
		{name: "non numeric count", raw: `{"count":"many","results":[]}`, count: 0, items: 0},
		{name: "empty", raw: ``, count: 0, items: 0},
		{name: "null", raw: `null`, count: 0, items: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			page, err := decodePage[domain.Direccion](json.RawMessage(tc.raw))
			require.NoError(t, err)
			require.Equal(t, tc.count, page.Count)
			require.Len(t, page.Items, tc.items)
			require.NotNil(t, page.Items)
		})
	}

	_, err := decodePage[domain.Direccion](json.RawMessage(`{"results": 3}`))
	require.Error(t, err)
}

func TestResource_Create_ReturnsEntityAndSendsHeaders(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()
	srv.Token = "Bearer s3cret"
	gw := newTestGateway(t, srv, func(o *configuration.APIOptions, _ *configuration.RateLimitOptions) {
		o.Token = "s3cret"
	})

	d, err := gw.Direcciones.Create(context.Background(), domain.DireccionPayload{Nombre: "Obras", Estado: true})
	require.NoError(t, err)
	require.NotZero(t, d.ID)
	require.Equal(t, "Obras", d.Nombre)

	reqs := srv.RequestsTo(http.MethodPost, "/direcciones/")
	require.Len(t, reqs, 1)
	require.Equal(t, map[string]any{"nombre": "Obras", "estado": true}, reqs[0].Body)
	require.Equal(t, "application/json", reqs[0].Header.Get("Content-Type"))
	_, err = uuid.Parse(reqs[0].Header.Get("X-Request-ID"))
	require.NoError(t, err)
}

func TestResource_Create_ValidationPayload(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()
	gw := newTestGateway(t, srv)

	_, err := gw.Departamentos.Create(context.Background(), domain.DepartamentoPayload{Nombre: "Parques", Direccion: 99})
	require.Error(t, err)
	require.Equal(t, http.StatusBadRequest, httpapi.StatusOf(err))
	payload, ok := httpapi.PayloadOf(err)
	require.True(t, ok)
	require.Contains(t, payload, "direccion")
	require.Len(t, srv.RequestsTo(http.MethodPost, "/departamentos/"), 1, "mutations are never retried")
}

func TestResource_ToggleUpdateDelete(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()
	gw := newTestGateway(t, srv)
	ctx := context.Background()

	dir := srv.SeedDireccion(domain.Direccion{Nombre: "Obras", Estado: true})
	toggled, err := gw.Direcciones.ToggleEstado(ctx, dir.ID)
	require.NoError(t, err)
	require.False(t, toggled.Estado)
	reqs := srv.RequestsTo(http.MethodPost, fmt.Sprintf("/direcciones/%d/toggle-estado/", dir.ID))
	require.Len(t, reqs, 1)
	require.Equal(t, map[string]any{}, reqs[0].Body)

	ter := srv.SeedTerritorial(domain.Territorial{Nombre: "Centro"})
	profile := 4
	updated, err := gw.Territoriales.Update(ctx, ter.ID, domain.TerritorialPayload{Nombre: "Centro Histórico", Profile: &profile})
	require.NoError(t, err)
	require.Equal(t, "Centro Histórico", updated.Nombre)
	require.Equal(t, &profile, updated.Profile)

	require.NoError(t, gw.Territoriales.Delete(ctx, ter.ID))
	require.Len(t, srv.RequestsTo(http.MethodDelete, fmt.Sprintf("/territoriales/%d/", ter.ID)), 1)
}

func TestResource_Delete_Protected(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()
	gw := newTestGateway(t, srv)

	dir := srv.SeedDireccion(domain.Direccion{Nombre: "Obras", Estado: true})
	srv.SeedDepartamento(domain.Departamento{Nombre: "Vialidad", Estado: true, Direccion: dir.ID})

	err := gw.Direcciones.Delete(context.Background(), dir.ID)
	require.Error(t, err)
	payload, ok := httpapi.PayloadOf(err)
	require.True(t, ok)
	require.Equal(t, map[string]any{"detail": apitest.ProtectedDireccion}, payload)
}

func TestClient_RetriesIdempotentReads(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()
	seedDirecciones(srv, 2)
	gw := newTestGateway(t, srv)

	srv.FailNext(http.MethodGet, "/direcciones/", http.StatusServiceUnavailable, "upstream down")
	page, err := gw.Direcciones.List(context.Background(), domain.DireccionFilter{}, 1, 0)
	require.NoError(t, err)
	require.Equal(t, 2, page.Count)
	require.Len(t, srv.RequestsTo(http.MethodGet, "/direcciones/"), 2)

	srv.ResetRequests()
	for i := 0; i < 3; i++ {
		srv.FailNext(http.MethodGet, "/direcciones/", http.StatusBadGateway, "bad gateway")
	}
	_, err = gw.Direcciones.List(context.Background(), domain.DireccionFilter{}, 1, 0)
	require.Error(t, err)
	require.Equal(t, http.StatusBadGateway, httpapi.StatusOf(err))
	payload, _ := httpapi.PayloadOf(err)
	require.Equal(t, "bad gateway", payload)
	require.Len(t, srv.RequestsTo(http.MethodGet, "/direcciones/"), 3)
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()
	gw := newTestGateway(t, srv)

	srv.FailNext(http.MethodGet, "/cuadrillas/", http.StatusBadRequest, map[string]any{"detail": "Filtro inválido."})
	_, err := gw.Cuadrillas.List(context.Background(), domain.CuadrillaFilter{}, 1, 0)
	require.Error(t, err)
	require.Len(t, srv.RequestsTo(http.MethodGet, "/cuadrillas/"), 1)
}

func TestClient_CanceledContext(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()
	gw := newTestGateway(t, srv)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := gw.Direcciones.List(ctx, domain.DireccionFilter{}, 1, 0)
	require.ErrorIs(t, err, context.Canceled)
	_, hasPayload := httpapi.PayloadOf(err)
	require.False(t, hasPayload)
}

func TestClient_RateLimited(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()
	seedDirecciones(srv, 1)
	gw := newTestGateway(t, srv, func(_ *configuration.APIOptions, rl *configuration.RateLimitOptions) {
		rl.Enabled = true
		rl.RPS = 1000
	})

	for i := 0; i < 5; i++ {
		_, err := gw.Direcciones.List(context.Background(), domain.DireccionFilter{}, 1, 0)
		require.NoError(t, err)
	}
	require.Len(t, srv.RequestsTo(http.MethodGet, "/direcciones/"), 5)
}

func TestClient_RecordsMetrics(t *testing.T) {
	srv := apitest.NewServer()
	defer srv.Close()
	gw := newTestGateway(t, srv)

	srv.FailNext(http.MethodPost, "/territoriales/", http.StatusBadRequest, map[string]any{"detail": "no"})
	_, err := gw.Territoriales.Create(context.Background(), domain.TerritorialPayload{Nombre: "X"})
	require.Error(t, err)

	mfs, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	found := false
	for _, mf := range mfs {
		if mf.GetName() != "orgs_client_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := labelsToMap(m)
			if labels["endpoint"] == "territoriales.create" && labels["result"] == "4xx" {
				require.GreaterOrEqual(t, m.GetCounter().GetValue(), float64(1))
				found = true
			}
		}
	}
	require.True(t, found, "expected orgs_client_requests_total for territoriales.create")
}

func TestBackoff(t *testing.T) {
	require.Zero(t, backoff(0, time.Minute))
	require.Equal(t, time.Second, backoff(1, time.Minute))
	require.Equal(t, 4*time.Second, backoff(3, time.Minute))
	require.Equal(t, 5*time.Second, backoff(10, 5*time.Second))
	require.Zero(t, jitter(nil, time.Second))
}

func TestResultLabel(t *testing.T) {
	require.Equal(t, "error", resultLabel(0))
	require.Equal(t, "2xx", resultLabel(204))
	require.Equal(t, "4xx", resultLabel(404))
	require.Equal(t, "5xx", resultLabel(503))
}

func labelsToMap(m *dto.Metric) map[string]string {
	out := map[string]string{}
	for _, lp := range m.GetLabel() {
		out[lp.GetName()] = lp.GetValue()
	}
	return out
}
