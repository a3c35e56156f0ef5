// Package apitest provides an in-memory orgs API for tests.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/mux"

	"github.com/iota-uz/orgadmin/modules/orgs/domain"
	"github.com/iota-uz/orgadmin/pkg/httpapi"
)

const defaultPageSize = 10

// Request is one call observed by the server.
type Request struct {
	Method string
	Path   string
	Query  map[string]string
	Body   map[string]any
	Header http.Header
}

type failure struct {
	method string
	prefix string
	status int
	body   any
}

// Server mimics the orgs REST API: paginated envelopes, estado filters, toggle
// actions and protected deletes.
type Server struct {
	*httptest.Server

	// PlainArrays makes list endpoints answer with bare JSON arrays.
	PlainArrays bool
	// Token, when set, is required verbatim in the Authorization header.
	Token string
	// Count, when positive, replaces the count of every list envelope. Pages
	// past the stored rows come back empty.
	Count int

	mu            sync.Mutex
	nextID        int
	direcciones   map[int]*domain.Direccion
	departamentos map[int]*domain.Departamento
	cuadrillas    map[int]*domain.Cuadrilla
	territoriales map[int]*domain.Territorial
	requests      []Request
	failures      []failure
}

func NewServer() *Server {
	s := &Server{
		direcciones:   map[int]*domain.Direccion{},
		departamentos: map[int]*domain.Departamento{},
		cuadrillas:    map[int]*domain.Cuadrilla{},
		territoriales: map[int]*domain.Territorial{},
	}
	s.Server = httptest.NewServer(s.router())
	return s
}

// BaseURL is the value to use for ORGS_API_URL.
func (s *Server) BaseURL() string {
	return s.URL + "/api/orgs"
}

func (s *Server) router() http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix("/api/orgs").Subrouter()
	api.Use(s.record)

	api.HandleFunc("/direcciones/", s.listDirecciones).Methods(http.MethodGet)
	api.HandleFunc("/direcciones/", s.createDireccion).Methods(http.MethodPost)
	api.HandleFunc("/direcciones/{id:[0-9]+}/toggle-estado/", s.toggleDireccion).Methods(http.MethodPost)
	api.HandleFunc("/direcciones/{id:[0-9]+}/", s.deleteDireccion).Methods(http.MethodDelete)

	api.HandleFunc("/departamentos/", s.listDepartamentos).Methods(http.MethodGet)
	api.HandleFunc("/departamentos/", s.createDepartamento).Methods(http.MethodPost)
	api.HandleFunc("/departamentos/{id:[0-9]+}/toggle-estado/", s.toggleDepartamento).Methods(http.MethodPost)
	api.HandleFunc("/departamentos/{id:[0-9]+}/", s.deleteDepartamento).Methods(http.MethodDelete)

	api.HandleFunc("/cuadrillas/", s.listCuadrillas).Methods(http.MethodGet)
	api.HandleFunc("/cuadrillas/", s.createCuadrilla).Methods(http.MethodPost)
	api.HandleFunc("/cuadrillas/{id:[0-9]+}/toggle-estado/", s.toggleCuadrilla).Methods(http.MethodPost)
	api.HandleFunc("/cuadrillas/{id:[0-9]+}/", s.deleteCuadrilla).Methods(http.MethodDelete)

	api.HandleFunc("/territoriales/", s.listTerritoriales).Methods(http.MethodGet)
	api.HandleFunc("/territoriales/", s.createTerritorial).Methods(http.MethodPost)
	api.HandleFunc("/territoriales/{id:[0-9]+}/", s.updateTerritorial).Methods(http.MethodPatch)
	api.HandleFunc("/territoriales/{id:[0-9]+}/", s.deleteTerritorial).Methods(http.MethodDelete)
	return r
}

// FailNext makes the next request whose method matches and whose path (relative
// to /api/orgs) starts with prefix answer with status and body.
func (s *Server) FailNext(method, prefix string, status int, body any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, failure{method: method, prefix: prefix, status: status, body: body})
}

// Requests returns a copy of every request seen so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// RequestsTo filters Requests by method and path relative to /api/orgs.
func (s *Server) RequestsTo(method, path string) []Request {
	var out []Request
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func (s *Server) ResetRequests() {
	s.mu.Lock()
	s.requests = nil
	s.mu.Unlock()
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/api/orgs")
		req := Request{Method: r.Method, Path: path, Query: map[string]string{}, Header: r.Header.Clone()}
		for k := range r.URL.Query() {
			req.Query[k] = r.URL.Query().Get(k)
		}
		if r.Body != nil && r.ContentLength != 0 {
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				_ = httpapi.WriteDetail(w, http.StatusBadRequest, "JSON inválido.")
				return
			}
			req.Body = body
		}

		s.mu.Lock()
		s.requests = append(s.requests, req)
		var injected *failure
		for i, f := range s.failures {
			if f.method == r.Method && strings.HasPrefix(path, f.prefix) {
				injected = &f
				s.failures = append(s.failures[:i:i], s.failures[i+1:]...)
				break
			}
		}
		s.mu.Unlock()

		if s.Token != "" && r.Header.Get("Authorization") != s.Token {
			_ = httpapi.WriteDetail(w, http.StatusUnauthorized, "Las credenciales de autenticación no se proveyeron.")
			return
		}
		if injected != nil {
			writeRaw(w, injected.status, injected.body)
			return
		}
		if req.Body != nil {
			r = r.WithContext(withBody(r.Context(), req.Body))
		}
		next.ServeHTTP(w, r)
	})
}

func writeRaw(w http.ResponseWriter, status int, body any) {
	if text, ok := body.(string); ok {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(text))
		return
	}
	_ = httpapi.WriteJSON(w, status, body)
}

// paginate answers a list either as an envelope or as a bare array.
func paginate[T any](s *Server, w http.ResponseWriter, r *http.Request, items []T) {
	if s.PlainArrays {
		_ = httpapi.WriteJSON(w, http.StatusOK, items)
		return
	}
	page := atoiDefault(r.URL.Query().Get("page"), 1)
	size := atoiDefault(r.URL.Query().Get("page_size"), defaultPageSize)
	start := (page - 1) * size
	count := len(items)
	if s.Count > 0 {
		count = s.Count
		start = min(start, len(items))
	}
	if start > len(items) || page < 1 {
		_ = httpapi.WriteDetail(w, http.StatusNotFound, "Página inválida.")
		return
	}
	end := min(start+size, len(items))

	resp := map[string]any{
		"count":    count,
		"next":     nil,
		"previous": nil,
		"results":  items[start:end],
	}
	if end < len(items) {
		resp["next"] = fmt.Sprintf("%s?page=%d", r.URL.Path, page+1)
	}
	if page > 1 {
		resp["previous"] = fmt.Sprintf("%s?page=%d", r.URL.Path, page-1)
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, resp)
}

func atoiDefault(raw string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func pathID(r *http.Request) int {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	return id
}

// estadoFilter returns nil when the filter is absent or unknown.
func estadoFilter(raw string) *bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "activa", "activo", "true", "1":
		v := true
		return &v
	case "bloqueada", "bloqueado", "inactivo", "false", "0":
		v := false
		return &v
	default:
		return nil
	}
}

func matchesQ(nombre, q string) bool {
	q = strings.TrimSpace(q)
	return q == "" || strings.Contains(strings.ToLower(nombre), strings.ToLower(q))
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func requiredNombre(w http.ResponseWriter, body map[string]any) (string, bool) {
	nombre, _ := body["nombre"].(string)
	nombre = strings.TrimSpace(nombre)
	if nombre == "" {
		_ = httpapi.WriteJSON(w, http.StatusBadRequest, map[string][]string{"nombre": {"Este campo no puede estar en blanco."}})
		return "", false
	}
	return nombre, true
}

func boolField(body map[string]any, key string, def bool) bool {
	if v, ok := body[key].(bool); ok {
		return v
	}
	return def
}

func intField(body map[string]any, key string) (int, bool) {
	v, ok := body[key].(float64)
	if !ok {
		return 0, false
	}
	return int(v), true
}
