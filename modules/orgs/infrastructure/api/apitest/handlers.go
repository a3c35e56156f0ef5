package apitest

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/iota-uz/orgadmin/modules/orgs/domain"
	"github.com/iota-uz/orgadmin/pkg/httpapi"
)

const (
	ProtectedDireccion    = "No se puede eliminar la dirección porque tiene departamentos asociados."
	ProtectedDepartamento = "No se puede eliminar el departamento porque tiene cuadrillas asociadas."
	notFound              = "No encontrado."
)

type bodyKey struct{}

func withBody(ctx context.Context, body map[string]any) context.Context {
	return context.WithValue(ctx, bodyKey{}, body)
}

func bodyOf(r *http.Request) map[string]any {
	if body, ok := r.Context().Value(bodyKey{}).(map[string]any); ok {
		return body
	}
	return map[string]any{}
}

// SeedDireccion stores d, assigning an id when it has none.
func (s *Server) SeedDireccion(d domain.Direccion) domain.Direccion {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.ID == 0 {
		d.ID = s.allocID()
	}
	if d.Memberships == nil {
		d.Memberships = []domain.DireccionMembership{}
	}
	s.direcciones[d.ID] = &d
	return d
}

func (s *Server) SeedDepartamento(d domain.Departamento) domain.Departamento {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.ID == 0 {
		d.ID = s.allocID()
	}
	if d.Memberships == nil {
		d.Memberships = []domain.DepartamentoMembership{}
	}
	s.departamentos[d.ID] = &d
	return d
}

func (s *Server) SeedCuadrilla(c domain.Cuadrilla) domain.Cuadrilla {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		c.ID = s.allocID()
	}
	if c.Memberships == nil {
		c.Memberships = []domain.CuadrillaMembership{}
	}
	s.cuadrillas[c.ID] = &c
	return c
}

func (s *Server) SeedTerritorial(t domain.Territorial) domain.Territorial {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == 0 {
		t.ID = s.allocID()
	}
	s.territoriales[t.ID] = &t
	return t
}

// Direccion returns the stored record, if any.
func (s *Server) Direccion(id int) (domain.Direccion, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.direcciones[id]
	if !ok {
		return domain.Direccion{}, false
	}
	return *d, true
}

func (s *Server) allocID() int {
	s.nextID++
	return s.nextID
}

func (s *Server) listDirecciones(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	estado := estadoFilter(q.Get("estado"))
	responsable := strings.ToLower(strings.TrimSpace(q.Get("responsable")))

	s.mu.Lock()
	items := []domain.Direccion{}
	for _, id := range sortedKeys(s.direcciones) {
		d := s.direcciones[id]
		if !matchesQ(d.Nombre, q.Get("q")) || (estado != nil && d.Estado != *estado) {
			continue
		}
		if responsable != "" && !hasEncargado(d.Memberships, responsable) {
			continue
		}
		items = append(items, *d)
	}
	s.mu.Unlock()
	paginate(s, w, r, items)
}

func hasEncargado(memberships []domain.DireccionMembership, term string) bool {
	for _, m := range memberships {
		if !m.EsEncargado || m.Usuario == nil {
			continue
		}
		for _, v := range []string{m.Usuario.Username, m.Usuario.FirstName, m.Usuario.LastName} {
			if strings.Contains(strings.ToLower(v), term) {
				return true
			}
		}
	}
	return false
}

func (s *Server) createDireccion(w http.ResponseWriter, r *http.Request) {
	body := bodyOf(r)
	nombre, ok := requiredNombre(w, body)
	if !ok {
		return
	}
	d := s.SeedDireccion(domain.Direccion{Nombre: nombre, Estado: boolField(body, "estado", true)})
	_ = httpapi.WriteJSON(w, http.StatusCreated, d)
}

func (s *Server) toggleDireccion(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	d, ok := s.direcciones[pathID(r)]
	var out domain.Direccion
	if ok {
		d.Estado = !d.Estado
		out = *d
	}
	s.mu.Unlock()
	if !ok {
		_ = httpapi.WriteDetail(w, http.StatusNotFound, notFound)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) deleteDireccion(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.direcciones[id]; !ok {
		_ = httpapi.WriteDetail(w, http.StatusNotFound, notFound)
		return
	}
	for _, dep := range s.departamentos {
		if dep.Direccion == id {
			_ = httpapi.WriteDetail(w, http.StatusBadRequest, ProtectedDireccion)
			return
		}
	}
	delete(s.direcciones, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listDepartamentos(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	estado := estadoFilter(q.Get("estado"))
	direccion, _ := strconv.Atoi(q.Get("direccion"))

	s.mu.Lock()
	items := []domain.Departamento{}
	for _, id := range sortedKeys(s.departamentos) {
		d := s.departamentos[id]
		if !matchesQ(d.Nombre, q.Get("q")) || (estado != nil && d.Estado != *estado) {
			continue
		}
		if direccion != 0 && d.Direccion != direccion {
			continue
		}
		out := *d
		if parent, ok := s.direcciones[d.Direccion]; ok {
			out.DireccionDetalle = &domain.DireccionSummary{ID: parent.ID, Nombre: parent.Nombre, Estado: parent.Estado}
		}
		items = append(items, out)
	}
	s.mu.Unlock()
	paginate(s, w, r, items)
}

func (s *Server) createDepartamento(w http.ResponseWriter, r *http.Request) {
	body := bodyOf(r)
	nombre, ok := requiredNombre(w, body)
	if !ok {
		return
	}
	direccion, _ := intField(body, "direccion")
	s.mu.Lock()
	_, exists := s.direcciones[direccion]
	s.mu.Unlock()
	if !exists {
		_ = httpapi.WriteJSON(w, http.StatusBadRequest, map[string][]string{
			"direccion": {"Clave primaria \"" + strconv.Itoa(direccion) + "\" inválida - objeto no existe."},
		})
		return
	}
	d := s.SeedDepartamento(domain.Departamento{Nombre: nombre, Estado: boolField(body, "estado", true), Direccion: direccion})
	_ = httpapi.WriteJSON(w, http.StatusCreated, d)
}

func (s *Server) toggleDepartamento(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	d, ok := s.departamentos[pathID(r)]
	var out domain.Departamento
	if ok {
		d.Estado = !d.Estado
		out = *d
	}
	s.mu.Unlock()
	if !ok {
		_ = httpapi.WriteDetail(w, http.StatusNotFound, notFound)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) deleteDepartamento(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.departamentos[id]; !ok {
		_ = httpapi.WriteDetail(w, http.StatusNotFound, notFound)
		return
	}
	for _, c := range s.cuadrillas {
		if c.Departamento == id {
			_ = httpapi.WriteDetail(w, http.StatusBadRequest, ProtectedDepartamento)
			return
		}
	}
	delete(s.departamentos, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listCuadrillas(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	estado := estadoFilter(q.Get("estado"))
	departamento, _ := strconv.Atoi(q.Get("departamento"))

	s.mu.Lock()
	items := []domain.Cuadrilla{}
	for _, id := range sortedKeys(s.cuadrillas) {
		c := s.cuadrillas[id]
		if !matchesQ(c.Nombre, q.Get("q")) || (estado != nil && c.Estado != *estado) {
			continue
		}
		if departamento != 0 && c.Departamento != departamento {
			continue
		}
		items = append(items, *c)
	}
	s.mu.Unlock()
	paginate(s, w, r, items)
}

func (s *Server) createCuadrilla(w http.ResponseWriter, r *http.Request) {
	body := bodyOf(r)
	nombre, ok := requiredNombre(w, body)
	if !ok {
		return
	}
	departamento, _ := intField(body, "departamento")
	s.mu.Lock()
	_, exists := s.departamentos[departamento]
	s.mu.Unlock()
	if !exists {
		_ = httpapi.WriteJSON(w, http.StatusBadRequest, map[string][]string{
			"departamento": {"Clave primaria \"" + strconv.Itoa(departamento) + "\" inválida - objeto no existe."},
		})
		return
	}
	c := s.SeedCuadrilla(domain.Cuadrilla{Nombre: nombre, Estado: boolField(body, "estado", true), Departamento: departamento})
	_ = httpapi.WriteJSON(w, http.StatusCreated, c)
}

func (s *Server) toggleCuadrilla(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	c, ok := s.cuadrillas[pathID(r)]
	var out domain.Cuadrilla
	if ok {
		c.Estado = !c.Estado
		out = *c
	}
	s.mu.Unlock()
	if !ok {
		_ = httpapi.WriteDetail(w, http.StatusNotFound, notFound)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) deleteCuadrilla(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cuadrillas[id]; !ok {
		_ = httpapi.WriteDetail(w, http.StatusNotFound, notFound)
		return
	}
	delete(s.cuadrillas, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listTerritoriales(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	s.mu.Lock()
	items := []domain.Territorial{}
	for _, id := range sortedKeys(s.territoriales) {
		t := s.territoriales[id]
		if !matchesQ(t.Nombre, q) {
			continue
		}
		items = append(items, *t)
	}
	s.mu.Unlock()
	paginate(s, w, r, items)
}

func (s *Server) createTerritorial(w http.ResponseWriter, r *http.Request) {
	body := bodyOf(r)
	nombre, ok := requiredNombre(w, body)
	if !ok {
		return
	}
	t := s.SeedTerritorial(domain.Territorial{Nombre: nombre, Profile: profileField(body)})
	_ = httpapi.WriteJSON(w, http.StatusCreated, t)
}

func (s *Server) updateTerritorial(w http.ResponseWriter, r *http.Request) {
	body := bodyOf(r)
	s.mu.Lock()
	t, ok := s.territoriales[pathID(r)]
	var out domain.Territorial
	if ok {
		if nombre, has := body["nombre"].(string); has && strings.TrimSpace(nombre) != "" {
			t.Nombre = strings.TrimSpace(nombre)
		}
		if _, has := body["profile"]; has {
			t.Profile = profileField(body)
		}
		out = *t
	}
	s.mu.Unlock()
	if !ok {
		_ = httpapi.WriteDetail(w, http.StatusNotFound, notFound)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) deleteTerritorial(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.territoriales[id]; !ok {
		_ = httpapi.WriteDetail(w, http.StatusNotFound, notFound)
		return
	}
	delete(s.territoriales, id)
	w.WriteHeader(http.StatusNoContent)
}

func profileField(body map[string]any) *int {
	id, ok := intField(body, "profile")
	if !ok {
		return nil
	}
	return &id
}
