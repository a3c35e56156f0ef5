package mappers

import (
	"fmt"
	"strings"

	"github.com/iota-uz/orgadmin/modules/orgs/domain"
	"github.com/iota-uz/orgadmin/modules/orgs/presentation/viewmodels"
	"github.com/iota-uz/orgadmin/modules/orgs/services"
)

const (
	NoUser      = "Sin usuario"
	NoProfile   = "Sin responsable"
	BadgeActive = "is-success"
	BadgeLocked = "is-danger"
)

// Grammatical gender of the estado label: Direcciones and Cuadrillas are
// feminine, Departamentos masculine.
type gender int

const (
	feminine gender = iota
	masculine
)

func estadoLabel(active bool, g gender) string {
	switch {
	case active && g == feminine:
		return "Activa"
	case active:
		return "Activo"
	case g == feminine:
		return "Bloqueada"
	default:
		return "Bloqueado"
	}
}

func Badge(active bool) string {
	if active {
		return BadgeActive
	}
	return BadgeLocked
}

// MembershipLabel prefers the trimmed full name, then the username.
func MembershipLabel(p *domain.ProfileSummary) string {
	if p == nil {
		return NoUser
	}
	if name := strings.TrimSpace(p.FullName); name != "" {
		return name
	}
	if p.Username != "" {
		return p.Username
	}
	return NoUser
}

// PageWindow is how many pages the pager shows on each side of the current one.
const PageWindow = 5

// PageRange lists the pages a pager offers: the first and last page plus
// PageWindow pages around current, ascending.
func PageRange(current, total int) []int {
	if total < 1 {
		return []int{}
	}
	current = min(max(current, 1), total)
	lo := max(current-PageWindow, 1)
	hi := min(current+PageWindow, total)

	out := make([]int, 0, hi-lo+3)
	if lo > 1 {
		out = append(out, 1)
	}
	for i := lo; i <= hi; i++ {
		out = append(out, i)
	}
	if hi < total {
		out = append(out, total)
	}
	return out
}

func DireccionToViewModel(d domain.Direccion) viewmodels.Direccion {
	vm := viewmodels.Direccion{
		ID:         d.ID,
		Nombre:     d.Nombre,
		Estado:     estadoLabel(d.Estado, feminine),
		Badge:      Badge(d.Estado),
		Encargados: []string{},
		Miembros:   make([]viewmodels.Member, 0, len(d.Memberships)),
	}
	for _, m := range d.Memberships {
		label := MembershipLabel(m.Usuario)
		vm.Miembros = append(vm.Miembros, viewmodels.Member{Label: label, EsEncargado: m.EsEncargado, Desde: m.Desde})
		if m.EsEncargado {
			vm.Encargados = append(vm.Encargados, label)
		}
	}
	return vm
}

func DepartamentoToViewModel(d domain.Departamento) viewmodels.Departamento {
	vm := viewmodels.Departamento{
		ID:         d.ID,
		Nombre:     d.Nombre,
		Estado:     estadoLabel(d.Estado, masculine),
		Badge:      Badge(d.Estado),
		Direccion:  parentLabel(d.Direccion, d.DireccionDetalle),
		Encargados: []string{},
		Miembros:   make([]viewmodels.Member, 0, len(d.Memberships)),
	}
	for _, m := range d.Memberships {
		label := MembershipLabel(m.Usuario)
		vm.Miembros = append(vm.Miembros, viewmodels.Member{Label: label, EsEncargado: m.EsEncargado, Desde: m.Desde})
		if m.EsEncargado {
			vm.Encargados = append(vm.Encargados, label)
		}
	}
	return vm
}

func CuadrillaToViewModel(c domain.Cuadrilla) viewmodels.Cuadrilla {
	vm := viewmodels.Cuadrilla{
		ID:       c.ID,
		Nombre:   c.Nombre,
		Estado:   estadoLabel(c.Estado, feminine),
		Badge:    Badge(c.Estado),
		Miembros: make([]viewmodels.Member, 0, len(c.Memberships)),
	}
	if c.DepartamentoDetalle != nil {
		vm.Departamento = c.DepartamentoDetalle.Nombre
		if dir := c.DepartamentoDetalle.Direccion; dir != nil {
			vm.Direccion = dir.Nombre
		}
	} else {
		vm.Departamento = fmt.Sprintf("#%d", c.Departamento)
	}
	for _, m := range c.Memberships {
		vm.Miembros = append(vm.Miembros, viewmodels.Member{Label: MembershipLabel(m.Usuario), Desde: m.Desde})
	}
	return vm
}

func TerritorialToViewModel(t domain.Territorial) viewmodels.Territorial {
	vm := viewmodels.Territorial{
		ID:          t.ID,
		Nombre:      t.Nombre,
		Responsable: NoProfile,
		ProfileID:   t.Profile,
	}
	switch {
	case t.ProfileDetalle != nil:
		vm.Responsable = MembershipLabel(t.ProfileDetalle)
	case t.Profile != nil:
		vm.Responsable = fmt.Sprintf("#%d", *t.Profile)
	}
	return vm
}

func parentLabel(id int, detail *domain.DireccionSummary) string {
	if detail != nil && detail.Nombre != "" {
		return detail.Nombre
	}
	return fmt.Sprintf("#%d", id)
}

func OptionsToViewModels[T domain.Entity](items []T) []viewmodels.Option {
	out := make([]viewmodels.Option, 0, len(items))
	for _, it := range items {
		out = append(out, viewmodels.Option{ID: it.EntityID(), Nombre: it.DisplayName()})
	}
	return out
}

// PageToViewModel renders a collection snapshot with the pager for pageSize.
func PageToViewModel[T, V any](collection string, st services.CollectionState[T], pageSize int, fn func(T) V) viewmodels.Page[V] {
	total := services.TotalPages(st.Count, pageSize)
	items := make([]V, 0, len(st.Items))
	for _, it := range st.Items {
		items = append(items, fn(it))
	}
	return viewmodels.Page[V]{
		Collection: collection,
		Items:      items,
		Count:      st.Count,
		Page:       st.Page,
		TotalPages: total,
		Pages:      PageRange(st.Page, total),
		Loading:    st.Loading,
		Error:      st.Error,
	}
}
