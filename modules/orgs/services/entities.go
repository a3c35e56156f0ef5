package services

import (
	"github.com/iota-uz/orgadmin/modules/orgs/domain"
)

const (
	CollectionDirecciones   = "direcciones"
	CollectionDepartamentos = "departamentos"
	CollectionCuadrillas    = "cuadrillas"
	CollectionTerritoriales = "territoriales"

	msgToggleFailed = "No se pudo cambiar el estado."
)

type ToggleGateway[T any] interface {
	Gateway[T]
	Toggler[T]
}

type UpdateGateway[T any] interface {
	Gateway[T]
	Updater[T]
}

// Gateways is the transport side of the four collections.
type Gateways struct {
	Direcciones   ToggleGateway[domain.Direccion]
	Departamentos ToggleGateway[domain.Departamento]
	Cuadrillas    ToggleGateway[domain.Cuadrilla]
	Territoriales UpdateGateway[domain.Territorial]
}

type (
	DireccionController    = EntityController[domain.Direccion, domain.DireccionFilter, domain.DireccionForm]
	DepartamentoController = EntityController[domain.Departamento, domain.DepartamentoFilter, domain.DepartamentoForm]
	CuadrillaController    = EntityController[domain.Cuadrilla, domain.CuadrillaFilter, domain.CuadrillaForm]
	TerritorialController  = EntityController[domain.Territorial, domain.TerritorialFilter, domain.TerritorialForm]
)

var (
	DireccionMessages = Messages{
		LoadFailed:    "No se pudieron cargar las direcciones.",
		CreateFailed:  "No se pudo crear la dirección.",
		ToggleFailed:  msgToggleFailed,
		DeleteFailed:  "No se pudo eliminar la dirección.",
		Created:       `Dirección "%s" creada.`,
		Toggled:       `Dirección "%s" actualizada.`,
		Deleted:       `Dirección "%s" eliminada.`,
		ConfirmDelete: `¿Eliminar la dirección "%s"?`,
	}
	DepartamentoMessages = Messages{
		LoadFailed:    "No se pudieron cargar los departamentos.",
		CreateFailed:  "No se pudo crear el departamento.",
		ToggleFailed:  msgToggleFailed,
		DeleteFailed:  "No se pudo eliminar el departamento.",
		Created:       `Departamento "%s" creado.`,
		Toggled:       `Departamento "%s" actualizado.`,
		Deleted:       `Departamento "%s" eliminado.`,
		ConfirmDelete: `¿Eliminar el departamento "%s"?`,
	}
	CuadrillaMessages = Messages{
		LoadFailed:    "No se pudieron cargar las cuadrillas.",
		CreateFailed:  "No se pudo crear la cuadrilla.",
		ToggleFailed:  msgToggleFailed,
		DeleteFailed:  "No se pudo eliminar la cuadrilla.",
		Created:       `Cuadrilla "%s" creada.`,
		Toggled:       `Cuadrilla "%s" actualizada.`,
		Deleted:       `Cuadrilla "%s" eliminada.`,
		ConfirmDelete: `¿Eliminar la cuadrilla "%s"?`,
	}
	TerritorialMessages = Messages{
		LoadFailed:    "No se pudieron cargar los territoriales.",
		CreateFailed:  "No se pudo guardar el territorial.",
		UpdateFailed:  "No se pudo guardar el territorial.",
		DeleteFailed:  "No se pudo eliminar el territorial.",
		Created:       `Territorial "%s" creado.`,
		Updated:       `Territorial "%s" actualizado.`,
		Deleted:       `Territorial "%s" eliminado.`,
		ConfirmDelete: `¿Eliminar el territorial "%s"?`,
	}
)

// shared is what every controller of one panel has in common.
type shared struct {
	opts     PanelOptions
	feedback *FeedbackChannel
	scope    *Scope
}

func newDireccionController(gw ToggleGateway[domain.Direccion], s shared) *DireccionController {
	return NewEntityController(ControllerConfig[domain.Direccion, domain.DireccionFilter, domain.DireccionForm]{
		Name:         CollectionDirecciones,
		Gateway:      gw,
		Toggler:      gw,
		Messages:     DireccionMessages,
		DefaultForm:  domain.DefaultDireccionForm(),
		PageSize:     s.opts.PageSize,
		DiscardStale: s.opts.DiscardStale,
		Confirmer:    s.opts.Confirmer,
		Feedback:     s.feedback,
		Scope:        s.scope,
		Bus:          s.opts.Bus,
		Log:          s.opts.Log,
	})
}

func newDepartamentoController(gw ToggleGateway[domain.Departamento], s shared) *DepartamentoController {
	return NewEntityController(ControllerConfig[domain.Departamento, domain.DepartamentoFilter, domain.DepartamentoForm]{
		Name:         CollectionDepartamentos,
		Gateway:      gw,
		Toggler:      gw,
		Messages:     DepartamentoMessages,
		DefaultForm:  domain.DefaultDepartamentoForm(),
		PageSize:     s.opts.PageSize,
		DiscardStale: s.opts.DiscardStale,
		Confirmer:    s.opts.Confirmer,
		Feedback:     s.feedback,
		Scope:        s.scope,
		Bus:          s.opts.Bus,
		Log:          s.opts.Log,
	})
}

func newCuadrillaController(gw ToggleGateway[domain.Cuadrilla], s shared) *CuadrillaController {
	return NewEntityController(ControllerConfig[domain.Cuadrilla, domain.CuadrillaFilter, domain.CuadrillaForm]{
		Name:         CollectionCuadrillas,
		Gateway:      gw,
		Toggler:      gw,
		Messages:     CuadrillaMessages,
		DefaultForm:  domain.DefaultCuadrillaForm(),
		PageSize:     s.opts.PageSize,
		DiscardStale: s.opts.DiscardStale,
		Confirmer:    s.opts.Confirmer,
		Feedback:     s.feedback,
		Scope:        s.scope,
		Bus:          s.opts.Bus,
		Log:          s.opts.Log,
	})
}

func newTerritorialController(gw UpdateGateway[domain.Territorial], s shared) *TerritorialController {
	return NewEntityController(ControllerConfig[domain.Territorial, domain.TerritorialFilter, domain.TerritorialForm]{
		Name:         CollectionTerritoriales,
		Gateway:      gw,
		Updater:      gw,
		Messages:     TerritorialMessages,
		EditForm:     domain.FormFromTerritorial,
		PageSize:     s.opts.PageSize,
		DiscardStale: s.opts.DiscardStale,
		Confirmer:    s.opts.Confirmer,
		Feedback:     s.feedback,
		Scope:        s.scope,
		Bus:          s.opts.Bus,
		Log:          s.opts.Log,
	})
}
