package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iota-uz/orgadmin/modules/orgs/domain"
	"github.com/iota-uz/orgadmin/modules/orgs/presentation/mappers"
	"github.com/iota-uz/orgadmin/modules/orgs/presentation/viewmodels"
	"github.com/iota-uz/orgadmin/modules/orgs/services"
)

func newDireccionesCmd(a *app) *cobra.Command {
	return entityCommands[domain.Direccion, domain.DireccionFilter, domain.DireccionForm, viewmodels.Direccion]{
		use:        "direcciones",
		short:      "Manage direcciones",
		controller: func(p *services.Panel) *services.DireccionController { return p.Direcciones },
		render:     mappers.DireccionToViewModel,
		toggle:     true,
		filters: func(cmd *cobra.Command) func() domain.DireccionFilter {
			var f domain.DireccionFilter
			cmd.Flags().StringVar(&f.Q, "q", "", "Search by nombre")
			cmd.Flags().StringVar(&f.Estado, "estado", "", "activa or bloqueada")
			cmd.Flags().StringVar(&f.Responsable, "responsable", "", "Search by encargado")
			return func() domain.DireccionFilter { return f }
		},
		form: func(cmd *cobra.Command, _ *app) func(context.Context, *cobra.Command, domain.DireccionForm) (domain.DireccionForm, error) {
			var nombre string
			var estado bool
			cmd.Flags().StringVar(&nombre, "nombre", "", "Nombre")
			cmd.Flags().BoolVar(&estado, "estado", true, "Active on creation")
			return func(_ context.Context, cmd *cobra.Command, base domain.DireccionForm) (domain.DireccionForm, error) {
				if cmd.Flags().Changed("nombre") {
					base.Nombre = nombre
				}
				if cmd.Flags().Changed("estado") {
					base.Estado = estado
				}
				return base, nil
			}
		},
	}.build(a)
}

func newDepartamentosCmd(a *app) *cobra.Command {
	return entityCommands[domain.Departamento, domain.DepartamentoFilter, domain.DepartamentoForm, viewmodels.Departamento]{
		use:        "departamentos",
		short:      "Manage departamentos",
		controller: func(p *services.Panel) *services.DepartamentoController { return p.Departamentos },
		render:     mappers.DepartamentoToViewModel,
		toggle:     true,
		filters: func(cmd *cobra.Command) func() domain.DepartamentoFilter {
			var f domain.DepartamentoFilter
			cmd.Flags().StringVar(&f.Q, "q", "", "Search by nombre")
			cmd.Flags().StringVar(&f.Estado, "estado", "", "activo or bloqueado")
			cmd.Flags().StringVar(&f.Direccion, "direccion", "", "Parent direccion id")
			return func() domain.DepartamentoFilter { return f }
		},
		form: func(cmd *cobra.Command, a *app) func(context.Context, *cobra.Command, domain.DepartamentoForm) (domain.DepartamentoForm, error) {
			var nombre, direccion string
			var estado bool
			cmd.Flags().StringVar(&nombre, "nombre", "", "Nombre")
			cmd.Flags().BoolVar(&estado, "estado", true, "Active on creation")
			cmd.Flags().StringVar(&direccion, "direccion", "", "Parent direccion, by id or name")
			return func(ctx context.Context, cmd *cobra.Command, base domain.DepartamentoForm) (domain.DepartamentoForm, error) {
				if cmd.Flags().Changed("nombre") {
					base.Nombre = nombre
				}
				if cmd.Flags().Changed("estado") {
					base.Estado = estado
				}
				id, err := resolveDireccion(ctx, a.panel, direccion)
				if err != nil {
					return base, err
				}
				base.Direccion = id
				return base, nil
			}
		},
	}.build(a)
}

func newCuadrillasCmd(a *app) *cobra.Command {
	return entityCommands[domain.Cuadrilla, domain.CuadrillaFilter, domain.CuadrillaForm, viewmodels.Cuadrilla]{
		use:        "cuadrillas",
		short:      "Manage cuadrillas",
		controller: func(p *services.Panel) *services.CuadrillaController { return p.Cuadrillas },
		render:     mappers.CuadrillaToViewModel,
		toggle:     true,
		filters: func(cmd *cobra.Command) func() domain.CuadrillaFilter {
			var f domain.CuadrillaFilter
			cmd.Flags().StringVar(&f.Q, "q", "", "Search by nombre")
			cmd.Flags().StringVar(&f.Estado, "estado", "", "activa or bloqueada")
			cmd.Flags().StringVar(&f.Departamento, "departamento", "", "Parent departamento id")
			return func() domain.CuadrillaFilter { return f }
		},
		form: func(cmd *cobra.Command, a *app) func(context.Context, *cobra.Command, domain.CuadrillaForm) (domain.CuadrillaForm, error) {
			var nombre, departamento string
			var estado bool
			cmd.Flags().StringVar(&nombre, "nombre", "", "Nombre")
			cmd.Flags().BoolVar(&estado, "estado", true, "Active on creation")
			cmd.Flags().StringVar(&departamento, "departamento", "", "Parent departamento, by id or name")
			return func(ctx context.Context, cmd *cobra.Command, base domain.CuadrillaForm) (domain.CuadrillaForm, error) {
				if cmd.Flags().Changed("nombre") {
					base.Nombre = nombre
				}
				if cmd.Flags().Changed("estado") {
					base.Estado = estado
				}
				id, err := resolveDepartamento(ctx, a.panel, departamento)
				if err != nil {
					return base, err
				}
				base.Departamento = id
				return base, nil
			}
		},
	}.build(a)
}

func newTerritorialesCmd(a *app) *cobra.Command {
	return entityCommands[domain.Territorial, domain.TerritorialFilter, domain.TerritorialForm, viewmodels.Territorial]{
		use:        "territoriales",
		short:      "Manage territoriales",
		controller: func(p *services.Panel) *services.TerritorialController { return p.Territoriales },
		render:     mappers.TerritorialToViewModel,
		update:     true,
		filters: func(cmd *cobra.Command) func() domain.TerritorialFilter {
			var f domain.TerritorialFilter
			cmd.Flags().StringVar(&f.Q, "q", "", "Search by nombre")
			return func() domain.TerritorialFilter { return f }
		},
		form: func(cmd *cobra.Command, _ *app) func(context.Context, *cobra.Command, domain.TerritorialForm) (domain.TerritorialForm, error) {
			var nombre, profile string
			cmd.Flags().StringVar(&nombre, "nombre", "", "Nombre")
			cmd.Flags().StringVar(&profile, "profile", "", "Responsable profile id; empty clears it")
			return func(_ context.Context, cmd *cobra.Command, base domain.TerritorialForm) (domain.TerritorialForm, error) {
				if cmd.Flags().Changed("nombre") {
					base.Nombre = nombre
				}
				if cmd.Flags().Changed("profile") {
					base.Profile = profile
				}
				return base, nil
			}
		},
	}.build(a)
}

func resolveDireccion(ctx context.Context, p *services.Panel, raw string) (int, error) {
	return resolveParent(raw, "direccion", func() []domain.Direccion {
		p.Options.RefreshDireccionOptions(ctx)
		return p.Options.MatchDireccion(raw)
	})
}

func resolveDepartamento(ctx context.Context, p *services.Panel, raw string) (int, error) {
	return resolveParent(raw, "departamento", func() []domain.Departamento {
		p.Options.RefreshDepartamentoOptions(ctx)
		return p.Options.MatchDepartamento(raw)
	})
}

// resolveParent turns a parent flag into an id. Numbers pass through as ids;
// names are looked up among the active options, where an exact
// case-insensitive name wins over fuzzy matches. Blank leaves the parent unset.
func resolveParent[T domain.Entity](raw, label string, match func() []T) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if id, err := strconv.Atoi(raw); err == nil {
		return id, nil
	}
	found := match()
	for _, f := range found {
		if strings.EqualFold(f.DisplayName(), raw) {
			return f.EntityID(), nil
		}
	}
	switch len(found) {
	case 0:
		return 0, withCode(exitValidation, fmt.Errorf("no active %s matches %q", label, raw))
	case 1:
		return found[0].EntityID(), nil
	}
	names := make([]string, 0, len(found))
	for _, f := range found {
		names = append(names, fmt.Sprintf("%s (%d)", f.DisplayName(), f.EntityID()))
	}
	return 0, withCode(exitValidation, fmt.Errorf("%s %q is ambiguous: %s", label, raw, strings.Join(names, ", ")))
}
