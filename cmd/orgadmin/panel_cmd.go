package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iota-uz/orgadmin/modules/orgs/presentation/mappers"
	"github.com/iota-uz/orgadmin/modules/orgs/presentation/viewmodels"
	"github.com/iota-uz/orgadmin/modules/orgs/services"
)

func newOptionsCmd(a *app) *cobra.Command {
	var match string
	cmd := &cobra.Command{
		Use:       "options direcciones|departamentos",
		Short:     "List the active parents offered by selectors",
		ValidArgs: []string{services.OptionsDirecciones, services.OptionsDepartamentos},
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs)(cmd, args); err != nil {
				return withCode(exitUsage, err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts := a.panel.Options
			var out []viewmodels.Option
			switch args[0] {
			case services.OptionsDirecciones:
				opts.RefreshDireccionOptions(ctx)
				out = mappers.OptionsToViewModels(opts.MatchDireccion(match))
			default:
				opts.RefreshDepartamentoOptions(ctx)
				out = mappers.OptionsToViewModels(opts.MatchDepartamento(match))
			}
			return a.print(out)
		},
	}
	cmd.Flags().StringVar(&match, "match", "", "Fuzzy name or exact id to filter by")
	return cmd
}

func newSummaryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Load every collection and print the row counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := a.panel.Bootstrap(cmd.Context())
			if perr := a.print(a.panel.Summary()); perr != nil {
				return perr
			}
			return bootstrapError(a.panel, err)
		},
	}
}

func newRefreshCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Reload every collection and the parent options",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := a.panel.RefreshAll(cmd.Context())
			type refreshResult struct {
				Summary       services.Summary `json:"summary"`
				Direcciones   int              `json:"direccion_options"`
				Departamentos int              `json:"departamento_options"`
			}
			res := refreshResult{
				Summary:       a.panel.Summary(),
				Direcciones:   len(a.panel.Options.DireccionOptions()),
				Departamentos: len(a.panel.Options.DepartamentoOptions()),
			}
			if perr := a.print(res); perr != nil {
				return perr
			}
			return bootstrapError(a.panel, err)
		},
	}
}

// bootstrapError names the collections whose load failed, with their messages.
func bootstrapError(p *services.Panel, err error) error {
	if err == nil {
		return nil
	}
	failed := map[string]string{
		p.Direcciones.Name():   p.Direcciones.State().Error,
		p.Departamentos.Name(): p.Departamentos.State().Error,
		p.Cuadrillas.Name():    p.Cuadrillas.State().Error,
		p.Territoriales.Name(): p.Territoriales.State().Error,
	}
	for k, v := range failed {
		if v == "" {
			delete(failed, k)
		}
	}
	if len(failed) == 0 {
		return withCode(classify(err), err)
	}
	return withCode(exitAPI, &userError{text: fmt.Sprintf("load failed: %s", fieldMessages(failed)), cause: err})
}
