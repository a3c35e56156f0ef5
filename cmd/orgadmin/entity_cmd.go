package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iota-uz/orgadmin/modules/orgs/domain"
	"github.com/iota-uz/orgadmin/modules/orgs/presentation/mappers"
	"github.com/iota-uz/orgadmin/modules/orgs/services"
)

// entityCommands describes the subcommand group of one collection. filters
// registers the list flags and returns a getter; form registers the
// create/update flags and returns a builder that overrides base with the flags
// the user set. base is the default form on create and the record's form on update.
type entityCommands[T domain.Entity, F domain.Filter, V domain.Form, VM any] struct {
	use        string
	short      string
	controller func(*services.Panel) *services.EntityController[T, F, V]
	render     func(T) VM
	filters    func(*cobra.Command) func() F
	form       func(*cobra.Command, *app) func(ctx context.Context, cmd *cobra.Command, base V) (V, error)
	toggle     bool
	update     bool
}

func (e entityCommands[T, F, V, VM]) build(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   e.use,
		Short: e.short,
	}
	cmd.AddCommand(e.listCmd(a))
	cmd.AddCommand(e.createCmd(a))
	if e.toggle {
		cmd.AddCommand(e.toggleCmd(a))
	}
	if e.update {
		cmd.AddCommand(e.updateCmd(a))
	}
	cmd.AddCommand(e.deleteCmd(a))
	return cmd
}

func (e entityCommands[T, F, V, VM]) listCmd(a *app) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List one page of " + e.use,
		Args:  cobra.NoArgs,
	}
	filters := e.filters(cmd)
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if page < 1 {
			return withCode(exitUsage, services.ErrInvalidPage)
		}
		ctrl := e.controller(a.panel)
		ctrl.SetFilters(filters())
		if err := ctrl.Load(cmd.Context(), page); err != nil {
			return a.loadError(ctrl.State().Error, err)
		}
		return a.print(mappers.PageToViewModel(ctrl.Name(), ctrl.State(), a.conf.PageSize, e.render))
	}
	return cmd
}

func (e entityCommands[T, F, V, VM]) createCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a record in " + e.use,
		Args:  cobra.NoArgs,
	}
	buildForm := e.form(cmd, a)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ctrl := e.controller(a.panel)
		form, err := buildForm(ctx, cmd, ctrl.Form().Values)
		if err != nil {
			return err
		}
		created, err := ctrl.Create(ctx, form)
		if err != nil {
			return a.mutationError(err)
		}
		return a.print(e.render(created))
	}
	return cmd
}

func (e entityCommands[T, F, V, VM]) toggleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle ID",
		Short: "Flip the estado of a record",
		Args:  idArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctrl := e.controller(a.panel)
			item, err := findByID(ctx, ctrl, mustID(args))
			if err != nil {
				return a.loadError(ctrl.State().Error, err)
			}
			updated, err := ctrl.ToggleEstado(ctx, item)
			if err != nil {
				return a.mutationError(err)
			}
			return a.print(e.render(updated))
		},
	}
}

func (e entityCommands[T, F, V, VM]) updateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Edit a record; flags not given keep their current value",
		Args:  idArg,
	}
	buildForm := e.form(cmd, a)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ctrl := e.controller(a.panel)
		item, err := findByID(ctx, ctrl, mustID(args))
		if err != nil {
			return a.loadError(ctrl.State().Error, err)
		}
		if err := ctrl.Edit(item); err != nil {
			return withCode(exitUsage, err)
		}
		form, err := buildForm(ctx, cmd, ctrl.Form().Values)
		if err != nil {
			return err
		}
		updated, err := ctrl.Submit(ctx, form)
		if err != nil {
			return a.mutationError(err)
		}
		return a.print(e.render(updated))
	}
	return cmd
}

func (e entityCommands[T, F, V, VM]) deleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a record after confirmation",
		Args:  idArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctrl := e.controller(a.panel)
			id := mustID(args)
			item, err := findByID(ctx, ctrl, id)
			if err != nil {
				return a.loadError(ctrl.State().Error, err)
			}
			deleted, err := ctrl.Delete(ctx, item)
			if err != nil {
				return a.mutationError(err)
			}
			if !deleted {
				return withCode(exitAborted, errors.New("delete aborted"))
			}
			type deleteResult struct {
				Collection string `json:"collection"`
				ID         int    `json:"id"`
				Deleted    bool   `json:"deleted"`
			}
			return a.print(deleteResult{Collection: ctrl.Name(), ID: id, Deleted: true})
		},
	}
}

func idArg(_ *cobra.Command, args []string) error {
	if len(args) != 1 {
		return withCode(exitUsage, fmt.Errorf("expected exactly one ID, got %d", len(args)))
	}
	if id, err := strconv.Atoi(args[0]); err != nil || id <= 0 {
		return withCode(exitUsage, fmt.Errorf("invalid ID %q", args[0]))
	}
	return nil
}

// mustID reads an argument already checked by idArg.
func mustID(args []string) int {
	id, _ := strconv.Atoi(args[0])
	return id
}

// findByID walks the list pages of ctrl until it meets id. The walk ends at the
// last page the count announces or at the first empty page.
func findByID[T domain.Entity, F domain.Filter, V domain.Form](ctx context.Context, ctrl *services.EntityController[T, F, V], id int) (T, error) {
	var zero T
	for page := 1; ; page++ {
		if err := ctrl.Load(ctx, page); err != nil {
			return zero, err
		}
		items := ctrl.State().Items
		for _, item := range items {
			if item.EntityID() == id {
				return item, nil
			}
		}
		if len(items) == 0 || page >= ctrl.TotalPages() {
			return zero, withCode(exitValidation, fmt.Errorf("%s: no record with id %d", ctrl.Name(), id))
		}
	}
}

func (a *app) loadError(text string, err error) error {
	var ce *cliError
	if errors.As(err, &ce) {
		return err
	}
	if text == "" {
		return withCode(classify(err), err)
	}
	return withCode(classify(err), &userError{text: text, cause: err})
}

// mutationError surfaces the feedback text a mutation posted, or the per-field
// messages of a local validation failure.
func (a *app) mutationError(err error) error {
	code := classify(err)
	var ve *domain.ValidationError
	if errors.As(err, &ve) && ve.Message == "" && len(ve.Fields) > 0 {
		return withCode(code, &userError{text: fieldMessages(ve.Fields), cause: err})
	}
	if fb := a.panel.Feedback.Current(); fb != nil && fb.Kind == services.FeedbackError {
		return withCode(code, &userError{text: fb.Text, cause: err})
	}
	return withCode(code, err)
}

func fieldMessages(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fields[k])
	}
	return strings.Join(parts, "; ")
}
