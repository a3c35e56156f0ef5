package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/iota-uz/orgadmin/modules/orgs"
	"github.com/iota-uz/orgadmin/modules/orgs/services"
	"github.com/iota-uz/orgadmin/pkg/configuration"
	"github.com/iota-uz/orgadmin/pkg/tracing"
)

// app is the state shared by every subcommand of one invocation.
type app struct {
	envFiles []string
	yes      bool

	conf     *configuration.Configuration
	panel    *services.Panel
	shutdown func(context.Context) error

	out    io.Writer
	errOut io.Writer
}

func (a *app) open(cmd *cobra.Command) error {
	a.out = cmd.OutOrStdout()
	a.errOut = cmd.ErrOrStderr()

	conf, err := configuration.Load(a.envFiles)
	if err != nil {
		return withCode(exitUsage, fmt.Errorf("configuration: %w", err))
	}
	a.conf = conf

	shutdown, err := tracing.Setup(cmd.Context(), conf.Tracing, "orgadmin")
	if err != nil {
		return withCode(exitUsage, fmt.Errorf("tracing: %w", err))
	}
	a.shutdown = shutdown

	var confirm services.Confirmer = newStdinConfirmer(cmd.InOrStdin(), a.errOut)
	if a.yes {
		confirm = alwaysConfirm()
	}
	panel, err := orgs.NewModule(conf).NewPanel(cmd.Context(), confirm)
	if err != nil {
		return withCode(exitUsage, err)
	}
	a.panel = panel
	panel.Bus().Subscribe(func(e services.FeedbackChanged) {
		if e.Feedback != nil && e.Feedback.Kind == services.FeedbackSuccess {
			fmt.Fprintln(a.errOut, e.Feedback.Text)
		}
	})
	return nil
}

func (a *app) close() {
	if a.panel != nil {
		a.panel.Close()
		a.panel = nil
	}
	if a.shutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.shutdown(ctx); err != nil && a.conf != nil {
			a.conf.Logger().WithError(err).Warn("flushing spans")
		}
		cancel()
		a.shutdown = nil
	}
	if a.conf != nil {
		a.conf.Unload()
		a.conf = nil
	}
}

func (a *app) print(v any) error {
	return writeJSONLine(a.out, v)
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}
	cmd := &cobra.Command{
		Use:           "orgadmin",
		Short:         "Administer Direcciones, Departamentos, Cuadrillas and Territoriales through the orgs API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd)
		},
	}
	cmd.PersistentFlags().StringSliceVar(&a.envFiles, "env-file", configuration.DefaultEnvFiles, "Env files to load before reading the environment")
	cmd.PersistentFlags().BoolVarP(&a.yes, "yes", "y", false, "Skip delete confirmations")
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return withCode(exitUsage, err)
	})

	cmd.AddCommand(newDireccionesCmd(a))
	cmd.AddCommand(newDepartamentosCmd(a))
	cmd.AddCommand(newCuadrillasCmd(a))
	cmd.AddCommand(newTerritorialesCmd(a))
	cmd.AddCommand(newOptionsCmd(a))
	cmd.AddCommand(newSummaryCmd(a))
	cmd.AddCommand(newRefreshCmd(a))
	return cmd, a
}

func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	cmd, a := newRootCmd()
	defer a.close()
	cmd.SetArgs(args)
	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	return cmd.ExecuteContext(ctx)
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	if err != nil {
		code := exitCode(err)
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(code)
	}
}
