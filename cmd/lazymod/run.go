// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/invowk/lazymod/internal/watch"
	"github.com/invowk/lazymod/pkg/lazyimport"

	"github.com/spf13/cobra"
)

type runFlags struct {
	showLoaded  bool
	watch       bool
	watchIgnore []string
}

func newRunCommand(app *App) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run <module>",
		Short: "Import a module and run its body",
		Long: `Import a module and run its body.

The module is looked up on the search path like any import. With --lazy,
top-level imports of every module are deferred until their names are used.

With --watch, the module runs again in a fresh registry whenever a unit file
on the search path changes, until interrupted. Hidden directories, node_modules
and editor backup files are never watched; --watch-ignore adds doublestar
patterns relative to each search path (e.g. "vendor/**").`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.session(cmd)
			if err != nil {
				return err
			}
			if flags.watch {
				return app.watchModule(cmd.Context(), s, args[0], flags)
			}
			return app.runModule(cmd.Context(), s, args[0], flags)
		},
	}
	cmd.Flags().BoolVar(&flags.showLoaded, "show-loaded", false, "print the state of every module in the registry afterwards")
	cmd.Flags().BoolVarP(&flags.watch, "watch", "w", false, "run again when a unit file on the search path changes")
	cmd.Flags().StringSliceVar(&flags.watchIgnore, "watch-ignore", nil, "glob of paths --watch never reacts to (repeatable)")
	return cmd
}

// runModule imports module in a new runtime.
func (app *App) runModule(ctx context.Context, s *session, module string, flags runFlags) error {
	rt, _, err := app.runtime(s)
	if err != nil {
		return err
	}

	_, runErr := rt.Import(ctx, module)
	if flags.showLoaded {
		printLoaded(app, rt.Registry())
	}
	if runErr != nil {
		return moduleError("run module", module, runErr)
	}
	return nil
}

// watchModule runs module once and again after every change to a unit file.
// Failures of single runs are printed and do not end the watch.
func (app *App) watchModule(ctx context.Context, s *session, module string, flags runFlags) error {
	report := func(err error) {
		if err != nil {
			writeError(app.stderr, err, app.flags.verbose)
		}
	}

	w, err := watch.New(watch.Config{
		Roots:  s.cfg.SearchPaths,
		Ignore: flags.watchIgnore,
		Logger: s.logger,
		OnChange: func(ctx context.Context, changed []string) error {
			fmt.Fprintf(app.stderr, "%s %d unit file(s) changed, running %s again\n",
				WarningStyle.Render("↻"), len(changed), module)
			err := app.runModule(ctx, s, module, flags)
			report(err)
			return err
		},
	})
	if errors.Is(err, watch.ErrInvalidPattern) {
		return &ExitError{Code: ExitUsage, Err: err}
	}
	if err != nil {
		return &ExitError{Code: ExitFailure, Err: err}
	}

	report(app.runModule(ctx, s, module, flags))
	if err := w.Run(ctx); err != nil {
		return &ExitError{Code: ExitFailure, Err: err}
	}
	return nil
}

func printLoaded(app *App, reg *lazyimport.Registry) {
	fmt.Fprintln(app.stdout, TitleStyle.Render("Loaded modules"))
	for _, name := range reg.Names() {
		state := reg.State(name)
		style := SuccessStyle
		if state == lazyimport.ModuleFailed {
			style = ErrorStyle
		}
		fmt.Fprintf(app.stdout, "  %s %s\n", name, style.Render(state.String()))
	}
}
