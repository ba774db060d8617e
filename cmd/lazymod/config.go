// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/invowk/lazymod/internal/config"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `lazymod config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage lazymod configuration",
		Long: `Manage lazymod configuration.

The configuration file is ` + config.ConfigFileName + ` in the user config directory
(for example ~/.config/lazymod on Linux), or in the working directory.
Every key can be overridden with a ` + config.EnvPrefix + `_<KEY> environment variable,
for example ` + config.EnvPrefix + `_LAZY_IMPORTS=true or ` + config.EnvPrefix + `_LOG_LEVEL=debug.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	var asCUE bool
	show := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := app.session(cmd)
			if err != nil {
				return err
			}
			if asCUE {
				fmt.Fprint(app.stdout, config.GenerateCUE(s.cfg))
				return nil
			}
			showConfig(app, s)
			return nil
		},
	}
	show.Flags().BoolVar(&asCUE, "cue", false, "print the configuration as CUE")

	initCmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Create a default configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			} else {
				d, err := config.ConfigDir()
				if err != nil {
					return err
				}
				dir = d
			}
			path, written, err := config.CreateDefaultConfig(dir)
			if err != nil {
				return err
			}
			if !written {
				fmt.Fprintf(app.stdout, "%s %s already exists\n", WarningStyle.Render("!"), path)
				return nil
			}
			fmt.Fprintf(app.stdout, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	}

	cfgCmd.AddCommand(show, initCmd)
	return cfgCmd
}

func showConfig(app *App, s *session) {
	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	w := app.stdout

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)
	if s.source != "" {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("config file"), s.source)
	} else {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("lazy_imports"), valueStyle.Render(fmt.Sprint(s.cfg.LazyImports)))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("search_paths"), valueStyle.Render(strings.Join(s.cfg.SearchPaths, ", ")))
	eager := SubtitleStyle.Render("(none)")
	if len(s.cfg.EagerModules) > 0 {
		eager = valueStyle.Render(strings.Join(s.cfg.EagerModules, ", "))
	}
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("eager_modules"), eager)
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("import_time"), valueStyle.Render(fmt.Sprint(s.cfg.ImportTime)))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("log.level"), valueStyle.Render(s.cfg.Log.Level.String()))
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("log.format"), valueStyle.Render(s.cfg.Log.Format.String()))
}
