// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/invowk/lazymod/internal/discovery"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func newModulesCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "modules",
		Short: "List the modules visible on the search path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := app.session(cmd)
			if err != nil {
				return err
			}
			disc := discovery.New(s.cfg.SearchPaths, discovery.WithLogger(s.logger))
			res, err := disc.List(cmd.Context())
			if err != nil {
				return &ExitError{Code: ExitFailure, Err: err}
			}

			for _, d := range res.Diagnostics {
				style := WarningStyle
				if d.Severity == discovery.SeverityError {
					style = ErrorStyle
				}
				fmt.Fprintf(app.stderr, "%s %s: %s\n", style.Render(string(d.Severity)+":"), d.Path, d.Message)
			}

			if len(res.Modules) == 0 {
				fmt.Fprintln(app.stdout, SubtitleStyle.Render("no modules found"))
				return nil
			}
			rows := make([][]string, 0, len(res.Modules))
			for _, m := range res.Modules {
				kind := "module"
				if m.Package {
					kind = "package"
				}
				rows = append(rows, []string{m.Name, kind, m.Format, m.Path})
			}
			t := table.New().
				Border(lipgloss.HiddenBorder()).
				Headers("NAME", "KIND", "FORMAT", "PATH").
				Rows(rows...).
				StyleFunc(func(row, _ int) lipgloss.Style {
					if row == table.HeaderRow {
						return TitleStyle.PaddingRight(1)
					}
					return lipgloss.NewStyle().PaddingRight(1)
				})
			fmt.Fprintln(app.stdout, t.Render())
			return nil
		},
	}
}
