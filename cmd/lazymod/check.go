// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/invowk/lazymod/internal/interp"
	"github.com/invowk/lazymod/pkg/lazyimport"
	"github.com/invowk/lazymod/pkg/unit"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func newCheckCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "check <module>",
		Short: "Validate a module and classify its import statements",
		Long: `Validate a module and classify its import statements.

Nothing is executed. Every import statement is reported as lazy or eager
with the rule that decided it, as it would be when the module runs with
the current flags and configuration.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.session(cmd)
			if err != nil {
				return err
			}
			rt, disc, err := app.runtime(s)
			if err != nil {
				return err
			}

			name := args[0]
			src, err := disc.Find(cmd.Context(), name)
			if err != nil {
				return moduleError("check module", name, err)
			}
			u, err := unit.Parse(src.File, src.Data)
			if err != nil {
				return moduleError("check module", name, err)
			}
			decisions, err := interp.Analyze(rt, name, u)
			if err != nil {
				return moduleError("check module", name, err)
			}

			printDecisions(app, src.File, decisions)
			return nil
		},
	}
}

func printDecisions(app *App, file string, decisions []interp.Decision) {
	fmt.Fprintf(app.stdout, "%s %s\n", SuccessStyle.Render("✓"), file)
	if len(decisions) == 0 {
		fmt.Fprintln(app.stdout, SubtitleStyle.Render("no import statements"))
		return
	}

	lazy := 0
	rows := make([][]string, 0, len(decisions))
	for _, d := range decisions {
		mode := eagerStyle.Render(d.Mode.String())
		if d.Mode == lazyimport.Lazy {
			lazy++
			mode = lazyStyle.Render(d.Mode.String())
		}
		rows = append(rows, []string{d.Site.String(), d.Statement, mode, d.Reason.String()})
	}

	t := table.New().
		Border(lipgloss.HiddenBorder()).
		Headers("SITE", "STATEMENT", "MODE", "REASON").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return TitleStyle.PaddingRight(1)
			}
			return lipgloss.NewStyle().PaddingRight(1)
		})
	fmt.Fprintln(app.stdout, t.Render())
	fmt.Fprintf(app.stdout, "%d deferred, %d eager\n", lazy, len(decisions)-lazy)
}
