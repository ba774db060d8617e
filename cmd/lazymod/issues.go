// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strconv"

	"github.com/invowk/lazymod/internal/issue"

	"github.com/spf13/cobra"
)

func newIssuesCommand(app *App) *cobra.Command {
	var style string

	cmd := &cobra.Command{
		Use:   "issues [id]",
		Short: "Explain the errors lazymod reports",
		Long: `Explain the errors lazymod reports.

Without an argument, lists the issue catalog. With an id, renders the
entry. Failures printed with --verbose include their entry.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if len(args) == 0 {
				for _, is := range issue.Values() {
					fmt.Fprintf(app.stdout, "%s  %s\n", CmdStyle.Render(fmt.Sprintf("%2d", is.Id())), is.Title())
				}
				return nil
			}

			n, err := strconv.Atoi(args[0])
			if err != nil {
				return usageError(fmt.Errorf("invalid argument %q: issue ids are numbers", args[0]))
			}
			is := issue.Get(issue.Id(n))
			if is == nil {
				return usageError(fmt.Errorf("invalid argument %q: no such issue", args[0]))
			}
			out, err := is.Render(style)
			if err != nil {
				return err
			}
			fmt.Fprint(app.stdout, out)
			return nil
		},
	}
	cmd.Flags().StringVar(&style, "style", "auto", "glamour style: auto, dark, light, notty")
	return cmd
}
