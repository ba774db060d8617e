// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/invowk/lazymod/internal/config"
	"github.com/invowk/lazymod/internal/issue"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree bound to app.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   config.AppName,
		Short: "Run module units with deferred imports",
		Long: TitleStyle.Render("lazymod") + SubtitleStyle.Render(" - deferred module imports") + `

lazymod executes module units written in CUE, TOML or HCL. With lazy imports
enabled, a top-level import statement binds a placeholder and the module
only runs when the imported name is first used.

` + SubtitleStyle.Render("Examples:") + `
  lazymod run main --lazy          Run main.lzm.cue with lazy imports
  lazymod run main -L --importtime Print one line per module load
  lazymod check main --lazy        Show which imports would be deferred
  lazymod modules --path ./mods    List modules on a search path
  lazymod config show              Show the effective configuration`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&app.flags.configPath, "config", "", "config file (default is <user config dir>/lazymod/"+config.ConfigFileName+")")
	pf.BoolVarP(&app.flags.verbose, "verbose", "v", false, "print the error chain and issue details on failure")
	pf.StringVar(&app.flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&app.flags.logFormat, "log-format", "", "log format: text, json, logfmt")
	pf.BoolVarP(&app.flags.lazy, "lazy", "L", false, "enable lazy imports")
	pf.StringArrayVarP(&app.flags.paths, "path", "p", nil, "module search path (repeatable)")
	pf.StringArrayVar(&app.flags.eager, "eager", nil, "module name or glob whose imports stay eager (repeatable)")
	pf.BoolVar(&app.flags.importTime, "importtime", false, "print the time spent loading each module")

	root.AddCommand(
		newRunCommand(app),
		newCheckCommand(app),
		newModulesCommand(app),
		newConfigCommand(app),
		newIssuesCommand(app),
		&cobra.Command{
			Use:   "version",
			Short: "Print the lazymod version",
			Args:  cobra.NoArgs,
			Run: func(*cobra.Command, []string) {
				fmt.Fprintln(app.stdout, config.AppName, getVersionString())
			},
		},
	)
	return root
}

func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI with the process arguments and exits.
func Execute() {
	os.Exit(int(Main()))
}

// Main runs the CLI and returns the exit code.
func Main() ExitCode {
	app := NewApp(Dependencies{})
	root := NewRootCommand(app)
	err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(func(w io.Writer, _ fang.Styles, err error) {
			writeError(w, err, app.flags.verbose)
		}),
	)
	return exitCode(err)
}

func exitCode(err error) ExitCode {
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if isUsageError(err) {
		return ExitUsage
	}
	return ExitFailure
}

// isUsageError recognizes the flag and argument errors cobra returns as plain
// errors.
func isUsageError(err error) bool {
	msg := err.Error()
	for _, prefix := range []string{
		"flag needs an argument",
		"unknown flag",
		"unknown shorthand flag",
		"unknown command",
		"invalid argument",
		"accepts ",
		"requires at least",
	} {
		if strings.HasPrefix(msg, prefix) {
			return true
		}
	}
	return false
}

// writeError prints err for the user. Actionable errors print their
// suggestions; with verbose set they also print the error chain and the
// catalog entry they point at.
func writeError(w io.Writer, err error, verbose bool) {
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		fmt.Fprintln(w, ErrorStyle.Render("Error:"), err.Error())
		if isUsageError(err) {
			fmt.Fprintln(w, "Try", CmdStyle.Render("--help"), "for usage.")
		}
		return
	}

	fmt.Fprintln(w, ErrorStyle.Render("Error:"), ae.Format(verbose))
	if !verbose || ae.Issue == 0 {
		return
	}
	if entry := issue.Get(ae.Issue); entry != nil {
		if rendered, rerr := entry.Render("auto"); rerr == nil {
			fmt.Fprint(w, rendered)
		}
	}
}
